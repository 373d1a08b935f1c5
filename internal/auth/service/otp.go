package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/lumastore/auth/internal/auth/domain"
	"github.com/lumastore/auth/internal/auth/mail"
	"github.com/lumastore/auth/internal/auth/store"
	"github.com/lumastore/auth/pkg/cryptox"
	"github.com/lumastore/auth/pkg/idx"
)

const otpDigits = 6

// OTPService issues, delivers and validates emailed one-time passcodes.
// Codes are keyed by (email, purpose): issuing again overwrites the live
// code, validation never mutates, and consumption is a compare-and-delete
// so a code unlocks at most one operation.
type OTPService struct {
	Codes  store.VerificationCodes
	Mailer mail.Mailer
	Logger *slog.Logger

	// TTL is the code lifetime. Zero means DefaultOTPTTL.
	TTL time.Duration

	// SendInterval is the minimum gap between sends to the same address.
	// Zero disables throttling (useful in tests).
	SendInterval time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// DefaultOTPTTL matches the 5 minute lifetime printed in the email body.
const DefaultOTPTTL = 5 * time.Minute

func (s *OTPService) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultOTPTTL
	}
	return s.TTL
}

// Issue generates a fresh 6-digit code for (email, purpose), replacing any
// live code, and emails it. The stored record outlives a delivery failure so
// the user can retry without waiting out the throttle window. Returns
// ErrOTPThrottled when the address asked again too soon and
// ErrEmailSendFailure when the mailer errored.
func (s *OTPService) Issue(ctx context.Context, email string, purpose domain.CodePurpose) error {
	if !s.allowSend(email) {
		return ErrOTPThrottled
	}

	code, err := cryptox.GenerateNumericCode(otpDigits)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	vc := domain.VerificationCode{
		ID:        idx.New().String(),
		Email:     email,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: now.Add(s.ttl()),
		CreatedAt: now,
	}
	if err := s.Codes.UpsertVerificationCode(ctx, vc); err != nil {
		return err
	}

	if err := s.Mailer.SendOTP(ctx, email, code, purpose); err != nil {
		s.Logger.Error("otp delivery failed", "email", email, "purpose", string(purpose), "error", err)
		return ErrEmailSendFailure
	}

	s.Logger.Info("otp issued", "email", email, "purpose", string(purpose))
	return nil
}

// Validate checks a submitted code without consuming it. Unknown codes
// report ErrInvalidOTP and known-but-stale codes report ErrExpiredOTP.
func (s *OTPService) Validate(ctx context.Context, email, code string, purpose domain.CodePurpose) error {
	vc, err := s.Codes.GetVerificationCode(ctx, email, code, purpose)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidOTP
		}
		return err
	}
	if vc.Expired(time.Now().UTC()) {
		return ErrExpiredOTP
	}
	return nil
}

// Consume deletes the code after its flow committed. A missing row means
// another request consumed it first, which surfaces as ErrInvalidOTP.
func (s *OTPService) Consume(ctx context.Context, email, code string, purpose domain.CodePurpose) error {
	err := s.Codes.DeleteVerificationCode(ctx, email, code, purpose)
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalidOTP
	}
	return err
}

// allowSend enforces the per-address send interval with a lazily created
// limiter per email. The map only grows; housekeeping of idle limiters is
// not worth the bookkeeping at this scale.
func (s *OTPService) allowSend(email string) bool {
	if s.SendInterval <= 0 {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.limiters == nil {
		s.limiters = make(map[string]*rate.Limiter)
	}
	lim, ok := s.limiters[email]
	if !ok {
		lim = rate.NewLimiter(rate.Every(s.SendInterval), 1)
		s.limiters[email] = lim
	}
	return lim.Allow()
}
