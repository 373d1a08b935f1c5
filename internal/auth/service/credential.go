package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lumastore/auth/internal/auth/domain"
	"github.com/lumastore/auth/internal/auth/store"
	"github.com/lumastore/auth/pkg/cryptox"
	"github.com/lumastore/auth/pkg/idx"
)

// CredentialService orchestrates the account lifecycle: registration, login,
// token refresh, logout, password reset and two-factor management. It owns no
// state of its own; every mutation goes through the store and every domain
// error comes from the taxonomy in errors.go.
type CredentialService struct {
	Store     store.Store
	OTP       *OTPService
	TwoFactor *TwoFactorService
	Tokens    *TokenService
	Roles     *RoleCache
	Logger    *slog.Logger
}

type RegisterInput struct {
	Email           string
	Name            string
	Password        string
	ConfirmPassword string
	PhoneNumber     string
	Code            string // emailed REGISTER code
}

type LoginInput struct {
	Email    string
	Password string

	// TOTPCode and Code are the two second factors. When both are supplied
	// only TOTPCode is checked; Code is ignored. Longstanding behavior that
	// clients rely on.
	TOTPCode string
	Code     string

	UserAgent string
	IP        string
}

type RefreshInput struct {
	RefreshToken string
	UserAgent    string
	IP           string
}

type ForgotPasswordInput struct {
	Email              string
	Code               string // emailed FORGOT_PASSWORD code
	NewPassword        string
	ConfirmNewPassword string
}

// Register creates an account after the email was proven via a REGISTER
// code. User creation and code consumption touch disjoint rows and run
// concurrently. An email uniqueness race on insert reports
// ErrEmailAlreadyInUse.
func (s *CredentialService) Register(ctx context.Context, in RegisterInput) (domain.Summary, error) {
	if in.Password != in.ConfirmPassword {
		return domain.Summary{}, ErrPasswordMismatch
	}

	if err := s.OTP.Validate(ctx, in.Email, in.Code, domain.CodePurposeRegister); err != nil {
		return domain.Summary{}, err
	}

	role, err := s.Roles.GetByName(ctx, domain.RoleClient)
	if err != nil {
		return domain.Summary{}, err
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return domain.Summary{}, err
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           idx.New().String(),
		Email:        in.Email,
		Name:         in.Name,
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: hash,
		RoleID:       role.ID,
		Status:       domain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.Store.Users().CreateUser(gctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailAlreadyInUse
			}
			return err
		}
		return nil
	})
	g.Go(func() error {
		return s.OTP.Consume(gctx, in.Email, in.Code, domain.CodePurposeRegister)
	})
	if err := g.Wait(); err != nil {
		return domain.Summary{}, err
	}

	s.Logger.Info("user registered", "user_id", user.ID)
	return user.Summary(), nil
}

// SendOTP issues a code for the given purpose. REGISTER requires the address
// to be unclaimed; every other purpose requires an existing account. A mail
// transport failure reports ErrEmailSendFailure but keeps the stored code,
// so a retry after a transient outage can still succeed.
func (s *CredentialService) SendOTP(ctx context.Context, email string, purpose domain.CodePurpose) error {
	_, err := s.Store.Users().GetUserByEmail(ctx, email)

	switch purpose {
	case domain.CodePurposeRegister:
		if err == nil {
			return ErrEmailAlreadyInUse
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
	default:
		if errors.Is(err, store.ErrNotFound) {
			return ErrEmailNotFound
		}
		if err != nil {
			return err
		}
	}

	return s.OTP.Issue(ctx, email, purpose)
}

// Login authenticates email+password, applies the second factor when 2FA is
// enabled, and opens a session: one new device row plus one token pair bound
// to it.
func (s *CredentialService) Login(ctx context.Context, in LoginInput) (domain.TokenPair, error) {
	user, err := s.Store.Users().GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrEmailNotFound
		}
		return domain.TokenPair{}, err
	}

	if err := cryptox.VerifyPassword(in.Password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return domain.TokenPair{}, ErrIncorrectPassword
		}
		return domain.TokenPair{}, err
	}

	if err := s.checkLoginSecondFactor(ctx, user, in); err != nil {
		return domain.TokenPair{}, err
	}

	role, err := s.Roles.GetByID(ctx, user.RoleID)
	if err != nil {
		return domain.TokenPair{}, err
	}

	now := time.Now().UTC()
	device := domain.Device{
		ID:         idx.New().String(),
		UserID:     user.ID,
		UserAgent:  in.UserAgent,
		IP:         in.IP,
		LastActive: now,
		IsActive:   true,
		CreatedAt:  now,
	}
	if err := s.Store.Devices().CreateDevice(ctx, device); err != nil {
		return domain.TokenPair{}, err
	}

	pair, err := s.Tokens.MintPair(ctx, user, role, device.ID)
	if err != nil {
		return domain.TokenPair{}, err
	}

	s.Logger.Info("user logged in", "user_id", user.ID, "device_id", device.ID)
	return pair, nil
}

func (s *CredentialService) checkLoginSecondFactor(ctx context.Context, user domain.User, in LoginInput) error {
	if user.TwoFactorEnabled() {
		switch {
		case in.TOTPCode != "":
			if !s.TwoFactor.Verify(*user.TOTPSecret, in.TOTPCode) {
				return ErrInvalidTOTP
			}
			return nil
		case in.Code != "":
			return s.validateAndConsume(ctx, user.Email, in.Code, domain.CodePurposeLogin)
		default:
			return ErrInvalidTOTPAndCode
		}
	}

	// 2FA disabled: an emailed LOGIN code is optional extra verification.
	if in.Code != "" {
		return s.validateAndConsume(ctx, user.Email, in.Code, domain.CodePurposeLogin)
	}
	return nil
}

func (s *CredentialService) validateAndConsume(ctx context.Context, email, code string, purpose domain.CodePurpose) error {
	if err := s.OTP.Validate(ctx, email, code, purpose); err != nil {
		return err
	}
	return s.OTP.Consume(ctx, email, code, purpose)
}

// Refresh rotates a refresh token. The stored record must still exist:
// absence means the token was already redeemed, the theft-detection signal,
// and reports ErrRefreshTokenAlreadyUsed. Device touch, old-record delete and
// new-pair mint touch disjoint rows and run concurrently; any partial failure
// collapses to an auth-state error rather than leaking detail.
func (s *CredentialService) Refresh(ctx context.Context, in RefreshInput) (domain.TokenPair, error) {
	claims, err := s.Tokens.VerifyRefresh(in.RefreshToken)
	if err != nil {
		return domain.TokenPair{}, err
	}

	hash := cryptox.FingerprintToken(in.RefreshToken)
	row, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.Logger.Warn("refresh token reuse detected", "user_id", claims.UserID())
			return domain.TokenPair{}, ErrRefreshTokenAlreadyUsed
		}
		return domain.TokenPair{}, collapseAuthErr(err)
	}
	if row.UserID != claims.UserID() {
		return domain.TokenPair{}, ErrUnauthorizedAccess
	}

	user, err := s.Store.Users().GetUserByID(ctx, row.UserID)
	if err != nil {
		return domain.TokenPair{}, collapseAuthErr(err)
	}
	role, err := s.Roles.GetByID(ctx, user.RoleID)
	if err != nil {
		return domain.TokenPair{}, collapseAuthErr(err)
	}

	var pair domain.TokenPair
	now := time.Now().UTC()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Store.Devices().TouchDevice(gctx, row.DeviceID, in.IP, in.UserAgent, now)
	})
	g.Go(func() error {
		if err := s.Store.RefreshTokens().DeleteRefreshToken(gctx, hash); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrRefreshTokenAlreadyUsed
			}
			return err
		}
		return nil
	})
	g.Go(func() error {
		var err error
		pair, err = s.Tokens.MintPair(gctx, user, role, row.DeviceID)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.TokenPair{}, collapseAuthErr(err)
	}

	return pair, nil
}

// Logout redeems the refresh token and deactivates its device. A second
// logout with the same token reports ErrRefreshTokenAlreadyUsed.
func (s *CredentialService) Logout(ctx context.Context, refreshToken string) error {
	if _, err := s.Tokens.VerifyRefresh(refreshToken); err != nil {
		return err
	}

	row, err := s.Tokens.RedeemRefresh(ctx, refreshToken)
	if err != nil {
		return collapseAuthErr(err)
	}

	if err := s.Store.Devices().DeactivateDevice(ctx, row.DeviceID); err != nil {
		return collapseAuthErr(err)
	}

	s.Logger.Info("user logged out", "user_id", row.UserID, "device_id", row.DeviceID)
	return nil
}

// ForgotPassword resets the password after the email was proven via a
// FORGOT_PASSWORD code, then revokes every outstanding session for the user.
func (s *CredentialService) ForgotPassword(ctx context.Context, in ForgotPasswordInput) error {
	if in.NewPassword != in.ConfirmNewPassword {
		return ErrPasswordMismatch
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrEmailNotFound
		}
		return err
	}

	if err := s.OTP.Validate(ctx, in.Email, in.Code, domain.CodePurposeForgotPassword); err != nil {
		return err
	}

	hash, err := cryptox.HashPassword(in.NewPassword)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Store.Users().UpdatePasswordHash(gctx, user.ID, hash)
	})
	g.Go(func() error {
		return s.OTP.Consume(gctx, in.Email, in.Code, domain.CodePurposeForgotPassword)
	})
	g.Go(func() error {
		// A reset usually means the old password is suspect; force every
		// session to re-authenticate.
		return s.Store.RefreshTokens().DeleteUserRefreshTokens(gctx, user.ID)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	s.Logger.Info("password reset", "user_id", user.ID)
	return nil
}

// SetupTwoFactor provisions a TOTP secret for the user and returns it with
// the otpauth URI. The secret is shown exactly once.
func (s *CredentialService) SetupTwoFactor(ctx context.Context, userID string) (domain.TwoFactorSetup, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TwoFactorSetup{}, ErrUnauthorizedAccess
		}
		return domain.TwoFactorSetup{}, err
	}
	if user.TwoFactorEnabled() {
		return domain.TwoFactorSetup{}, ErrTOTPAlreadyEnabled
	}

	setup, err := s.TwoFactor.GenerateSecret(user.Email)
	if err != nil {
		return domain.TwoFactorSetup{}, err
	}

	if err := s.Store.Users().UpdateTOTPSecret(ctx, user.ID, setup.Secret); err != nil {
		return domain.TwoFactorSetup{}, err
	}

	s.Logger.Info("two-factor enabled", "user_id", user.ID)
	return setup, nil
}

// DisableTwoFactor clears the TOTP secret after the user proves control via
// a current TOTP code or an emailed DISABLE_2FA code.
func (s *CredentialService) DisableTwoFactor(ctx context.Context, userID, totpCode, otpCode string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUnauthorizedAccess
		}
		return err
	}
	if !user.TwoFactorEnabled() {
		return ErrTOTPNotEnabled
	}

	switch {
	case totpCode != "":
		if !s.TwoFactor.Verify(*user.TOTPSecret, totpCode) {
			return ErrInvalidTOTP
		}
	case otpCode != "":
		if err := s.validateAndConsume(ctx, user.Email, otpCode, domain.CodePurposeDisable2FA); err != nil {
			return err
		}
	default:
		return ErrInvalidTOTPAndCode
	}

	if err := s.Store.Users().ClearTOTPSecret(ctx, user.ID); err != nil {
		return err
	}

	s.Logger.Info("two-factor disabled", "user_id", user.ID)
	return nil
}

// ListDevices returns the user's device audit trail, newest first.
func (s *CredentialService) ListDevices(ctx context.Context, userID string) ([]domain.Device, error) {
	return s.Store.Devices().ListUserDevices(ctx, userID)
}

// collapseAuthErr keeps known domain errors and hides everything else behind
// ErrUnauthorizedAccess on the security-sensitive refresh/logout paths.
func collapseAuthErr(err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return ErrUnauthorizedAccess
}
