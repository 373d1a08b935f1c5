// Package mail delivers one-time passcodes. The credential service only
// depends on the Mailer interface; SMTP and log-only implementations live
// here.
package mail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lumastore/auth/internal/auth/domain"
)

// Mailer sends an OTP code to an email address. Implementations map their
// transport failures to a plain error; the service translates that into the
// send-failure domain error.
type Mailer interface {
	SendOTP(ctx context.Context, to, code string, purpose domain.CodePurpose) error
}

func subjectFor(purpose domain.CodePurpose) string {
	switch purpose {
	case domain.CodePurposeRegister:
		return "Confirm your email"
	case domain.CodePurposeLogin:
		return "Your login code"
	case domain.CodePurposeForgotPassword:
		return "Reset your password"
	case domain.CodePurposeDisable2FA:
		return "Disable two-factor authentication"
	default:
		return "Your verification code"
	}
}

func bodyFor(code string, purpose domain.CodePurpose, ttlMinutes int) string {
	return fmt.Sprintf(
		`<h2>%s</h2><p>Your verification code is <b>%s</b>.</p><p>The code is valid for %d minutes.</p>`,
		subjectFor(purpose), code, ttlMinutes,
	)
}

// LogMailer writes codes to the log instead of sending email. Used in dev
// and tests when no SMTP server is configured.
type LogMailer struct {
	Logger *slog.Logger
}

func (m *LogMailer) SendOTP(ctx context.Context, to, code string, purpose domain.CodePurpose) error {
	m.Logger.Info("otp issued (log mailer)", "to", to, "code", code, "purpose", string(purpose))
	return nil
}
