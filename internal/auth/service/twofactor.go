package service

import (
	"github.com/pquerna/otp/totp"

	"github.com/lumastore/auth/internal/auth/domain"
)

// TwoFactorService provisions and checks TOTP secrets (RFC 6238, 30 second
// period, 6 digits, SHA-1 — the interoperable defaults every authenticator
// app supports).
type TwoFactorService struct {
	// Issuer is the application name shown in authenticator apps.
	Issuer string
}

// GenerateSecret mints a new random TOTP secret for the account and returns
// it with the otpauth:// provisioning URI. The caller decides when the
// secret is persisted; this call has no side effects.
func (s *TwoFactorService) GenerateSecret(accountEmail string) (domain.TwoFactorSetup, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: accountEmail,
	})
	if err != nil {
		return domain.TwoFactorSetup{}, err
	}

	return domain.TwoFactorSetup{
		Secret: key.Secret(),
		URI:    key.URL(),
	}, nil
}

// Verify reports whether the submitted code matches the secret for the
// current time step, accepting one step of clock skew either side.
func (s *TwoFactorService) Verify(secret, code string) bool {
	return totp.Validate(code, secret)
}
