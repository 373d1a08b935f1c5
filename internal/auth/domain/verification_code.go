package domain

import "time"

// CodePurpose scopes an emailed one-time passcode to the single flow it may
// unlock.
type CodePurpose string

const (
	CodePurposeRegister       CodePurpose = "REGISTER"
	CodePurposeLogin          CodePurpose = "LOGIN"
	CodePurposeForgotPassword CodePurpose = "FORGOT_PASSWORD"
	CodePurposeDisable2FA     CodePurpose = "DISABLE_2FA"
)

// Valid reports whether p is one of the known purposes.
func (p CodePurpose) Valid() bool {
	switch p {
	case CodePurposeRegister, CodePurposeLogin, CodePurposeForgotPassword, CodePurposeDisable2FA:
		return true
	}
	return false
}

// VerificationCode is a short-lived emailed OTP. At most one live code exists
// per (email, purpose); issuing again overwrites code and expiry. Expiry is
// checked lazily at validation time, never by the validation path deleting
// anything.
type VerificationCode struct {
	ID        string
	Email     string
	Code      string // 6 decimal digits
	Purpose   CodePurpose
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the code is past its expiry at the given instant.
func (c VerificationCode) Expired(now time.Time) bool {
	return c.ExpiresAt.Before(now)
}
