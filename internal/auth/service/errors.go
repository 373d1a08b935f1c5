// Package service implements the authentication flows on top of the store
// interfaces. Each service translates store errors into the domain error
// taxonomy at its own boundary; callers match with errors.Is.
package service

// Error is a domain authentication error. Code is a stable machine-readable
// key; Field, when set, names the request input the error should be attached
// to. Errors without a Field describe authentication state rather than bad
// input and map to 401 at the transport layer.
type Error struct {
	Code  string
	Field string
}

func (e *Error) Error() string { return e.Code }

var (
	// OTP validation outcomes. Invalid and expired are deliberately distinct
	// so a user with a stale inbox gets an actionable message.
	ErrInvalidOTP   = &Error{Code: "invalid_otp", Field: "code"}
	ErrExpiredOTP   = &Error{Code: "expired_otp", Field: "code"}
	ErrOTPThrottled = &Error{Code: "otp_throttled", Field: "email"}

	// Email lookup outcomes.
	ErrEmailAlreadyInUse = &Error{Code: "email_already_in_use", Field: "email"}
	ErrEmailNotFound     = &Error{Code: "email_not_found", Field: "email"}
	ErrEmailSendFailure  = &Error{Code: "email_send_failure", Field: "email"}

	// Credential outcomes.
	ErrIncorrectPassword = &Error{Code: "incorrect_password", Field: "password"}
	ErrPasswordMismatch  = &Error{Code: "password_mismatch", Field: "confirmPassword"}

	// Two-factor outcomes.
	ErrInvalidTOTP        = &Error{Code: "invalid_totp", Field: "totpCode"}
	ErrInvalidTOTPAndCode = &Error{Code: "invalid_totp_and_code", Field: "totpCode"}
	ErrTOTPAlreadyEnabled = &Error{Code: "totp_already_enabled", Field: "totpCode"}
	ErrTOTPNotEnabled     = &Error{Code: "totp_not_enabled", Field: "totpCode"}

	// Session state. No Field: these are 401s, not validation failures.
	ErrRefreshTokenAlreadyUsed = &Error{Code: "refresh_token_already_used"}
	ErrUnauthorizedAccess      = &Error{Code: "unauthorized_access"}
)
