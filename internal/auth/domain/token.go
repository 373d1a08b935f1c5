package domain

import "time"

// TokenPair is what a successful login or refresh returns.
type TokenPair struct {
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
	ExpiresIn    time.Duration `json:"expiresIn"` // access-token lifetime
}

// RefreshToken is the stored registry row for an issued refresh token.
// Each token is single use: a successful refresh deletes the row and writes
// a new one bound to the same device. A missing row on redemption means the
// token was already used, which is the theft-detection signal.
type RefreshToken struct {
	ID        string
	UserID    string
	DeviceID  string
	TokenHash string // base64url SHA-256 fingerprint of the signed token
	ExpiresAt time.Time
	CreatedAt time.Time
}

// TwoFactorSetup is returned once when 2FA is provisioned. The secret is
// never re-displayed after this response.
type TwoFactorSetup struct {
	Secret string `json:"secret"`
	URI    string `json:"uri"` // otpauth:// provisioning URI
}
