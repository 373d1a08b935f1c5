// Package jwtx signs and verifies the service's HMAC tokens. Access and
// refresh tokens use independent secrets and TTLs so a leaked access token
// can never mint new sessions.
package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Default token TTLs. Overridable per-service through configuration.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Claims are the signed token claims. Subject carries the user id; the
// remaining custom fields are only populated on access tokens.
type Claims struct {
	jwt.RegisteredClaims

	// DeviceID binds an access token to the device row created at login.
	DeviceID string `json:"did,omitempty"`

	// RoleID / RoleName let the resource layer authorize without a user lookup.
	RoleID   string `json:"rid,omitempty"`
	RoleName string `json:"rol,omitempty"`
}

// NewAccessClaims builds claims for a short-lived access token.
func NewAccessClaims(userID, deviceID, roleID, roleName, issuer string, ttl time.Duration, now time.Time) Claims {
	c := newBaseClaims(userID, issuer, ttl, now)
	c.DeviceID = deviceID
	c.RoleID = roleID
	c.RoleName = roleName
	return c
}

// NewRefreshClaims builds claims for a refresh token. Only the user id is
// embedded; the device binding lives in the refresh-token registry row.
func NewRefreshClaims(userID, issuer string, ttl time.Duration, now time.Time) Claims {
	return newBaseClaims(userID, issuer, ttl, now)
}

func newBaseClaims(subject, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			// Random jti so two tokens minted in the same clock tick for the
			// same subject never collide.
			ID: uuid.NewString(),
		},
	}
}

// UserID returns the subject claim.
func (c Claims) UserID() string { return c.Subject }
