package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken covers bad signatures, malformed tokens and wrong
	// signing methods. Deliberately coarse; callers should not leak which
	// check failed.
	ErrInvalidToken = errors.New("jwtx: invalid token")

	// ErrExpired reports a structurally valid token past its exp claim.
	ErrExpired = errors.New("jwtx: token expired")
)

// HS256 signs and verifies tokens with a single HMAC-SHA256 secret.
type HS256 struct {
	secret []byte
	issuer string
}

// NewHS256 creates a signer/verifier bound to one secret. The issuer is
// enforced on verification when non-empty.
func NewHS256(secret []byte, issuer string) *HS256 {
	return &HS256{secret: secret, issuer: issuer}
}

// Issuer returns the issuer enforced on verification.
func (h *HS256) Issuer() string { return h.issuer }

// Sign produces a compact JWS for the given claims.
func (h *HS256) Sign(c Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(h.secret)
}

// Verify parses and validates a token, returning its claims. Expired tokens
// report ErrExpired; every other failure collapses to ErrInvalidToken.
func (h *HS256) Verify(token string) (Claims, error) {
	var claims Claims

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if h.issuer != "" {
		opts = append(opts, jwt.WithIssuer(h.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return h.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpired
		}
		return Claims{}, ErrInvalidToken
	}
	if !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
