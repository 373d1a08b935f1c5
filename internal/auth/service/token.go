package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lumastore/auth/internal/auth/domain"
	"github.com/lumastore/auth/internal/auth/store"
	"github.com/lumastore/auth/pkg/cryptox"
	"github.com/lumastore/auth/pkg/idx"
	"github.com/lumastore/auth/pkg/jwtx"
)

// TokenService mints and verifies the access/refresh token pair. The two
// token kinds are signed with independent secrets so neither can stand in
// for the other. Every minted refresh token gets a registry row keyed by
// its SHA-256 fingerprint; the signed token itself is never stored.
type TokenService struct {
	Access  *jwtx.HS256
	Refresh *jwtx.HS256
	Tokens  store.RefreshTokens

	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// NewTokenService wires a token service from the two secrets. Zero TTLs take
// the jwtx defaults (15m access, 7d refresh).
func NewTokenService(accessSecret, refreshSecret []byte, issuer string, tokens store.RefreshTokens, accessTTL, refreshTTL time.Duration) *TokenService {
	if accessTTL <= 0 {
		accessTTL = jwtx.DefaultAccessTokenTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = jwtx.DefaultRefreshTokenTTL
	}
	return &TokenService{
		Access:     jwtx.NewHS256(accessSecret, issuer),
		Refresh:    jwtx.NewHS256(refreshSecret, issuer),
		Tokens:     tokens,
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
	}
}

// MintPair signs a fresh access + refresh token for the user on the given
// device and records the refresh token's fingerprint. The two signatures are
// independent, so they run concurrently.
func (s *TokenService) MintPair(ctx context.Context, user domain.User, role domain.Role, deviceID string) (domain.TokenPair, error) {
	now := time.Now().UTC()

	var access, refresh string
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		access, err = s.Access.Sign(jwtx.NewAccessClaims(user.ID, deviceID, role.ID, role.Name, s.Access.Issuer(), s.AccessTTL, now))
		return err
	})
	g.Go(func() error {
		var err error
		refresh, err = s.Refresh.Sign(jwtx.NewRefreshClaims(user.ID, s.Refresh.Issuer(), s.RefreshTTL, now))
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.TokenPair{}, err
	}

	if err := s.Tokens.CreateRefreshToken(ctx, domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    user.ID,
		DeviceID:  deviceID,
		TokenHash: cryptox.FingerprintToken(refresh),
		ExpiresAt: now.Add(s.RefreshTTL),
		CreatedAt: now,
	}); err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    s.AccessTTL,
	}, nil
}

// VerifyAccess validates an access token signature and expiry.
func (s *TokenService) VerifyAccess(token string) (jwtx.Claims, error) {
	return s.Access.Verify(token)
}

// VerifyRefresh validates a refresh token signature and expiry. Signature or
// expiry failures collapse to ErrUnauthorizedAccess; the registry lookup is
// the caller's job.
func (s *TokenService) VerifyRefresh(token string) (jwtx.Claims, error) {
	claims, err := s.Refresh.Verify(token)
	if err != nil {
		return jwtx.Claims{}, ErrUnauthorizedAccess
	}
	return claims, nil
}

// RedeemRefresh looks up and atomically deletes the registry row for a
// verified refresh token. A missing row at either step means the single-use
// token was already redeemed: ErrRefreshTokenAlreadyUsed.
func (s *TokenService) RedeemRefresh(ctx context.Context, token string) (domain.RefreshToken, error) {
	hash := cryptox.FingerprintToken(token)

	row, err := s.Tokens.GetRefreshTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.RefreshToken{}, ErrRefreshTokenAlreadyUsed
		}
		return domain.RefreshToken{}, err
	}

	// Compare-and-delete: under concurrent redemption exactly one caller
	// gets here with rows affected.
	if err := s.Tokens.DeleteRefreshToken(ctx, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.RefreshToken{}, ErrRefreshTokenAlreadyUsed
		}
		return domain.RefreshToken{}, err
	}

	return row, nil
}
