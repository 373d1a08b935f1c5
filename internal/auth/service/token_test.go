package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lumastore/auth/internal/auth/domain"
	"github.com/lumastore/auth/pkg/jwtx"
)

func TestMintPairRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, device := env.seedUserDevice(t, "a@x.com")
	role, err := env.store.Roles().GetRoleByID(ctx, user.RoleID)
	require.NoError(t, err)

	pair, err := env.tokens.MintPair(ctx, user, role, device.ID)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	require.Equal(t, 15*time.Minute, pair.ExpiresIn)

	claims, err := env.tokens.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID())
	require.Equal(t, device.ID, claims.DeviceID)
	require.Equal(t, role.ID, claims.RoleID)
	require.Equal(t, domain.RoleClient, claims.RoleName)
	require.NotEmpty(t, claims.ID)

	refreshClaims, err := env.tokens.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, refreshClaims.UserID())
	require.Empty(t, refreshClaims.DeviceID)

	n, err := env.store.RefreshTokens().CountUserRefreshTokens(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestTokenKindsNotInterchangeable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, device := env.seedUserDevice(t, "a@x.com")
	role, err := env.store.Roles().GetRoleByID(ctx, user.RoleID)
	require.NoError(t, err)

	pair, err := env.tokens.MintPair(ctx, user, role, device.ID)
	require.NoError(t, err)

	_, err = env.tokens.VerifyAccess(pair.RefreshToken)
	require.ErrorIs(t, err, jwtx.ErrInvalidToken)

	_, err = env.tokens.VerifyRefresh(pair.AccessToken)
	require.ErrorIs(t, err, ErrUnauthorizedAccess)
}

func TestVerifyExpiredAccessToken(t *testing.T) {
	env := newTestEnv(t)

	// Same signer, claims already past exp.
	expired := jwtx.NewAccessClaims("user-1", "device-1", "role-1", domain.RoleClient,
		"LumaStore", time.Minute, time.Now().UTC().Add(-time.Hour))
	token, err := env.tokens.Access.Sign(expired)
	require.NoError(t, err)

	_, err = env.tokens.VerifyAccess(token)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestRedeemRefreshSingleUse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, device := env.seedUserDevice(t, "a@x.com")
	role, err := env.store.Roles().GetRoleByID(ctx, user.RoleID)
	require.NoError(t, err)

	pair, err := env.tokens.MintPair(ctx, user, role, device.ID)
	require.NoError(t, err)

	row, err := env.tokens.RedeemRefresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, row.UserID)
	require.Equal(t, device.ID, row.DeviceID)

	_, err = env.tokens.RedeemRefresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshTokenAlreadyUsed)
}

func TestRedeemUnknownToken(t *testing.T) {
	env := newTestEnv(t)

	// Structurally fine token that was never persisted: indistinguishable
	// from an already-redeemed one on purpose.
	token, err := env.tokens.Refresh.Sign(
		jwtx.NewRefreshClaims("user-1", "LumaStore", time.Hour, time.Now().UTC()))
	require.NoError(t, err)

	_, err = env.tokens.RedeemRefresh(context.Background(), token)
	require.ErrorIs(t, err, ErrRefreshTokenAlreadyUsed)
}
