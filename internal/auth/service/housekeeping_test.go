package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lumastore/auth/internal/auth/domain"
	"github.com/lumastore/auth/internal/auth/store"
	"github.com/lumastore/auth/pkg/idx"
)

func TestHousekeepingSweep(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Now().UTC()

	codes := env.store.VerificationCodes()
	require.NoError(t, codes.UpsertVerificationCode(ctx, domain.VerificationCode{
		ID: idx.New().String(), Email: "stale@x.com", Code: "111111",
		Purpose: domain.CodePurposeRegister, ExpiresAt: now.Add(-time.Hour), CreatedAt: now.Add(-2 * time.Hour),
	}))
	require.NoError(t, codes.UpsertVerificationCode(ctx, domain.VerificationCode{
		ID: idx.New().String(), Email: "fresh@x.com", Code: "222222",
		Purpose: domain.CodePurposeRegister, ExpiresAt: now.Add(time.Hour), CreatedAt: now,
	}))

	user, device := env.seedUserDevice(t, "seed@x.com")
	tokens := env.store.RefreshTokens()
	require.NoError(t, tokens.CreateRefreshToken(ctx, domain.RefreshToken{
		ID: idx.New().String(), UserID: user.ID, DeviceID: device.ID,
		TokenHash: "stale-hash", ExpiresAt: now.Add(-time.Hour), CreatedAt: now.Add(-2 * time.Hour),
	}))
	require.NoError(t, tokens.CreateRefreshToken(ctx, domain.RefreshToken{
		ID: idx.New().String(), UserID: user.ID, DeviceID: device.ID,
		TokenHash: "fresh-hash", ExpiresAt: now.Add(time.Hour), CreatedAt: now,
	}))

	hk := NewHousekeepingService(env.store, codes, slog.New(slog.DiscardHandler), time.Hour)
	hk.sweep()

	_, err := codes.GetVerificationCode(ctx, "stale@x.com", "111111", domain.CodePurposeRegister)
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = codes.GetVerificationCode(ctx, "fresh@x.com", "222222", domain.CodePurposeRegister)
	require.NoError(t, err)

	_, err = tokens.GetRefreshTokenByHash(ctx, "stale-hash")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = tokens.GetRefreshTokenByHash(ctx, "fresh-hash")
	require.NoError(t, err)
}

func TestHousekeepingStartStop(t *testing.T) {
	env := newTestEnv(t)

	hk := NewHousekeepingService(env.store, env.store.VerificationCodes(), slog.New(slog.DiscardHandler), time.Hour)
	hk.Start()
	hk.Stop() // must not hang or panic
}
