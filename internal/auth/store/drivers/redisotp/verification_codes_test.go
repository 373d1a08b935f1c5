package redisotp

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/lumastore/auth/internal/auth/domain"
	"github.com/lumastore/auth/internal/auth/store"
	"github.com/lumastore/auth/pkg/idx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return New(rdb)
}

func newCode(email string, purpose domain.CodePurpose, code string, ttl time.Duration) domain.VerificationCode {
	now := time.Now().UTC()
	return domain.VerificationCode{
		ID:        idx.New().String(),
		Email:     email,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
}

func TestUpsertThenGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	c := newCode("a@x.com", domain.CodePurposeRegister, "123456", 5*time.Minute)
	require.NoError(t, repo.UpsertVerificationCode(ctx, c))

	got, err := repo.GetVerificationCode(ctx, "a@x.com", "123456", domain.CodePurposeRegister)
	require.NoError(t, err)
	require.Equal(t, c.Code, got.Code)
	require.Equal(t, c.Purpose, got.Purpose)
	require.False(t, got.Expired(time.Now()))
}

func TestGetWrongCodeOrPurpose(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertVerificationCode(ctx, newCode("a@x.com", domain.CodePurposeRegister, "123456", 5*time.Minute)))

	_, err := repo.GetVerificationCode(ctx, "a@x.com", "999999", domain.CodePurposeRegister)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = repo.GetVerificationCode(ctx, "a@x.com", "123456", domain.CodePurposeLogin)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpsertOverwritesLiveCode(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertVerificationCode(ctx, newCode("a@x.com", domain.CodePurposeRegister, "111111", 5*time.Minute)))
	require.NoError(t, repo.UpsertVerificationCode(ctx, newCode("a@x.com", domain.CodePurposeRegister, "222222", 5*time.Minute)))

	_, err := repo.GetVerificationCode(ctx, "a@x.com", "111111", domain.CodePurposeRegister)
	require.ErrorIs(t, err, store.ErrNotFound)

	got, err := repo.GetVerificationCode(ctx, "a@x.com", "222222", domain.CodePurposeRegister)
	require.NoError(t, err)
	require.Equal(t, "222222", got.Code)
}

func TestExpiredCodeStillReadable(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// Expired in domain terms but within the Redis grace window.
	require.NoError(t, repo.UpsertVerificationCode(ctx, newCode("a@x.com", domain.CodePurposeForgotPassword, "123456", -time.Minute)))

	got, err := repo.GetVerificationCode(ctx, "a@x.com", "123456", domain.CodePurposeForgotPassword)
	require.NoError(t, err)
	require.True(t, got.Expired(time.Now()))
}

func TestDeleteConsumesExactlyOnce(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertVerificationCode(ctx, newCode("a@x.com", domain.CodePurposeLogin, "123456", 5*time.Minute)))

	require.NoError(t, repo.DeleteVerificationCode(ctx, "a@x.com", "123456", domain.CodePurposeLogin))
	require.ErrorIs(t,
		repo.DeleteVerificationCode(ctx, "a@x.com", "123456", domain.CodePurposeLogin),
		store.ErrNotFound,
	)
}
