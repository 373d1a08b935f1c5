package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumastore/auth/internal/auth/domain"
)

func TestEnsureDefaultRolesIdempotent(t *testing.T) {
	env := newTestEnv(t) // fixture already ran EnsureDefaultRoles once
	ctx := context.Background()

	require.NoError(t, EnsureDefaultRoles(ctx, env.store.Roles()))
	require.NoError(t, EnsureDefaultRoles(ctx, env.store.Roles()))

	client, err := env.store.Roles().GetRoleByName(ctx, domain.RoleClient)
	require.NoError(t, err)
	admin, err := env.store.Roles().GetRoleByName(ctx, domain.RoleAdmin)
	require.NoError(t, err)
	require.NotEqual(t, client.ID, admin.ID)
}

func TestRoleCacheReadThrough(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cache := NewRoleCache(env.store.Roles())

	client, err := cache.GetByName(ctx, domain.RoleClient)
	require.NoError(t, err)
	require.Equal(t, domain.RoleClient, client.Name)

	again, err := cache.GetByName(ctx, domain.RoleClient)
	require.NoError(t, err)
	require.Equal(t, client.ID, again.ID)

	byID, err := cache.GetByID(ctx, client.ID)
	require.NoError(t, err)
	require.Equal(t, client.Name, byID.Name)

	_, err = cache.GetByName(ctx, "no-such-role")
	require.Error(t, err)
}
