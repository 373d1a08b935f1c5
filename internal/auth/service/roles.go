package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lumastore/auth/internal/auth/domain"
	"github.com/lumastore/auth/internal/auth/store"
	"github.com/lumastore/auth/pkg/idx"
)

// RoleCache is a read-through cache over the roles repository. Roles are
// written once at bootstrap and read on every registration and login, so
// caching by name is safe and saves a query per request.
type RoleCache struct {
	Roles store.Roles

	mu     sync.RWMutex
	byName map[string]domain.Role
}

func NewRoleCache(roles store.Roles) *RoleCache {
	return &RoleCache{
		Roles:  roles,
		byName: make(map[string]domain.Role),
	}
}

// GetByName returns the role with the given name, hitting the store only on
// the first miss.
func (c *RoleCache) GetByName(ctx context.Context, name string) (domain.Role, error) {
	c.mu.RLock()
	r, ok := c.byName[name]
	c.mu.RUnlock()
	if ok {
		return r, nil
	}

	r, err := c.Roles.GetRoleByName(ctx, name)
	if err != nil {
		return domain.Role{}, err
	}

	c.mu.Lock()
	c.byName[name] = r
	c.mu.Unlock()
	return r, nil
}

// GetByID resolves a role id through the cache.
func (c *RoleCache) GetByID(ctx context.Context, id string) (domain.Role, error) {
	c.mu.RLock()
	for _, r := range c.byName {
		if r.ID == id {
			c.mu.RUnlock()
			return r, nil
		}
	}
	c.mu.RUnlock()

	r, err := c.Roles.GetRoleByID(ctx, id)
	if err != nil {
		return domain.Role{}, err
	}

	c.mu.Lock()
	c.byName[r.Name] = r
	c.mu.Unlock()
	return r, nil
}

// EnsureDefaultRoles creates the built-in roles if they do not exist yet.
// Idempotent; safe to run on every startup.
func EnsureDefaultRoles(ctx context.Context, roles store.Roles) error {
	defaults := []domain.Role{
		{Name: domain.RoleClient, Description: "Self-registered customer account"},
		{Name: domain.RoleAdmin, Description: "Administrative account"},
	}

	for _, r := range defaults {
		_, err := roles.GetRoleByName(ctx, r.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		now := time.Now().UTC()
		r.ID = idx.New().String()
		r.CreatedAt = now
		r.UpdatedAt = now
		if err := roles.CreateRole(ctx, r); err != nil && !errors.Is(err, store.ErrAlreadyExists) {
			return err
		}
	}
	return nil
}
