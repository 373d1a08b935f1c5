// Package redisotp is an optional VerificationCodes driver on Redis. OTP
// codes are a natural fit for a TTL'd key-value store; everything else stays
// in the relational driver.
package redisotp

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/lumastore/auth/internal/auth/domain"
	"github.com/lumastore/auth/internal/auth/store"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "otp"

// expiryGrace keeps expired records readable for a while so validation can
// distinguish "expired" from "invalid". Domain expiry stays the lazy
// wall-clock check on ExpiresAt.
const expiryGrace = time.Hour

type record struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

type Repo struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Repo {
	return &Repo{rdb: rdb}
}

func key(email string, purpose domain.CodePurpose) string {
	return keyPrefix + ":" + email + ":" + string(purpose)
}

// UpsertVerificationCode replaces any live code for (email, purpose); SET is
// already last-writer-wins, matching the relational upsert.
func (r *Repo) UpsertVerificationCode(ctx context.Context, c domain.VerificationCode) error {
	encoded, err := json.Marshal(record{
		ID:        c.ID,
		Code:      c.Code,
		ExpiresAt: c.ExpiresAt,
		CreatedAt: c.CreatedAt,
	})
	if err != nil {
		return err
	}

	ttl := time.Until(c.ExpiresAt) + expiryGrace
	return r.rdb.Set(ctx, key(c.Email, c.Purpose), encoded, ttl).Err()
}

func (r *Repo) GetVerificationCode(
	ctx context.Context,
	email, code string,
	purpose domain.CodePurpose,
) (domain.VerificationCode, error) {
	data, err := r.rdb.Get(ctx, key(email, purpose)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.VerificationCode{}, store.ErrNotFound
		}
		return domain.VerificationCode{}, err
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.VerificationCode{}, err
	}
	if rec.Code != code {
		return domain.VerificationCode{}, store.ErrNotFound
	}

	return domain.VerificationCode{
		ID:        rec.ID,
		Email:     email,
		Code:      rec.Code,
		Purpose:   purpose,
		ExpiresAt: rec.ExpiresAt,
		CreatedAt: rec.CreatedAt,
	}, nil
}

// DeleteVerificationCode consumes the code with an optimistic WATCH so two
// concurrent consumers cannot both succeed.
func (r *Repo) DeleteVerificationCode(
	ctx context.Context,
	email, code string,
	purpose domain.CodePurpose,
) error {
	const maxRetries = 4
	k := key(email, purpose)

	for range maxRetries {
		err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, k).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return store.ErrNotFound
				}
				return err
			}

			var rec record
			if err := json.Unmarshal(data, &rec); err != nil {
				return err
			}
			if rec.Code != code {
				return store.ErrNotFound
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, k)
				return nil
			})
			return err
		}, k)

		if errors.Is(err, redis.TxFailedErr) {
			continue // key changed under us, retry
		}
		return err
	}
	return store.ErrNotFound
}

// DeleteExpiredVerificationCodes is a no-op: Redis TTLs evict for us.
func (r *Repo) DeleteExpiredVerificationCodes(ctx context.Context, now time.Time) error {
	return nil
}
