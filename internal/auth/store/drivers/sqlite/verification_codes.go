package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/lumastore/auth/internal/auth/domain"
)

type verificationCodesRepo struct {
	db *sql.DB
}

func (r *verificationCodesRepo) UpsertVerificationCode(ctx context.Context, c domain.VerificationCode) error {
	// (email, purpose) is unique, so re-issuing replaces the live code and
	// its expiry in place.
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO verification_codes (id, email, code, purpose, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (email, purpose) DO UPDATE SET
			code = excluded.code,
			expires_at = excluded.expires_at`,
		c.ID, c.Email, c.Code, string(c.Purpose), c.ExpiresAt, c.CreatedAt,
	)
	return err
}

func (r *verificationCodesRepo) GetVerificationCode(
	ctx context.Context,
	email, code string,
	purpose domain.CodePurpose,
) (domain.VerificationCode, error) {
	var c domain.VerificationCode
	var p string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, code, purpose, expires_at, created_at
		FROM verification_codes
		WHERE email = ? AND code = ? AND purpose = ?`,
		email, code, string(purpose),
	).Scan(&c.ID, &c.Email, &c.Code, &p, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		return domain.VerificationCode{}, mapNotFound(err)
	}
	c.Purpose = domain.CodePurpose(p)
	return c, nil
}

func (r *verificationCodesRepo) DeleteVerificationCode(
	ctx context.Context,
	email, code string,
	purpose domain.CodePurpose,
) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM verification_codes
		WHERE email = ? AND code = ? AND purpose = ?`,
		email, code, string(purpose),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}

func (r *verificationCodesRepo) DeleteExpiredVerificationCodes(ctx context.Context, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM verification_codes WHERE expires_at < ?`, now)
	return err
}
