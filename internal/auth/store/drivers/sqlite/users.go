package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/lumastore/auth/internal/auth/domain"
)

type usersRepo struct {
	db *sql.DB
}

const userColumns = `id, email, name, phone_number, password_hash, role_id, totp_secret, status, created_at, updated_at`

func scanUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	var totpSecret sql.NullString
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.PhoneNumber, &u.PasswordHash,
		&u.RoleID, &totpSecret, &u.Status, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.TOTPSecret = mapNullString(totpSecret)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, phone_number, password_hash, role_id, totp_secret, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.PhoneNumber, u.PasswordHash,
		u.RoleID, mapOptionalString(u.TOTPSecret), u.Status, u.CreatedAt, u.UpdatedAt,
	)
	return mapConstraint(err)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	return r.updateUser(ctx, userID, `password_hash = ?`, newHash)
}

func (r *usersRepo) UpdateTOTPSecret(ctx context.Context, userID, secret string) error {
	return r.updateUser(ctx, userID, `totp_secret = ?`, secret)
}

func (r *usersRepo) ClearTOTPSecret(ctx context.Context, userID string) error {
	return r.updateUser(ctx, userID, `totp_secret = NULL`)
}

func (r *usersRepo) UpdateStatus(ctx context.Context, userID, status string) error {
	return r.updateUser(ctx, userID, `status = ?`, status)
}

func (r *usersRepo) updateUser(ctx context.Context, userID, set string, args ...any) error {
	args = append(args, time.Now().UTC(), userID)
	res, err := r.db.ExecContext(ctx, `UPDATE users SET `+set+`, updated_at = ? WHERE id = ?`, args...)
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
