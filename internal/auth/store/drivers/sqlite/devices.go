package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/lumastore/auth/internal/auth/domain"
)

type devicesRepo struct {
	db *sql.DB
}

func (r *devicesRepo) CreateDevice(ctx context.Context, d domain.Device) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO devices (id, user_id, user_agent, ip, last_active, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.UserID, d.UserAgent, d.IP, d.LastActive, d.IsActive, d.CreatedAt,
	)
	return mapConstraint(err)
}

func (r *devicesRepo) GetDeviceByID(ctx context.Context, id string) (domain.Device, error) {
	var d domain.Device
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, user_agent, ip, last_active, is_active, created_at
		FROM devices WHERE id = ?`, id,
	).Scan(&d.ID, &d.UserID, &d.UserAgent, &d.IP, &d.LastActive, &d.IsActive, &d.CreatedAt)
	if err != nil {
		return domain.Device{}, mapNotFound(err)
	}
	return d, nil
}

func (r *devicesRepo) TouchDevice(ctx context.Context, id, ip, userAgent string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE devices SET ip = ?, user_agent = ?, last_active = ?, is_active = TRUE
		WHERE id = ?`,
		ip, userAgent, at, id,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *devicesRepo) DeactivateDevice(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE devices SET is_active = FALSE WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *devicesRepo) ListUserDevices(ctx context.Context, userID string) ([]domain.Device, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, user_agent, ip, last_active, is_active, created_at
		FROM devices WHERE user_id = ?
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Device
	for rows.Next() {
		var d domain.Device
		if err := rows.Scan(&d.ID, &d.UserID, &d.UserAgent, &d.IP, &d.LastActive, &d.IsActive, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}
