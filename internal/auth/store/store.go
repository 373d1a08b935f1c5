package store

import (
	"context"
	"errors"
	"time"

	"github.com/lumastore/auth/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement this.
// Sub-repositories keep concerns tidy and individually mockable; services
// translate ErrNotFound/ErrAlreadyExists into domain errors at their own
// boundary.
type Store interface {
	Users() Users
	Roles() Roles
	VerificationCodes() VerificationCodes
	Devices() Devices
	RefreshTokens() RefreshTokens

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is the login/registration lookup.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	// A duplicate email reports ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error

	// UpdateTOTPSecret sets the TOTP secret for a user.
	UpdateTOTPSecret(ctx context.Context, userID, secret string) error

	// ClearTOTPSecret removes the TOTP secret, disabling 2FA.
	ClearTOTPSecret(ctx context.Context, userID string) error

	// UpdateStatus changes the account status.
	UpdateStatus(ctx context.Context, userID, status string) error
}

type Roles interface {
	// GetRoleByID fetches a role by its id.
	GetRoleByID(ctx context.Context, id string) (domain.Role, error)

	// GetRoleByName fetches a role by name (used for the default-role lookup).
	GetRoleByName(ctx context.Context, name string) (domain.Role, error)

	// CreateRole inserts a new role (id is ULID).
	CreateRole(ctx context.Context, r domain.Role) error
}

type VerificationCodes interface {
	// UpsertVerificationCode writes a code keyed by (email, purpose),
	// refreshing code and expiry when a row already exists. At most one live
	// code per purpose per email.
	UpsertVerificationCode(ctx context.Context, c domain.VerificationCode) error

	// GetVerificationCode looks up a code by the (email, code, purpose)
	// triple. Missing records report ErrNotFound; expiry is the caller's
	// check so validation stays side-effect free.
	GetVerificationCode(ctx context.Context, email, code string, purpose domain.CodePurpose) (domain.VerificationCode, error)

	// DeleteVerificationCode consumes a code. Reports ErrNotFound when no
	// row matched, so concurrent consumers cannot both succeed.
	DeleteVerificationCode(ctx context.Context, email, code string, purpose domain.CodePurpose) error

	// DeleteExpiredVerificationCodes is housekeeping only; correctness never
	// depends on it.
	DeleteExpiredVerificationCodes(ctx context.Context, now time.Time) error
}

type Devices interface {
	// CreateDevice inserts a new device row. One row per login, no dedup.
	CreateDevice(ctx context.Context, d domain.Device) error

	// GetDeviceByID returns a device by id.
	GetDeviceByID(ctx context.Context, id string) (domain.Device, error)

	// TouchDevice refreshes ip/user-agent/last_active on token refresh.
	TouchDevice(ctx context.Context, id, ip, userAgent string, at time.Time) error

	// DeactivateDevice flips is_active off at logout. The row stays as an
	// audit record.
	DeactivateDevice(ctx context.Context, id string) error

	// ListUserDevices returns a user's devices, newest first.
	ListUserDevices(ctx context.Context, userID string) ([]domain.Device, error)
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new refresh token record.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash returns the row for a token fingerprint.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// DeleteRefreshToken removes the row for a token fingerprint. Reports
	// ErrNotFound when no row was deleted; under concurrent redemption of
	// the same token exactly one caller observes success.
	DeleteRefreshToken(ctx context.Context, hash string) error

	// DeleteUserRefreshTokens revokes every outstanding session for a user
	// (e.g. after a password reset).
	DeleteUserRefreshTokens(ctx context.Context, userID string) error

	// CountUserRefreshTokens reports the number of live rows for a user.
	CountUserRefreshTokens(ctx context.Context, userID string) (int, error)

	// DeleteExpiredRefreshTokens is housekeeping only.
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) error
}
