package domain

import "time"

// User account statuses.
const (
	UserStatusActive   = "ACTIVE"
	UserStatusInactive = "INACTIVE"
	UserStatusBlocked  = "BLOCKED"
)

type User struct {
	ID           string
	Email        string
	Name         string
	PhoneNumber  string
	PasswordHash string  // argon2id encoded
	RoleID       string  // foreign key to roles
	TOTPSecret   *string // base32 TOTP secret, nil when 2FA is disabled
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TwoFactorEnabled reports whether the user has a provisioned TOTP secret.
func (u User) TwoFactorEnabled() bool {
	return u.TOTPSecret != nil && *u.TOTPSecret != ""
}

// Summary is the externally visible projection of a user. Password hash and
// TOTP secret never leave the service.
type Summary struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	RoleID      string `json:"roleId"`
	Status      string `json:"status"`
}

// Summary strips the credential material from a user.
func (u User) Summary() Summary {
	return Summary{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		PhoneNumber: u.PhoneNumber,
		RoleID:      u.RoleID,
		Status:      u.Status,
	}
}
