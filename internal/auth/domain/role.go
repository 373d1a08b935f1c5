package domain

import "time"

// Built-in role names. Every self-registered account lands in RoleClient.
const (
	RoleClient = "client"
	RoleAdmin  = "admin"
)

type Role struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
