package domain

import "time"

// Device binds a login event to client metadata. One device row is created
// per login and is the binding context for a refresh-token family. Rows are
// never deleted; deactivated devices remain as an audit trail.
type Device struct {
	ID         string
	UserID     string
	UserAgent  string
	IP         string
	LastActive time.Time
	IsActive   bool
	CreatedAt  time.Time
}
