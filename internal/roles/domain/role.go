package domain

import "time"

// Role is a flat application role. The set is closed.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleUser:
		return true
	}
	return false
}

// Assignment links a user to a role.
type Assignment struct {
	ID        string
	UserID    string
	Role      Role
	CreatedAt time.Time
}
