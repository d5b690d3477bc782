package domain

import "time"

// Role is the coarse permission class controlling ticket visibility.
type Role string

const (
	RoleUser       Role = "usuario"
	RoleTechnician Role = "tecnico"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleTechnician, RoleAdmin:
		return true
	}
	return false
}

// Privileged reports whether r sees every ticket.
func (r Role) Privileged() bool {
	return r == RoleTechnician || r == RoleAdmin
}

// User is a person who opens tickets or works on them. Users are provisioned
// out-of-band.
type User struct {
	ID           int64
	Name         string
	Email        string
	Role         Role
	PasswordHash string
	CreatedAt    time.Time
}
