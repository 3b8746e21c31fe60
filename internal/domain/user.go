package domain

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// IsValid checks if the role is one of the known roles.
func (r Role) IsValid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// HasPermission reports whether r satisfies the required role.
// Admins satisfy every requirement; customers only their own.
func (r Role) HasPermission(required Role) bool {
	if r == RoleAdmin {
		return true
	}
	return r == required && r.IsValid()
}

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	RegisteredAt time.Time
	UpdatedAt    time.Time
}
