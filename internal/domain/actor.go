package domain

// Actor identifies the caller of a service operation.
type Actor struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.UserID != "" && a.Role == RoleAdmin
}
