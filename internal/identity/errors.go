package identity

import "errors"

// Domain errors for identity module.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("insufficient permissions")
	ErrSelfDelete         = errors.New("cannot delete your own account")
	ErrMissingUserID      = errors.New("user id not provided")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
)
