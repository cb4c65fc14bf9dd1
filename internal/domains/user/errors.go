package user

import "errors"

// Repository-level errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrUserDeleted        = errors.New("user account has been deleted")
)

// Service-level errors
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInvalidRole        = errors.New("invalid user role")
	ErrCannotDeleteSelf   = errors.New("admins cannot delete their own account")
	ErrForbidden          = errors.New("not allowed to view this user")
)
