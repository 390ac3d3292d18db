package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid token")
	ErrWorkerRequired     = errors.New("installers must be linked to a worker")
	ErrInvalidRole        = errors.New("unknown role")
)
