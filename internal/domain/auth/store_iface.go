package auth

import "context"

type StoreAPI interface {
	FindActiveUserByEmail(ctx context.Context, email string) (User, error)
	GetUser(ctx context.Context, userID string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	CreateUser(ctx context.Context, user User) (string, error)
	UpdateUserRole(ctx context.Context, userID string, role Role, workerID string) error
	UpdateLastLogin(ctx context.Context, userID string) error
}
