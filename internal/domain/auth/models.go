package auth

import "time"

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleInstaller Role = "installer"
	RolePending   Role = "pending"
)

var Roles = []Role{RoleAdmin, RoleInstaller, RolePending}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleInstaller, RolePending:
		return true
	}
	return false
}

type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	Role         Role       `json:"role"`
	WorkerID     string     `json:"workerId,omitempty"`
	Status       string     `json:"status"`
	PasswordHash string     `json:"-"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Identity is who is calling, resolved once per request. ActingAs is the
// worker an admin is viewing the app as.
type Identity struct {
	UserID   string `json:"userId"`
	Role     Role   `json:"role"`
	WorkerID string `json:"workerId,omitempty"`
	ActingAs string `json:"actingAs,omitempty"`
}

// Effective folds impersonation in: an admin acting as a worker is treated as
// that worker's installer. ActingAs is ignored for everyone else.
func (id Identity) Effective() Identity {
	if id.Role == RoleAdmin && id.ActingAs != "" {
		return Identity{UserID: id.UserID, Role: RoleInstaller, WorkerID: id.ActingAs, ActingAs: id.ActingAs}
	}
	id.ActingAs = ""
	return id
}

func (id Identity) IsAdmin() bool {
	return id.Role == RoleAdmin
}

// Impersonating reports whether an admin is acting as a worker.
func (id Identity) Impersonating() bool {
	return id.ActingAs != ""
}

// CanAccessWorker reports whether the identity may see or change data owned by workerID.
func (id Identity) CanAccessWorker(workerID string) bool {
	return id.Role == RoleAdmin || (id.Role == RoleInstaller && id.WorkerID != "" && id.WorkerID == workerID)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type UpdateUserRequest struct {
	Role     Role   `json:"role" validate:"required,oneof=admin installer pending"`
	WorkerID string `json:"workerId"`
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}
