package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

type Service struct {
	store  StoreAPI
	secret string
	ttl    time.Duration
	now    func() time.Time
}

func NewService(store StoreAPI, secret string, ttl time.Duration) *Service {
	return &Service{store: store, secret: secret, ttl: ttl, now: time.Now}
}

// Login checks the password and issues a bearer token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	user, err := s.store.FindActiveUserByEmail(ctx, strings.TrimSpace(req.Email))
	if errors.Is(err, ErrUserNotFound) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, err
	}
	if err := CheckPassword(user.PasswordHash, req.Password); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}
	token, expires, err := GenerateToken(s.secret, Claims{UserID: user.ID, Role: user.Role, WorkerID: user.WorkerID}, s.ttl, s.now())
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.store.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("last login update failed", "userId", user.ID, "err", err)
	}
	return LoginResult{Token: token, ExpiresAt: expires, User: user}, nil
}

// Register creates a pending account. An admin has to assign a role before
// it can do anything but read its own profile.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (User, error) {
	hash, err := HashPassword(req.Password)
	if err != nil {
		return User{}, err
	}
	user := User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         strings.TrimSpace(req.Name),
		Role:         RolePending,
		Status:       UserStatusActive,
		PasswordHash: hash,
	}
	id, err := s.store.CreateUser(ctx, user)
	if err != nil {
		return User{}, err
	}
	return s.store.GetUser(ctx, id)
}

// Authenticate turns a bearer token into an identity. The role is read from
// the store so role changes apply without a new login.
func (s *Service) Authenticate(ctx context.Context, token string) (Identity, error) {
	claims, err := ParseToken(s.secret, token)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		return Identity{}, err
	}
	if user.Status != UserStatusActive {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UserID: user.ID, Role: user.Role, WorkerID: user.WorkerID}, nil
}

func (s *Service) Me(ctx context.Context, userID string) (User, error) {
	return s.store.GetUser(ctx, userID)
}

func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.store.ListUsers(ctx)
}

// UpdateUser assigns a role. Installers must be bound to a worker record;
// pending accounts never are.
func (s *Service) UpdateUser(ctx context.Context, userID string, req UpdateUserRequest) (User, error) {
	if !req.Role.Valid() {
		return User{}, ErrInvalidRole
	}
	if req.Role == RoleInstaller && req.WorkerID == "" {
		return User{}, ErrWorkerRequired
	}
	if req.Role == RolePending {
		req.WorkerID = ""
	}
	if err := s.store.UpdateUserRole(ctx, userID, req.Role, req.WorkerID); err != nil {
		return User{}, err
	}
	return s.store.GetUser(ctx, userID)
}
