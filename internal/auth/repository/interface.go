package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuthRepository defines the user and role persistence the auth service uses.
type AuthRepository interface {
	// User operations
	CreateUser(ctx context.Context, email, passwordHash, fullName, defaultRole string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (User, error)

	// Role operations
	GetUserRoles(ctx context.Context, userID uuid.UUID) ([]string, error)
	GrantRole(ctx context.Context, userID uuid.UUID, role string) error
	SetUserRoles(ctx context.Context, userID uuid.UUID, grants []RoleGrant) error
	CleanupExpiredRoles(ctx context.Context, now time.Time) (int64, error)
}

// Ensure Repository implements AuthRepository
var _ AuthRepository = (*Repository)(nil)
