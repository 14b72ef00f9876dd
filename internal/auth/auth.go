// Package auth provides authentication and authorization functionality.
// This file defines the public API of the auth bounded context.
// Only types and interfaces defined here should be imported by other domains.
package auth

import (
	"context"

	"homni_backend/internal/auth/service"
	"homni_backend/internal/shared/roles"

	"github.com/google/uuid"
)

// RoleAssigner grants roles to existing users. The companies context uses it
// to promote the user who registers a company.
type RoleAssigner interface {
	GrantRole(ctx context.Context, userID uuid.UUID, role roles.Role) error
}

// RoleJanitor removes expired role grants. Run periodically by the scheduler.
type RoleJanitor interface {
	CleanupExpiredRoles(ctx context.Context) (int64, error)
}

var (
	_ RoleAssigner = (*service.Service)(nil)
	_ RoleJanitor  = (*service.Service)(nil)
)
