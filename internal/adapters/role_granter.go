package adapters

import (
	"context"

	"homni_backend/internal/auth"
	companysvc "homni_backend/internal/companies/service"
	"homni_backend/internal/shared/roles"

	"github.com/google/uuid"
)

// RoleGranter lets the companies context promote a registering user.
type RoleGranter struct {
	users auth.RoleAssigner
}

func NewRoleGranter(users auth.RoleAssigner) *RoleGranter {
	return &RoleGranter{users: users}
}

func (g *RoleGranter) GrantRole(ctx context.Context, userID uuid.UUID, role roles.Role) error {
	return g.users.GrantRole(ctx, userID, role)
}

var _ companysvc.RoleGranter = (*RoleGranter)(nil)
