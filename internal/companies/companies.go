// Package companies provides the company profile bounded context API.
package companies

import (
	"context"

	"github.com/google/uuid"
)

// Directory answers which company a user works for. Other domains depend on
// this interface, not on the concrete service.
type Directory interface {
	// CompanyIDForUser returns nil when the user is not a company member.
	CompanyIDForUser(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error)
}
