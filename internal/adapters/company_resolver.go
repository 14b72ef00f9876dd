package adapters

import (
	"context"

	"homni_backend/internal/budget"
	"homni_backend/internal/companies"
	"homni_backend/internal/leads/ports"

	"github.com/google/uuid"
)

// CompanyResolver answers company membership for leads and budget from the
// companies directory.
type CompanyResolver struct {
	dir companies.Directory
}

func NewCompanyResolver(dir companies.Directory) *CompanyResolver {
	return &CompanyResolver{dir: dir}
}

func (r *CompanyResolver) CompanyIDForUser(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error) {
	return r.dir.CompanyIDForUser(ctx, userID)
}

var (
	_ ports.CompanyResolver = (*CompanyResolver)(nil)
	_ budget.CompanyLookup  = (*CompanyResolver)(nil)
)
