// Package companies provides the company bounded context module.
package companies

import (
	apphttp "homni_backend/internal/http"
	"homni_backend/internal/companies/handler"
	"homni_backend/internal/companies/repository"
	"homni_backend/internal/companies/service"
	"homni_backend/platform/logger"
	"homni_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
}

func NewModule(pool *pgxpool.Pool, granter service.RoleGranter, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, granter, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

func (m *Module) Name() string {
	return "companies"
}

func (m *Module) Service() *service.Service {
	return m.service
}

// Directory exposes company membership lookups to other contexts.
func (m *Module) Directory() Directory {
	return m.service
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/companies"))
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/companies"))
}

var _ apphttp.Module = (*Module)(nil)
