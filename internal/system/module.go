package system

import (
	apphttp "homni_backend/internal/http"
	"homni_backend/platform/logger"
)

type Module struct {
	handler *Handler
}

func NewModule(db Database, errors ErrorCounter, log *logger.Logger) *Module {
	return &Module{handler: NewHandler(NewChecker(db, errors, log))}
}

func (m *Module) Name() string {
	return "system"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Engine.GET("/api/health", m.handler.Health)
	ctx.Admin.GET("/system/health", m.handler.Health)
}

var _ apphttp.Module = (*Module)(nil)
