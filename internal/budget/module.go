package budget

import (
	apphttp "homni_backend/internal/http"
	"homni_backend/platform/validator"
)

// Module exposes the tracker over HTTP.
type Module struct {
	tracker *Tracker
	handler *Handler
}

func NewModule(tracker *Tracker, companies CompanyLookup, val *validator.Validator) *Module {
	return &Module{
		tracker: tracker,
		handler: NewHandler(tracker, companies, val),
	}
}

func (m *Module) Name() string {
	return "budget"
}

func (m *Module) Tracker() *Tracker {
	return m.tracker
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/companies"))
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/companies"))
}

var _ apphttp.Module = (*Module)(nil)
