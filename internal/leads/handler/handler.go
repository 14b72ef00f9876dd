package handler

import (
	"net/http"

	"homni_backend/internal/leads/access"
	"homni_backend/internal/leads/distribution"
	"homni_backend/internal/leads/domain"
	"homni_backend/internal/leads/management"
	"homni_backend/internal/leads/ports"
	"homni_backend/internal/leads/transitions"
	"homni_backend/internal/leads/transport"
	"homni_backend/platform/httpkit"
	"homni_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidLeadID    = "invalid lead id"
)

type Handler struct {
	mgmt        *management.Service
	transitions *transitions.Service
	purchases   *access.Service
	resolver    *access.Resolver
	engine      *distribution.Engine
	companies   ports.CompanyResolver
	val         *validator.Validator
}

type Deps struct {
	Management  *management.Service
	Transitions *transitions.Service
	Purchases   *access.Service
	Resolver    *access.Resolver
	Engine      *distribution.Engine
	Companies   ports.CompanyResolver
	Validator   *validator.Validator
}

func New(d Deps) *Handler {
	return &Handler{
		mgmt:        d.Management,
		transitions: d.Transitions,
		purchases:   d.Purchases,
		resolver:    d.Resolver,
		engine:      d.Engine,
		companies:   d.Companies,
		val:         d.Validator,
	}
}

// RegisterRoutes mounts the authenticated lead routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/my", h.ListMine)
	rg.GET("/:id", h.GetByID)
	rg.PATCH("/:id/status", h.UpdateStatus)
	rg.GET("/:id/access", h.GetAccess)
	rg.POST("/:id/access/refresh", h.RefreshAccess)
	rg.POST("/:id/purchase", h.Purchase)
	rg.GET("/:id/history", h.History)
}

// RegisterAdminRoutes mounts distribution controls.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/distribute", h.DistributeAll)
	rg.POST("/:id/distribute", h.DistributeOne)
}

// PublicCreate accepts the public lead form. A bearer token is optional; when
// present the lead is attributed to that user.
func (h *Handler) PublicCreate(c *gin.Context) {
	var submittedBy *uuid.UUID
	if id := httpkit.GetIdentity(c); id.IsAuthenticated() {
		uid := id.UserID()
		submittedBy = &uid
	}
	h.create(c, submittedBy)
}

func (h *Handler) Create(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	uid := id.UserID()
	h.create(c, &uid)
}

func (h *Handler) create(c *gin.Context, submittedBy *uuid.UUID) {
	var req transport.CreateLeadRequest
	if !h.bind(c, &req) {
		return
	}

	lead, err := h.mgmt.Create(c.Request.Context(), req, submittedBy)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, lead)
}

func (h *Handler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req transport.ListLeadsRequest
	if !h.bindQuery(c, &req) {
		return
	}

	result, err := h.mgmt.List(c.Request.Context(), req, actor)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) ListMine(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req transport.ListLeadsRequest
	if !h.bindQuery(c, &req) {
		return
	}

	result, err := h.mgmt.ListMine(c.Request.Context(), req, actor)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) GetByID(c *gin.Context) {
	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	lead, err := h.mgmt.GetByID(c.Request.Context(), leadID, actor)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}
	var req transport.UpdateStatusRequest
	if !h.bind(c, &req) {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	lead, err := h.transitions.UpdateStatus(c.Request.Context(), leadID, req.Status, actor)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, management.ToLeadResponse(lead, h.viewLevel(c, lead.ID, actor)))
}

func (h *Handler) GetAccess(c *gin.Context) {
	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	result, err := h.mgmt.AccessLevel(c.Request.Context(), leadID, actor)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) RefreshAccess(c *gin.Context) {
	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}
	actor, ok := h.companyActor(c)
	if !ok {
		return
	}

	level := h.resolver.Refresh(c.Request.Context(), leadID, *actor.CompanyID)
	httpkit.OK(c, transport.AccessResponse{LeadID: leadID, CompanyID: actor.CompanyID, Level: string(level)})
}

func (h *Handler) Purchase(c *gin.Context) {
	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}
	var req transport.PurchaseAccessRequest
	if !h.bind(c, &req) {
		return
	}
	actor, ok := h.companyActor(c)
	if !ok {
		return
	}

	result, err := h.purchases.PurchaseAccess(c.Request.Context(), leadID, *actor.CompanyID, domain.AccessLevel(req.Level))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.PurchaseAccessResponse{
		LeadID:    leadID,
		Level:     string(result.Level),
		Charged:   result.Charged,
		ExpiresAt: result.ExpiresAt,
	})
}

func (h *Handler) History(c *gin.Context) {
	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	history, err := h.mgmt.History(c.Request.Context(), leadID, actor)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, history)
}

func (h *Handler) DistributeAll(c *gin.Context) {
	result, err := h.engine.DistributeLeads(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	leads := make([]transport.LeadResponse, 0, len(result.Leads))
	for _, lead := range result.Leads {
		leads = append(leads, management.ToLeadResponse(lead, domain.AccessFull))
	}
	httpkit.OK(c, transport.DistributeResponse{
		AssignedCount: result.AssignedCount,
		Skipped:       result.Skipped,
		Failed:        result.Failed,
		Leads:         leads,
	})
}

func (h *Handler) DistributeOne(c *gin.Context) {
	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}

	companyID, err := h.engine.DistributeByID(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.DistributeOneResponse{LeadID: leadID, Assigned: companyID != nil, CompanyID: companyID})
}

// viewLevel is the level used to render a lead back to the actor who just
// changed it.
func (h *Handler) viewLevel(c *gin.Context, leadID uuid.UUID, actor ports.Actor) domain.AccessLevel {
	if actor.IsAdmin() || actor.CompanyID == nil {
		return domain.AccessFull
	}
	return h.resolver.Resolve(c.Request.Context(), leadID, *actor.CompanyID)
}

func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Fields(err))
		return false
	}
	return true
}

func (h *Handler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Fields(err))
		return false
	}
	return true
}

func parseLeadID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidLeadID, nil)
		return uuid.Nil, false
	}
	return id, true
}
