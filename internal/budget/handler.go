package budget

import (
	"context"
	"net/http"
	"strconv"

	"homni_backend/internal/budget/repository"
	"homni_backend/platform/apperr"
	"homni_backend/platform/httpkit"
	"homni_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CompanyLookup resolves the company of the calling user.
type CompanyLookup interface {
	CompanyIDForUser(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error)
}

// SetLimitsRequest replaces the budget amounts (øre).
type SetLimitsRequest struct {
	CurrentBudget int64 `json:"currentBudget" validate:"min=0"`
	DailyBudget   int64 `json:"dailyBudget" validate:"min=0"`
	MonthlyBudget int64 `json:"monthlyBudget" validate:"min=0"`
}

// RecordSpendRequest records a manual spend (øre).
type RecordSpendRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

type TransactionListResponse struct {
	Items []repository.Transaction `json:"items"`
}

type Handler struct {
	tracker   *Tracker
	companies CompanyLookup
	val       *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"

	defaultTransactionLimit = 50
	maxTransactionLimit     = 500
)

func NewHandler(tracker *Tracker, companies CompanyLookup, val *validator.Validator) *Handler {
	return &Handler{tracker: tracker, companies: companies, val: val}
}

// RegisterRoutes mounts the company self-service route on /companies.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me/budget", h.GetMine)
}

// RegisterAdminRoutes mounts budget administration on /admin/companies.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id/budget", h.Get)
	rg.PUT("/:id/budget", h.SetLimits)
	rg.POST("/:id/budget/spend", h.RecordSpend)
	rg.GET("/:id/budget/transactions", h.ListTransactions)
}

func (h *Handler) GetMine(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	companyID, err := h.companies.CompanyIDForUser(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	if companyID == nil {
		httpkit.HandleError(c, apperr.Forbidden("no company membership"))
		return
	}

	status, err := h.tracker.GetBudgetStatus(c.Request.Context(), *companyID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, status)
}

func (h *Handler) Get(c *gin.Context) {
	companyID, ok := parseCompanyID(c)
	if !ok {
		return
	}

	status, err := h.tracker.GetBudgetStatus(c.Request.Context(), companyID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, status)
}

func (h *Handler) SetLimits(c *gin.Context) {
	companyID, ok := parseCompanyID(c)
	if !ok {
		return
	}

	var req SetLimitsRequest
	if !h.bind(c, &req) {
		return
	}

	status, err := h.tracker.SetLimits(c.Request.Context(), companyID, repository.Limits{
		CurrentBudget: req.CurrentBudget,
		DailyBudget:   req.DailyBudget,
		MonthlyBudget: req.MonthlyBudget,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, status)
}

func (h *Handler) RecordSpend(c *gin.Context) {
	companyID, ok := parseCompanyID(c)
	if !ok {
		return
	}

	var req RecordSpendRequest
	if !h.bind(c, &req) {
		return
	}

	status, err := h.tracker.RecordSpend(c.Request.Context(), companyID, req.Amount)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, status)
}

func (h *Handler) ListTransactions(c *gin.Context) {
	companyID, ok := parseCompanyID(c)
	if !ok {
		return
	}

	limit := defaultTransactionLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		limit = min(n, maxTransactionLimit)
	}

	items, err := h.tracker.ListTransactions(c.Request.Context(), companyID, limit)
	if httpkit.HandleError(c, err) {
		return
	}
	if items == nil {
		items = []repository.Transaction{}
	}
	httpkit.OK(c, TransactionListResponse{Items: items})
}

func (h *Handler) bind(c *gin.Context, req interface{}) bool {
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

func parseCompanyID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.UUID{}, false
	}
	return id, true
}
