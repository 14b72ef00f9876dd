package system

import (
	"net/http"

	"homni_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	checker *Checker
}

func NewHandler(checker *Checker) *Handler {
	return &Handler{checker: checker}
}

// Health answers 503 only when a check is unhealthy; degraded still serves.
func (h *Handler) Health(c *gin.Context) {
	report := h.checker.Check(c.Request.Context())

	status := http.StatusOK
	if report.Status == StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	httpkit.JSON(c, status, report)
}
