package handler

import (
	"homni_backend/internal/leads/ports"
	"homni_backend/internal/shared/roles"
	"homni_backend/platform/apperr"
	"homni_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// actor builds the lead actor for the authenticated caller. Company membership
// is looked up per request for every caller, not read from the token roles,
// so a new registration or a removal takes effect without signing in again.
func (h *Handler) actor(c *gin.Context) (ports.Actor, bool) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return ports.Actor{}, false
	}

	actor := ports.Actor{UserID: id.UserID(), Roles: roles.NormalizeAll(id.Roles())}
	companyID, err := h.companies.CompanyIDForUser(c.Request.Context(), actor.UserID)
	if err != nil {
		httpkit.HandleError(c, apperr.Unavailable(err))
		return ports.Actor{}, false
	}
	actor.CompanyID = companyID
	return actor, true
}

// companyActor is actor for routes only company members may use.
func (h *Handler) companyActor(c *gin.Context) (ports.Actor, bool) {
	actor, ok := h.actor(c)
	if !ok {
		return actor, false
	}
	if actor.CompanyID == nil {
		httpkit.HandleError(c, apperr.Forbidden("company membership required"))
		return actor, false
	}
	return actor, true
}
