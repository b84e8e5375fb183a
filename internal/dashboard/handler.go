package dashboard

import (
	"github.com/gin-gonic/gin"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/server/middleware"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/server/respond"
)

// Handler exposes the dashboard endpoint.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches dashboard routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/admin/dashboard", middleware.RequireRole(middleware.RoleAdmin, middleware.RoleManager), h.summary)
}

func (h *Handler) summary(c *gin.Context) {
	sum, err := h.Svc.Summary(c.Request.Context(), middleware.CompanyIDFromContext(c))
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, sum)
}
