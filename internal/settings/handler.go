package settings

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/server/middleware"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches admin settings routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	admin := rg.Group("/admin/settings", middleware.RequireRole(middleware.RoleAdmin))
	admin.GET("", h.get)
	admin.PUT("", h.save)
	admin.POST("/reset", h.reset)
}

func (h *Handler) get(c *gin.Context) {
	respond.OK(c, h.Svc.Current().Redacted())
}

func (h *Handler) save(c *gin.Context) {
	next := h.Svc.Current()
	if err := c.ShouldBindJSON(&next); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	saved, err := h.Svc.Save(c.Request.Context(), middleware.UserIDFromContext(c), next)
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, saved.Redacted())
}

func (h *Handler) reset(c *gin.Context) {
	def, err := h.Svc.Reset(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, def)
}
