package oplog

import (
	"net/http"
	"time"

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

// RegisterRoutes attaches log routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/operation-logs", middleware.RequireRole(middleware.RoleAdmin, middleware.RoleManager), h.list)
}

func (h *Handler) list(c *gin.Context) {
	limit, offset := respond.Paging(c, 50, 200)
	filter := ListFilter{
		UserID:        c.Query("userId"),
		OperationType: c.Query("operationType"),
		ResourceType:  c.Query("resourceType"),
		Limit:         limit,
		Offset:        offset,
	}
	for key, dst := range map[string]*time.Time{"since": &filter.Since, "until": &filter.Until} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", key+" must be an RFC3339 timestamp", nil)
			return
		}
		*dst = t
	}
	items, total, err := h.Svc.List(c.Request.Context(), middleware.CompanyIDFromContext(c), filter)
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, gin.H{"items": items, "total": total, "limit": limit, "offset": offset})
}
