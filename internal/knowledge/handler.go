package knowledge

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/oplog"
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

// RegisterRoutes attaches knowledge-base routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	writers := middleware.RequireRole(middleware.RoleAdmin, middleware.RoleManager)
	rg.GET("/knowledge-chunks", h.list)
	rg.POST("/knowledge-chunks", writers, h.create)
	rg.GET("/knowledge-chunks/:id", h.get)
	rg.PUT("/knowledge-chunks/:id", writers, h.update)
	rg.DELETE("/knowledge-chunks/:id", writers, h.delete)
}

func (h *Handler) list(c *gin.Context) {
	limit, offset := respond.Paging(c, 50, 200)
	items, err := h.Svc.List(c.Request.Context(), middleware.CompanyIDFromContext(c), ListFilter{
		Category: c.Query("category"),
		Tag:      c.Query("tag"),
		Query:    c.Query("q"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, gin.H{"items": items, "limit": limit, "offset": offset})
}

func (h *Handler) create(c *gin.Context) {
	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	chunk, err := h.Svc.Create(c.Request.Context(), middleware.CompanyIDFromContext(c), middleware.UserIDFromContext(c), in)
	if err != nil {
		respond.Err(c, err)
		return
	}
	c.Set(oplog.ResourceIDKey, chunk.ID)
	respond.JSON(c, http.StatusCreated, chunk)
}

func (h *Handler) get(c *gin.Context) {
	chunk, err := h.Svc.Get(c.Request.Context(), middleware.CompanyIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, chunk)
}

func (h *Handler) update(c *gin.Context) {
	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	chunk, err := h.Svc.Update(c.Request.Context(), middleware.CompanyIDFromContext(c), c.Param("id"), in)
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, chunk)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), middleware.CompanyIDFromContext(c), c.Param("id")); err != nil {
		respond.Err(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
