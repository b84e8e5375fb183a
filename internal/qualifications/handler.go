package qualifications

import (
	"net/http"
	"strconv"

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

// RegisterRoutes attaches qualification routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	writers := middleware.RequireRole(middleware.RoleAdmin, middleware.RoleManager)
	rg.GET("/qualifications", h.list)
	rg.POST("/qualifications", writers, h.create)
	rg.GET("/qualifications/stats", h.stats)
	rg.POST("/qualifications/scan", writers, h.scan)
	rg.GET("/qualifications/:id", h.get)
	rg.PUT("/qualifications/:id", writers, h.update)
	rg.DELETE("/qualifications/:id", writers, h.delete)
}

func (h *Handler) list(c *gin.Context) {
	q := Query{
		ListFilter: ListFilter{ProductModel: c.Query("productModel"), Query: c.Query("q")},
		Status:     c.Query("status"),
	}
	if raw := c.Query("withinDays"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 0 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "withinDays must be a non-negative integer", nil)
			return
		}
		q.WithinDays = &days
	}
	items, err := h.Svc.List(c.Request.Context(), middleware.CompanyIDFromContext(c), q)
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, gin.H{"items": items})
}

func (h *Handler) stats(c *gin.Context) {
	st, err := h.Svc.Stats(c.Request.Context(), middleware.CompanyIDFromContext(c))
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, st)
}

func (h *Handler) scan(c *gin.Context) {
	res, err := h.Svc.Scan(c.Request.Context(), middleware.CompanyIDFromContext(c))
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, res)
}

func (h *Handler) create(c *gin.Context) {
	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	ev, err := h.Svc.Create(c.Request.Context(), middleware.CompanyIDFromContext(c), in)
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, ev)
}

func (h *Handler) get(c *gin.Context) {
	ev, err := h.Svc.Get(c.Request.Context(), middleware.CompanyIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, ev)
}

func (h *Handler) update(c *gin.Context) {
	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	ev, err := h.Svc.Update(c.Request.Context(), middleware.CompanyIDFromContext(c), c.Param("id"), in)
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, ev)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), middleware.CompanyIDFromContext(c), c.Param("id")); err != nil {
		respond.Err(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
