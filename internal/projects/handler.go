package projects

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

// RegisterRoutes attaches project routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/projects", h.create)
	rg.GET("/projects", h.list)
	rg.GET("/projects/:id", h.get)
	rg.PUT("/projects/:id", h.update)
	rg.DELETE("/projects/:id", middleware.RequireRole(middleware.RoleAdmin, middleware.RoleManager), h.delete)
	rg.POST("/projects/:id/seal", middleware.RequireRole(middleware.RoleAdmin, middleware.RoleManager), h.seal)
}

type createRequest struct {
	Name        string     `json:"name"`
	Purchaser   string     `json:"purchaser"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline"`
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	p, err := h.Svc.Create(c.Request.Context(), middleware.CompanyIDFromContext(c), middleware.UserIDFromContext(c), CreateInput{
		Name:        req.Name,
		Purchaser:   req.Purchaser,
		Description: req.Description,
		Deadline:    req.Deadline,
	})
	if err != nil {
		respond.Err(c, err)
		return
	}
	c.Set(middleware.ProjectIDKey, p.ID)
	respond.JSON(c, http.StatusCreated, p)
}

func (h *Handler) list(c *gin.Context) {
	limit, offset := respond.Paging(c, 20, 100)
	items, err := h.Svc.List(c.Request.Context(), middleware.CompanyIDFromContext(c), ListFilter{
		Status: c.Query("status"),
		Query:  c.Query("q"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, gin.H{"items": items, "limit": limit, "offset": offset})
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.Svc.Get(c.Request.Context(), middleware.CompanyIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, p)
}

type updateRequest struct {
	Name        *string    `json:"name"`
	Purchaser   *string    `json:"purchaser"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Deadline    *time.Time `json:"deadline"`
}

func (h *Handler) update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	c.Set(middleware.ProjectIDKey, c.Param("id"))
	p, err := h.Svc.Update(c.Request.Context(), middleware.CompanyIDFromContext(c), c.Param("id"), UpdateInput(req))
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, p)
}

func (h *Handler) delete(c *gin.Context) {
	c.Set(middleware.ProjectIDKey, c.Param("id"))
	if err := h.Svc.Delete(c.Request.Context(), middleware.CompanyIDFromContext(c), c.Param("id")); err != nil {
		respond.Err(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) seal(c *gin.Context) {
	c.Set(middleware.ProjectIDKey, c.Param("id"))
	p, err := h.Svc.Seal(c.Request.Context(), middleware.CompanyIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, p)
}
