package extraction

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

// RegisterRoutes attaches extraction routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/projects/:id/extractions", h.submit)
	rg.GET("/projects/:id/extractions", h.list)
	rg.GET("/extraction-tasks/:id", h.get)
	rg.POST("/extraction-tasks/:id/cancel", h.cancel)
}

type submitRequest struct {
	DocumentID string `json:"documentId"`
}

func (h *Handler) submit(c *gin.Context) {
	projectID := c.Param("id")
	c.Set(middleware.ProjectIDKey, projectID)

	var req submitRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	task, reused, err := h.Svc.Submit(ctx, middleware.CompanyIDFromContext(c), middleware.UserIDFromContext(c), projectID, req.DocumentID)
	if err != nil {
		respond.Err(c, err)
		return
	}
	c.Set(middleware.TaskIDKey, task.ID)
	respond.JSON(c, http.StatusAccepted, gin.H{
		"taskId": task.ID,
		"status": task.Status,
		"reused": reused,
	})
}

func (h *Handler) list(c *gin.Context) {
	c.Set(middleware.ProjectIDKey, c.Param("id"))
	limit, _ := respond.Paging(c, 20, 100)
	tasks, err := h.Svc.ListByProject(c.Request.Context(), middleware.CompanyIDFromContext(c), c.Param("id"), limit)
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, gin.H{"items": tasks})
}

func (h *Handler) get(c *gin.Context) {
	c.Set(middleware.TaskIDKey, c.Param("id"))
	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	view, err := h.Svc.Get(ctx, middleware.CompanyIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, view)
}

func (h *Handler) cancel(c *gin.Context) {
	c.Set(middleware.TaskIDKey, c.Param("id"))
	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	task, err := h.Svc.Cancel(ctx, middleware.CompanyIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, task)
}
