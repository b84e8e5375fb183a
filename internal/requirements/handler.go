package requirements

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

// RegisterRoutes attaches requirement routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/projects/:id/requirements", h.list)
	rg.GET("/projects/:id/scoring-items", h.scoringItems)
	rg.GET("/requirements/:id", h.get)
	rg.PATCH("/requirements/:id", h.review)
}

func (h *Handler) list(c *gin.Context) {
	c.Set(middleware.ProjectIDKey, c.Param("id"))
	items, err := h.Svc.List(c.Request.Context(), middleware.CompanyIDFromContext(c), c.Param("id"), ListFilter{
		Category: c.Query("category"),
		Status:   c.Query("status"),
	})
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, gin.H{"items": items})
}

func (h *Handler) scoringItems(c *gin.Context) {
	c.Set(middleware.ProjectIDKey, c.Param("id"))
	items, err := h.Svc.ScoringItems(c.Request.Context(), middleware.CompanyIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, gin.H{"items": items})
}

func (h *Handler) get(c *gin.Context) {
	req, err := h.Svc.Get(c.Request.Context(), middleware.CompanyIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, req)
}

type reviewRequest struct {
	Category       *string `json:"category"`
	ParameterName  *string `json:"parameterName"`
	RequiredValue  *string `json:"requiredValue"`
	ExtractedValue *string `json:"extractedValue"`
	Operator       *string `json:"operator"`
	Status         *string `json:"status"`
}

func (h *Handler) review(c *gin.Context) {
	var body reviewRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	req, err := h.Svc.Review(c.Request.Context(), middleware.CompanyIDFromContext(c), middleware.UserIDFromContext(c), c.Param("id"), ReviewInput{
		Category:       body.Category,
		ParameterName:  body.ParameterName,
		RequiredValue:  body.RequiredValue,
		ExtractedValue: body.ExtractedValue,
		Operator:       body.Operator,
		Status:         body.Status,
	})
	if err != nil {
		respond.Err(c, err)
		return
	}
	c.Set(middleware.ProjectIDKey, req.ProjectID)
	respond.OK(c, req)
}
