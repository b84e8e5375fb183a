package checkup

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/oplog"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/server/middleware"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc    *Service
	Report ReportOptions
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, report ReportOptions) *Handler {
	return &Handler{Svc: svc, Report: report}
}

// RegisterRoutes attaches checkup routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/checkups", h.run)
	rg.GET("/checkups/:id", h.get)
	rg.POST("/checkups/:id/recheck", h.recheck)
	rg.GET("/checkups/:id/report", h.report)
	rg.GET("/projects/:id/checkups", h.listByProject)
}

func (h *Handler) run(c *gin.Context) {
	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	rec, err := h.Svc.Run(c.Request.Context(), middleware.CompanyIDFromContext(c), middleware.UserIDFromContext(c), in)
	if err != nil {
		respond.Err(c, err)
		return
	}
	c.Set(oplog.ResourceIDKey, rec.ID)
	c.Set(middleware.CheckupIDKey, rec.ID)
	c.Set(middleware.ProjectIDKey, rec.ProjectID)
	respond.JSON(c, http.StatusCreated, rec)
}

func (h *Handler) recheck(c *gin.Context) {
	c.Set(middleware.CheckupIDKey, c.Param("id"))
	rec, err := h.Svc.Recheck(c.Request.Context(), middleware.CompanyIDFromContext(c), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.Err(c, err)
		return
	}
	c.Set(oplog.ResourceIDKey, rec.ID)
	respond.JSON(c, http.StatusCreated, rec)
}

func (h *Handler) get(c *gin.Context) {
	c.Set(middleware.CheckupIDKey, c.Param("id"))
	rec, err := h.Svc.Get(c.Request.Context(), middleware.CompanyIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, rec)
}

func (h *Handler) listByProject(c *gin.Context) {
	c.Set(middleware.ProjectIDKey, c.Param("id"))
	limit, offset := respond.Paging(c, 20, 100)
	items, total, err := h.Svc.ListByProject(c.Request.Context(), middleware.CompanyIDFromContext(c), c.Param("id"), ListFilter{
		Status: c.Query("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, gin.H{"items": items, "total": total, "limit": limit, "offset": offset})
}

func (h *Handler) report(c *gin.Context) {
	data, err := h.Svc.Report(c.Request.Context(), middleware.CompanyIDFromContext(c), c.Param("id"), h.Report)
	if err != nil {
		respond.Err(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="checkup-%s.pdf"`, c.Param("id")))
	c.Data(http.StatusOK, "application/pdf", data)
}
