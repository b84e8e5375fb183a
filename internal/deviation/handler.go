package deviation

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/server/middleware"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/server/respond"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches deviation routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/projects/:id/deviations", h.evaluate)
	rg.GET("/projects/:id/deviations", h.list)
	rg.POST("/projects/:id/deviations/compare", h.compare)
	rg.GET("/projects/:id/deviations/export", h.export)
	rg.PATCH("/deviations/:id", h.updateRemark)
}

type evaluateRequest struct {
	ProductModel string `json:"productModel"`
}

func (h *Handler) evaluate(c *gin.Context) {
	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	res, err := h.Svc.Evaluate(c.Request.Context(), middleware.CompanyIDFromContext(c), c.Param("id"), req.ProductModel)
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, res)
}

func (h *Handler) list(c *gin.Context) {
	res, err := h.Svc.List(c.Request.Context(), middleware.CompanyIDFromContext(c), c.Param("id"), c.Query("productModel"))
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, res)
}

type compareRequest struct {
	ProductModels []string `json:"productModels"`
}

func (h *Handler) compare(c *gin.Context) {
	var req compareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	items, err := h.Svc.Compare(c.Request.Context(), middleware.CompanyIDFromContext(c), c.Param("id"), req.ProductModels)
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, gin.H{"items": items})
}

func (h *Handler) export(c *gin.Context) {
	data, err := h.Svc.Export(c.Request.Context(), middleware.CompanyIDFromContext(c), c.Param("id"), c.Query("productModel"))
	if err != nil {
		respond.Err(c, err)
		return
	}
	name := "技术偏离表.xlsx"
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="deviations.xlsx"; filename*=UTF-8''%s`, url.PathEscape(name)))
	c.Data(http.StatusOK, xlsxContentType, data)
}

type remarkRequest struct {
	Remark *string `json:"remark"`
}

func (h *Handler) updateRemark(c *gin.Context) {
	var req remarkRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Remark == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "remark is required", nil)
		return
	}
	rec, err := h.Svc.UpdateRemark(c.Request.Context(), middleware.CompanyIDFromContext(c), c.Param("id"), *req.Remark)
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, rec)
}
