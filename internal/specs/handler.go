package specs

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/server/middleware"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/server/respond"
)

const (
	maxWorkbookBytes = 10 << 20
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches catalog routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	writers := middleware.RequireRole(middleware.RoleAdmin, middleware.RoleManager)
	rg.GET("/product-models", h.models)
	rg.GET("/product-specs", h.list)
	rg.POST("/product-specs", writers, h.create)
	rg.GET("/product-specs/template", h.template)
	rg.POST("/product-specs/import", writers, h.importWorkbook)
	rg.GET("/product-specs/:id", h.get)
	rg.PUT("/product-specs/:id", writers, h.update)
	rg.DELETE("/product-specs/:id", writers, h.delete)
}

func (h *Handler) list(c *gin.Context) {
	limit, offset := respond.Paging(c, 50, 500)
	items, err := h.Svc.List(c.Request.Context(), middleware.CompanyIDFromContext(c), ListFilter{
		ProductModel: c.Query("productModel"),
		Category:     c.Query("category"),
		Query:        c.Query("q"),
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, gin.H{"items": items, "limit": limit, "offset": offset})
}

func (h *Handler) models(c *gin.Context) {
	items, err := h.Svc.Models(c.Request.Context(), middleware.CompanyIDFromContext(c))
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, gin.H{"items": items})
}

func (h *Handler) create(c *gin.Context) {
	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	e, err := h.Svc.Create(c.Request.Context(), middleware.CompanyIDFromContext(c), in)
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, e)
}

func (h *Handler) get(c *gin.Context) {
	e, err := h.Svc.Get(c.Request.Context(), middleware.CompanyIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, e)
}

func (h *Handler) update(c *gin.Context) {
	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	e, err := h.Svc.Update(c.Request.Context(), middleware.CompanyIDFromContext(c), c.Param("id"), in)
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, e)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), middleware.CompanyIDFromContext(c), c.Param("id")); err != nil {
		respond.Err(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) template(c *gin.Context) {
	data, err := Template()
	if err != nil {
		respond.Err(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="product-specs-template.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (h *Handler) importWorkbook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWorkbookBytes)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
		respond.Error(c, http.StatusBadRequest, CodeInvalidWorkbook, "only .xlsx workbooks are supported", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	res, err := h.Svc.Import(c.Request.Context(), middleware.CompanyIDFromContext(c), file)
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, res)
}
