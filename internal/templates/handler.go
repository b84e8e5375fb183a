package templates

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/documents"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/oplog"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/server/middleware"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/server/respond"
)

const multipartOverhead = 1 << 20

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches bid-template routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	writers := middleware.RequireRole(middleware.RoleAdmin, middleware.RoleManager)
	rg.GET("/bid-templates", h.list)
	rg.POST("/bid-templates", writers, h.upload)
	rg.GET("/bid-templates/:id", h.get)
	rg.GET("/bid-templates/:id/download", h.download)
	rg.DELETE("/bid-templates/:id", writers, h.delete)
}

func (h *Handler) upload(c *gin.Context) {
	limit := h.Svc.Limit()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.Err(c, documents.TooLarge(limit))
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	t, err := h.Svc.Upload(c.Request.Context(), middleware.CompanyIDFromContext(c), middleware.UserIDFromContext(c), UploadInput{
		Name:         c.PostForm("name"),
		TemplateType: c.PostForm("templateType"),
		FileName:     fileHeader.Filename,
		DeclaredSize: fileHeader.Size,
		Body:         file,
	})
	if err != nil {
		respond.Err(c, err)
		return
	}
	c.Set(oplog.ResourceIDKey, t.ID)
	respond.JSON(c, http.StatusCreated, t)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.Svc.List(c.Request.Context(), middleware.CompanyIDFromContext(c), c.Query("templateType"))
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, gin.H{"items": items})
}

func (h *Handler) get(c *gin.Context) {
	t, err := h.Svc.Get(c.Request.Context(), middleware.CompanyIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, t)
}

func (h *Handler) download(c *gin.Context) {
	t, reader, err := h.Svc.Open(c.Request.Context(), middleware.CompanyIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.Err(c, err)
		return
	}
	defer reader.Close()

	c.Header("Content-Type", t.MimeType)
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": t.FileName}))
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, reader)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), middleware.CompanyIDFromContext(c), c.Param("id")); err != nil {
		respond.Err(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
