package documents

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/server/middleware"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/server/respond"
)

// multipartOverhead is the slack allowed on top of the file limit for form framing.
const multipartOverhead = 1 << 20

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/projects/:id/documents", h.upload)
	rg.GET("/projects/:id/documents", h.list)
	rg.GET("/documents/:id", h.get)
	rg.GET("/documents/:id/text", h.text)
	rg.GET("/documents/:id/download", h.download)
	rg.DELETE("/documents/:id", h.delete)
}

func (h *Handler) upload(c *gin.Context) {
	projectID := c.Param("id")
	c.Set(middleware.ProjectIDKey, projectID)
	kind := c.DefaultQuery("kind", KindRFP)
	limit := h.Svc.MaxBytes(kind)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.Err(c, tooLarge(limit))
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

	doc, err := h.Svc.Upload(c.Request.Context(), middleware.CompanyIDFromContext(c), middleware.UserIDFromContext(c), UploadInput{
		ProjectID:    projectID,
		Kind:         kind,
		FileName:     fileHeader.Filename,
		DeclaredSize: fileHeader.Size,
		Body:         file,
	})
	if err != nil {
		respond.Err(c, err)
		return
	}

	respond.JSON(c, http.StatusCreated, doc)
}

func (h *Handler) list(c *gin.Context) {
	c.Set(middleware.ProjectIDKey, c.Param("id"))
	docs, err := h.Svc.List(c.Request.Context(), middleware.CompanyIDFromContext(c), c.Param("id"), c.Query("kind"))
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, gin.H{"items": docs})
}

func (h *Handler) get(c *gin.Context) {
	doc, err := h.Svc.Get(c.Request.Context(), middleware.CompanyIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, doc)
}

func (h *Handler) text(c *gin.Context) {
	doc, err := h.Svc.Get(c.Request.Context(), middleware.CompanyIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.Err(c, err)
		return
	}
	content, err := h.Svc.LoadContent(c.Request.Context(), doc)
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, gin.H{
		"documentId": doc.ID,
		"text":       content.Text,
		"layout":     content.Layout,
	})
}

func (h *Handler) download(c *gin.Context) {
	doc, reader, err := h.Svc.Open(c.Request.Context(), middleware.CompanyIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.Err(c, err)
		return
	}
	defer reader.Close()

	c.Header("Content-Type", doc.MimeType)
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.FileName}))
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
