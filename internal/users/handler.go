package users

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/oplog"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/server/middleware"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/server/respond"
)

type Handler struct {
	Svc   *Service
	Audit *oplog.Service
}

func NewHandler(svc *Service, audit *oplog.Service) *Handler {
	return &Handler{Svc: svc, Audit: audit}
}

// RegisterPublicRoutes attaches routes reachable without a token.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/login", h.login)
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)

	admin := rg.Group("/admin/users", middleware.RequireRole(middleware.RoleAdmin))
	admin.GET("", h.list)
	admin.POST("", h.create)
	admin.GET("/:id", h.get)
	admin.PUT("/:id", h.update)
	admin.PUT("/:id/role", h.setRole)
	admin.DELETE("/:id", h.delete)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	session, err := h.Svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respond.Err(c, err)
		return
	}
	h.Audit.Record(c.Request.Context(), oplog.Entry{
		CompanyID:     session.User.CompanyID,
		UserID:        session.User.ID,
		UserName:      displayName(session.User),
		OperationType: oplog.OpLogin,
		ResourceType:  "users",
		ResourceID:    session.User.ID,
		Content:       "password login",
		IPAddress:     c.ClientIP(),
	})
	respond.OK(c, session)
}

func (h *Handler) me(c *gin.Context) {
	if middleware.IsGuest(c) {
		respond.OK(c, gin.H{
			"id":        middleware.UserIDFromContext(c),
			"companyId": middleware.CompanyIDFromContext(c),
			"role":      middleware.RoleFromContext(c),
			"guest":     true,
		})
		return
	}
	u, err := h.Svc.Get(c.Request.Context(), middleware.CompanyIDFromContext(c), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, u)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.Svc.List(c.Request.Context(), middleware.CompanyIDFromContext(c))
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, gin.H{"items": items})
}

func (h *Handler) create(c *gin.Context) {
	var in CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	u, err := h.Svc.Create(c.Request.Context(), middleware.CompanyIDFromContext(c), in)
	if err != nil {
		respond.Err(c, err)
		return
	}
	c.Set(oplog.ResourceIDKey, u.ID)
	respond.JSON(c, http.StatusCreated, u)
}

func (h *Handler) get(c *gin.Context) {
	u, err := h.Svc.Get(c.Request.Context(), middleware.CompanyIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, u)
}

func (h *Handler) update(c *gin.Context) {
	var in UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	u, err := h.Svc.Update(c.Request.Context(), middleware.CompanyIDFromContext(c), c.Param("id"), in)
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, u)
}

func (h *Handler) setRole(c *gin.Context) {
	var req struct {
		Role string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	u, err := h.Svc.SetRole(c.Request.Context(), middleware.CompanyIDFromContext(c), c.Param("id"), req.Role)
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, u)
}

func (h *Handler) delete(c *gin.Context) {
	err := h.Svc.Delete(c.Request.Context(), middleware.CompanyIDFromContext(c), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.Err(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
