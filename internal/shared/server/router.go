package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/auth"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/checkup"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/dashboard"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/deviation"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/documents"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/extraction"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/knowledge"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/oplog"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/projects"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/qualifications"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/requirements"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/services/health"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/settings"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/config"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/metrics"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/server/middleware"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/server/respond"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/specs"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/templates"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/users"
)

const apiPrefix = "/api/v1"

// RouterDeps bundles the handlers mounted on the engine. Health, OpLog and
// GoogleAuth are optional.
type RouterDeps struct {
	Config               config.Config
	Health               *health.Service
	OpLog                *oplog.Service
	GoogleAuth           *auth.GoogleService
	UserHandler          *users.Handler
	ProjectHandler       *projects.Handler
	DocumentHandler      *documents.Handler
	ExtractionHandler    *extraction.Handler
	RequirementHandler   *requirements.Handler
	SpecHandler          *specs.Handler
	KnowledgeHandler     *knowledge.Handler
	TemplateHandler      *templates.Handler
	DeviationHandler     *deviation.Handler
	QualificationHandler *qualifications.Handler
	CheckupHandler       *checkup.Handler
	SettingsHandler      *settings.Handler
	OpLogHandler         *oplog.Handler
	DashboardHandler     *dashboard.Handler
	RateLimits           map[string]middleware.RateLimitRule
}

// DefaultRateLimits throttles uploads, extraction submissions and polling.
func DefaultRateLimits() map[string]middleware.RateLimitRule {
	return map[string]middleware.RateLimitRule{
		middleware.RateGroupUpload:     {Rate: 0.5, Burst: 10},
		middleware.RateGroupExtraction: {Rate: 0.2, Burst: 5},
		middleware.RateGroupPolling:    {Rate: 5, Burst: 30},
	}
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	limits := deps.RateLimits
	if limits == nil {
		limits = DefaultRateLimits()
	}
	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Config.Env),
		middleware.RateLimit(middleware.RateLimitConfig{Rules: limits, GroupFor: rateGroup}),
	)
	if deps.OpLog != nil {
		r.Use(oplog.Recorder(deps.OpLog, apiPrefix))
	}

	r.GET("/metrics", metrics.Handler())

	api := r.Group(apiPrefix)
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true})
			return
		}
		report := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})

	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	deps.UserHandler.RegisterPublicRoutes(api)
	for _, h := range []interface{ RegisterRoutes(*gin.RouterGroup) }{
		deps.UserHandler,
		deps.ProjectHandler,
		deps.DocumentHandler,
		deps.ExtractionHandler,
		deps.RequirementHandler,
		deps.SpecHandler,
		deps.KnowledgeHandler,
		deps.TemplateHandler,
		deps.DeviationHandler,
		deps.QualificationHandler,
		deps.CheckupHandler,
		deps.SettingsHandler,
		deps.OpLogHandler,
		deps.DashboardHandler,
	} {
		h.RegisterRoutes(api)
	}

	return r
}

// rateGroup maps a route to its rate limit group.
func rateGroup(c *gin.Context) string {
	route := strings.TrimPrefix(c.FullPath(), apiPrefix)
	switch {
	case c.Request.Method == http.MethodPost && (route == "/projects/:id/documents" || route == "/bid-templates"):
		return middleware.RateGroupUpload
	case c.Request.Method == http.MethodPost && route == "/projects/:id/extractions":
		return middleware.RateGroupExtraction
	case c.Request.Method == http.MethodGet && strings.HasPrefix(route, "/extraction-tasks/"):
		return middleware.RateGroupPolling
	}
	return ""
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
