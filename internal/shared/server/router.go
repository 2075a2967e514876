package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docprep-backend/internal/documents"
	"docprep-backend/internal/services/health"
	"docprep-backend/internal/shared/config"
	"docprep-backend/internal/shared/metrics"
	"docprep-backend/internal/shared/server/middleware"
	"docprep-backend/internal/shared/server/respond"
)

const (
	apiVersion = "1.0.0"

	rateGroupDefault = "DEFAULT"
	rateGroupConvert = "CONVERT"
)

// RouterDeps are the handlers mounted by NewRouter.
type RouterDeps struct {
	Config           config.Config
	DocumentsHandler *documents.Handler
	Health           *health.Service
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.APIKey(cfg.APIKeys),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				rateGroupDefault: {Rate: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst},
				rateGroupConvert: {Rate: cfg.ConvertRateLimitRPS, Burst: cfg.ConvertRateLimitBurst},
			},
			DefaultGroup: rateGroupDefault,
			GroupFor:     rateGroupFor,
		}),
	)

	r.GET("/", serviceInfo)
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.OK(c, health.Status{Status: "healthy", Service: health.ServiceName})
			return
		}
		respond.OK(c, deps.Health.Status(c.Request.Context()))
	})
	if deps.DocumentsHandler != nil {
		deps.DocumentsHandler.RegisterRoutes(api)
	}

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "not_found", "route not found", nil)
	})

	return r
}

// rateGroupFor puts the expensive processing endpoints in their own bucket.
func rateGroupFor(c *gin.Context) string {
	if c.Request.Method != http.MethodPost {
		return rateGroupDefault
	}
	switch c.FullPath() {
	case "/api/v1/upload", "/api/v1/azure-translate-analysis":
		return rateGroupConvert
	}
	return rateGroupDefault
}

func serviceInfo(c *gin.Context) {
	respond.OK(c, gin.H{
		"service":     health.ServiceName,
		"version":     apiVersion,
		"description": "Document processing for translation readiness: DOCX validation, conversion and content analysis",
		"endpoints": gin.H{
			"health":                   "GET /api/v1/health",
			"formats":                  "GET /api/v1/formats",
			"validate":                 "POST /api/v1/validate",
			"upload":                   "POST /api/v1/upload",
			"azure_translate_analysis": "POST /api/v1/azure-translate-analysis",
			"download":                 "GET /api/v1/download/{filename}",
			"summary":                  "GET /api/v1/summary",
			"cleanup":                  "DELETE /api/v1/cleanup",
			"metrics":                  "GET /metrics",
		},
	})
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
