// Package http wires the gin engine: middleware pipeline, view templates,
// static assets, and the feature routes from the compile-time registry.
package http

import (
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/miketerry-org/kickstart-mvc/internal/config"
	"github.com/miketerry-org/kickstart-mvc/internal/http/handler"
	"github.com/miketerry-org/kickstart-mvc/internal/middleware"
	"github.com/miketerry-org/kickstart-mvc/internal/tenant"
)

const serviceName = "kickstart-mvc"

// NewRouter builds the engine. The tenant resolver runs before every
// feature route so handlers always see a resolved tenant context.
func NewRouter(cfg config.ServerConfig, registry *tenant.Registry, handlers *handler.Set, rateLimiter *middleware.RateLimiter, logger *zap.Logger) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	if rateLimiter != nil {
		r.Use(rateLimiter.Handler())
	}
	r.Use(middleware.TenantResolver(registry, logger))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(otelgin.Middleware(serviceName))

	r.LoadHTMLGlob(filepath.Join(cfg.PathViews, "*.html"))
	r.Static("/static", cfg.PathStatic)

	if err := registerFeatures(r, handlers, cfg.Features); err != nil {
		return nil, err
	}
	return r, nil
}
