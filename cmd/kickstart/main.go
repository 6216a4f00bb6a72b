package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/miketerry-org/kickstart-mvc/internal/config"
	httptransport "github.com/miketerry-org/kickstart-mvc/internal/http"
	"github.com/miketerry-org/kickstart-mvc/internal/http/handler"
	"github.com/miketerry-org/kickstart-mvc/internal/middleware"
	"github.com/miketerry-org/kickstart-mvc/internal/server"
	"github.com/miketerry-org/kickstart-mvc/internal/service"
	"github.com/miketerry-org/kickstart-mvc/internal/tenant"
)

const (
	defaultServerBundle = "assets/config-server.secure"
	defaultTenantBundle = "assets/config-tenants.secure"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newRegistry,
			newRateLimiter,
			newHandlers,
			newRouter,
			server.New,
		),
		fx.Invoke(startHTTPServer),
	)

	app.Run()
}

func newConfig() (config.ServerConfig, error) {
	path := os.Getenv("CONFIG_SERVER")
	if path == "" {
		path = defaultServerBundle
	}
	return config.Load(path, os.Getenv("ENCRYPT_KEY"))
}

func newLogger() (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if os.Getenv("APP_ENV") == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

// newRegistry loads the tenant bundle before any request is served and
// releases every tenant's resources at shutdown.
func newRegistry(lc fx.Lifecycle, logger *zap.Logger) (*tenant.Registry, error) {
	registry, err := tenant.New(os.Getenv("ENCRYPT_KEY"), tenant.DefaultBuilder, logger)
	if err != nil {
		return nil, fmt.Errorf("tenant registry: %w", err)
	}

	path := os.Getenv("CONFIG_TENANTS")
	if path == "" {
		path = defaultTenantBundle
	}
	if err := registry.LoadFromFile(path); err != nil {
		return nil, fmt.Errorf("tenant setup failed: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			registry.Close()
			return nil
		},
	})

	return registry, nil
}

func newRateLimiter(cfg config.ServerConfig) *middleware.RateLimiter {
	return middleware.NewRateLimiter(cfg.RateLimitWindow, cfg.RateLimitRequests)
}

func newHandlers(cfg config.ServerConfig, logger *zap.Logger) *handler.Set {
	policy := service.VerificationPolicy{
		MaxAttempts:  cfg.AuthMaxAttempts,
		CodeTTL:      cfg.AuthCodeTTL,
		LockDuration: cfg.AuthLockDuration,
	}
	return &handler.Set{
		Auth:  handler.NewAuthHandler(policy, logger),
		Pages: handler.NewPagesHandler(),
	}
}

func newRouter(cfg config.ServerConfig, registry *tenant.Registry, handlers *handler.Set, rateLimiter *middleware.RateLimiter, logger *zap.Logger) (*gin.Engine, error) {
	if os.Getenv("APP_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	return httptransport.NewRouter(cfg, registry, handlers, rateLimiter, logger)
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg config.ServerConfig, logger *zap.Logger) {
	addr := fmt.Sprintf(":%d", cfg.Port)
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx, addr); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}
