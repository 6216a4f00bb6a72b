// Package middleware carries the request pipeline stages: tenant
// resolution, request logging, rate limiting, and CORS.
package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/miketerry-org/kickstart-mvc/internal/domain"
	"github.com/miketerry-org/kickstart-mvc/internal/tenant"
)

const (
	ginTenantKey   = "tenant"
	ginServicesKey = "tenantServices"
	ginLocalsKey   = "locals"
)

type tenantContextKey struct{}

// TenantResolver resolves the request host to a tenant and attaches the
// tenant and its scoped resources to the gin and request contexts. Site
// properties are merged into the request's locals map for the view layer.
// Only request-scoped state is mutated; the shared tenant object never is.
func TenantResolver(reg *tenant.Registry, fallback *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !reg.Ready() {
			fallback.Error("tenant registry not initialized")
			c.String(http.StatusServiceUnavailable, "Tenant system not initialized")
			c.Abort()
			return
		}

		host := stripPort(c.Request.Host)
		t, ok := reg.Resolve(host)
		if !ok {
			fallback.Debug("tenant not found", zap.String("host", host))
			c.String(http.StatusNotFound, "Tenant not found")
			c.Abort()
			return
		}

		svc, err := reg.ServicesFor(c.Request.Context(), t.HostName)
		if err != nil {
			log := reg.Logger(t.HostName)
			if log == nil {
				log = fallback
			}
			log.Error("tenant service construction failed",
				zap.String("host", t.HostName),
				zap.Error(err),
			)
			c.String(http.StatusInternalServerError, "Internal Server Error")
			c.Abort()
			return
		}

		locals := make(map[string]any, len(t.Site))
		for k, v := range t.Site {
			locals[k] = v
		}

		ctx := context.WithValue(c.Request.Context(), tenantContextKey{}, t)
		c.Request = c.Request.WithContext(ctx)

		c.Set(ginTenantKey, t)
		c.Set(ginServicesKey, svc)
		c.Set(ginLocalsKey, locals)

		c.Next()
	}
}

// GetTenant extracts the resolved tenant from gin.
func GetTenant(c *gin.Context) (*domain.Tenant, bool) {
	value, ok := c.Get(ginTenantKey)
	if !ok {
		return nil, false
	}
	t, ok := value.(*domain.Tenant)
	return t, ok
}

// GetServices extracts the tenant's scoped resources from gin.
func GetServices(c *gin.Context) (*tenant.Services, bool) {
	value, ok := c.Get(ginServicesKey)
	if !ok {
		return nil, false
	}
	svc, ok := value.(*tenant.Services)
	return svc, ok
}

// GetLocals returns the request's presentation-data map. Always non-nil so
// handlers can merge into it freely.
func GetLocals(c *gin.Context) map[string]any {
	value, ok := c.Get(ginLocalsKey)
	if !ok {
		return map[string]any{}
	}
	locals, ok := value.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return locals
}

// TenantFromContext extracts the resolved tenant from a standard context.
func TenantFromContext(ctx context.Context) (*domain.Tenant, bool) {
	value := ctx.Value(tenantContextKey{})
	if value == nil {
		return nil, false
	}
	t, ok := value.(*domain.Tenant)
	return t, ok
}

func stripPort(host string) string {
	if strings.Contains(host, ":") {
		if h, _, err := net.SplitHostPort(host); err == nil {
			return h
		}
	}
	return host
}
