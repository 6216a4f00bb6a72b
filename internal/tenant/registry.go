// Package tenant maintains the set of known tenants, indexed by host name,
// and the lazily constructed scoped resources (data connection, logger,
// mailer) each tenant owns.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/miketerry-org/kickstart-mvc/internal/domain"
	"github.com/miketerry-org/kickstart-mvc/internal/vault"
)

// ErrUnknownTenant reports a host name with no tenant behind it.
var ErrUnknownTenant = errors.New("unknown tenant")

// ServicesBuilder constructs the scoped resource bundle for one tenant.
type ServicesBuilder func(ctx context.Context, t domain.Tenant, log *zap.Logger) (*Services, error)

type entry struct {
	tenant   domain.Tenant
	services atomic.Pointer[Services]
}

// Registry holds all tenants loaded from the encrypted tenant bundle. The
// host index is built once at startup and read-only afterwards, so Resolve
// needs no synchronization. The only racy path, first-touch service
// construction, is serialized per host through a singleflight group.
type Registry struct {
	key   []byte
	build ServicesBuilder
	log   *zap.Logger

	mu      sync.Mutex
	loaded  atomic.Bool
	entries map[string]*entry
	group   singleflight.Group
}

// New creates an empty registry. The key must be 64 hex characters; builder
// is invoked at most once per tenant on first use.
func New(keyHex string, build ServicesBuilder, log *zap.Logger) (*Registry, error) {
	key, err := vault.ParseKey(keyHex)
	if err != nil {
		return nil, err
	}
	return &Registry{key: key, build: build, log: log}, nil
}

// LoadFromFile decrypts and indexes the tenant definition bundle. A second
// call on an already loaded registry is a no-op. Duplicate host names are a
// fatal load error.
func (r *Registry) LoadFromFile(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loaded.Load() {
		return nil
	}

	var defs []domain.Tenant
	if err := vault.OpenJSONFile(r.key, path, &defs); err != nil {
		return fmt.Errorf("load tenant bundle: %w", err)
	}

	entries := make(map[string]*entry, len(defs))
	for _, def := range defs {
		host := normalizeHost(def.HostName)
		if host == "" {
			return fmt.Errorf("tenant definition with empty host name")
		}
		if _, dup := entries[host]; dup {
			return fmt.Errorf("duplicate tenant host %q", host)
		}
		def.HostName = host
		entries[host] = &entry{tenant: def}
	}

	r.entries = entries
	r.loaded.Store(true)
	r.log.Info("tenants initialized", zap.Int("count", len(entries)))
	return nil
}

// Ready reports whether the registry has been loaded.
func (r *Registry) Ready() bool {
	return r.loaded.Load()
}

// Resolve maps a host name to its tenant. It never returns a partial
// tenant: either the host is known and the full definition comes back, or
// found is false.
func (r *Registry) Resolve(host string) (*domain.Tenant, bool) {
	if !r.loaded.Load() {
		return nil, false
	}
	e, ok := r.entries[normalizeHost(host)]
	if !ok {
		return nil, false
	}
	return &e.tenant, true
}

// ServicesFor returns the tenant's scoped resources, constructing them on
// first use. Construction runs at most once per tenant even when many
// requests for a cold tenant arrive concurrently; the rest wait for the
// in-flight result. A failed construction is not cached, so the next request
// retries instead of being permanently wedged.
func (r *Registry) ServicesFor(ctx context.Context, host string) (*Services, error) {
	if !r.loaded.Load() {
		return nil, errors.New("tenant registry not loaded")
	}
	e, ok := r.entries[normalizeHost(host)]
	if !ok {
		return nil, ErrUnknownTenant
	}

	if svc := e.services.Load(); svc != nil {
		return svc, nil
	}

	v, err, _ := r.group.Do(e.tenant.HostName, func() (any, error) {
		// A racing caller may have finished while we queued.
		if svc := e.services.Load(); svc != nil {
			return svc, nil
		}
		svc, err := r.build(ctx, e.tenant, r.log)
		if err != nil {
			return nil, err
		}
		e.services.Store(svc)
		return svc, nil
	})
	if err != nil {
		return nil, fmt.Errorf("tenant %s services: %w", e.tenant.HostName, err)
	}
	return v.(*Services), nil
}

// Logger returns the tenant's scoped logger when its services have already
// been constructed, or nil. Used by the resolution middleware to pick a log
// destination without forcing construction.
func (r *Registry) Logger(host string) *zap.Logger {
	if !r.loaded.Load() {
		return nil
	}
	e, ok := r.entries[normalizeHost(host)]
	if !ok {
		return nil
	}
	if svc := e.services.Load(); svc != nil {
		return svc.Log
	}
	return nil
}

// Close releases every constructed tenant resource. Called once at process
// shutdown; requests must not be in flight.
func (r *Registry) Close() {
	if !r.loaded.Load() {
		return
	}
	for _, e := range r.entries {
		if svc := e.services.Load(); svc != nil {
			svc.close()
		}
	}
}

// Len reports the number of loaded tenants.
func (r *Registry) Len() int {
	if !r.loaded.Load() {
		return 0
	}
	return len(r.entries)
}

func normalizeHost(host string) string {
	return strings.ToLower(strings.TrimSpace(host))
}
