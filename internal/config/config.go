// Package config loads the encrypted server configuration bundle and
// validates it into a typed, range-checked structure. Loading is
// all-or-nothing: a key, decryption, or validation failure means the process
// must not begin serving traffic.
package config

import (
	"time"

	"github.com/miketerry-org/kickstart-mvc/internal/vault"
)

// ServerConfig contains the validated runtime configuration values.
type ServerConfig struct {
	Port               int
	DatabaseURL        string
	LogCollectionName  string
	LogExpirationDays  int
	SessionSecret      string
	SessionTimeout     time.Duration
	RateLimitWindow    time.Duration
	RateLimitRequests  int
	PathStatic         string
	PathViews          string
	PathViewsLayouts   string
	AuthMaxAttempts    int
	AuthCodeTTL        time.Duration
	AuthLockDuration   time.Duration
	Features           []string
	CORSAllowedOrigins []string
}

// Load decrypts the bundle at path with the supplied 64-hex-character key
// and validates every field. All violations are reported together through a
// single *ValidationError; key and cipher problems surface as
// *DecryptionError before any JSON is parsed.
func Load(path, keyHex string) (ServerConfig, error) {
	key, err := vault.ParseKey(keyHex)
	if err != nil {
		return ServerConfig{}, &DecryptionError{Err: err}
	}

	var values map[string]any
	if err := vault.OpenJSONFile(key, path, &values); err != nil {
		return ServerConfig{}, &DecryptionError{Path: path, Err: err}
	}

	return validate(values)
}

func validate(values map[string]any) (ServerConfig, error) {
	c := newChecker(values)

	cfg := ServerConfig{
		Port:               c.Int("port", nil, 1, 60000),
		DatabaseURL:        c.String("db_url", nil, 1, 255),
		LogCollectionName:  c.String("log_collection_name", strDefault("logs"), 1, 255),
		LogExpirationDays:  c.Int("log_expiration_days", intDefault(1), 1, 365),
		SessionSecret:      c.String("session_secret", nil, 1, 255),
		SessionTimeout:     time.Duration(c.Int("session_timeout", intDefault(30), 10, 3600)) * time.Minute,
		RateLimitWindow:    time.Duration(c.Int("rate_limit_minutes", intDefault(10), 1, 60)) * time.Minute,
		RateLimitRequests:  c.Int("rate_limit_requests", intDefault(200), 10, 10000),
		PathStatic:         c.String("path_static", strDefault("public"), 1, 255),
		PathViews:          c.String("path_views", strDefault("views"), 1, 255),
		PathViewsLayouts:   c.String("path_views_layouts", strDefault("views/layouts"), 1, 255),
		AuthMaxAttempts:    c.Int("auth_max_attempts", intDefault(5), 1, 10),
		AuthCodeTTL:        time.Duration(c.Int("auth_code_ttl_minutes", intDefault(10), 1, 60)) * time.Minute,
		AuthLockDuration:   time.Duration(c.Int("auth_lock_minutes", intDefault(15), 1, 1440)) * time.Minute,
		Features:           c.StringList("features", nil),
		CORSAllowedOrigins: c.StringList("cors_allowed_origins", nil),
	}

	if err := c.Err(); err != nil {
		return ServerConfig{}, &ValidationError{Err: err}
	}
	return cfg, nil
}
