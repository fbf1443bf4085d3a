// Package config loads runtime settings from the process environment,
// with development defaults that can be overridden per deployment.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds runtime settings for the inkwell server.
//
// Fields:
//   - Addr: bind address for the HTTP server.
//   - BaseURL: externally visible origin, used for auth callback links.
//   - SupabaseURL / SupabaseAnonKey: the hosted backend and its public API key.
//   - SupabaseServiceKey: optional service-role key; enables the compensating
//     identity delete when the shadow profile insert fails.
//   - CookieSecret: HMAC secret for signing session cookies (32+ bytes).
//   - RedisURL: optional; when set the post-list cache is Redis-backed.
//   - SentryDSN: optional; enables error reporting through the logger.
//   - CacheTTL: lifetime of the cached public post list.
//   - ShutdownTimeout: grace period for in-flight requests on shutdown.
type Config struct {
	Addr               string
	BaseURL            string
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string
	CookieSecret       string
	RedisURL           string
	SentryDSN          string
	SentryEnvironment  string
	CacheTTL           time.Duration
	ShutdownTimeout    time.Duration
}

// LoadDefaults populates Config with development defaults.
// NOTE: the cookie secret default is insecure and must be overridden in prod.
func (c *Config) LoadDefaults() {
	c.Addr = ":8080"
	c.BaseURL = "http://localhost:8080"
	c.CookieSecret = "dev-only-cookie-secret-change-me!!"
	c.SentryEnvironment = "production"
	c.CacheTTL = 30 * time.Second
	c.ShutdownTimeout = 10 * time.Second
}

// Load builds a Config by applying defaults and overlaying values from the
// environment.
func Load() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	cfg.parseEnv()
	return cfg
}

func (c *Config) parseEnv() {
	overlayString(&c.Addr, "ADDR")
	overlayString(&c.BaseURL, "BASE_URL")
	overlayString(&c.SupabaseURL, "SUPABASE_URL")
	overlayString(&c.SupabaseAnonKey, "SUPABASE_ANON_KEY")
	overlayString(&c.SupabaseServiceKey, "SUPABASE_SERVICE_ROLE_KEY")
	overlayString(&c.CookieSecret, "COOKIE_SECRET")
	overlayString(&c.RedisURL, "REDIS_URL")
	overlayString(&c.SentryDSN, "SENTRY_DSN")
	overlayString(&c.SentryEnvironment, "SENTRY_ENVIRONMENT")
	overlayDuration(&c.CacheTTL, "CACHE_TTL")
	overlayDuration(&c.ShutdownTimeout, "SHUTDOWN_TIMEOUT")
}

// HasEnvVars reports whether the remote store is configured. Pages that
// assume a reachable backend degrade to a setup notice when this is false.
func (c *Config) HasEnvVars() bool {
	return c.SupabaseURL != "" && c.SupabaseAnonKey != ""
}

func overlayString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func overlayDuration(dst *time.Duration, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
		return
	}
	// Bare numbers are read as seconds.
	if secs, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(secs) * time.Second
	}
}
