// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// ProxyConfig holds the environment driven configuration for the proxy.
type ProxyConfig struct {
	// APIKey is the upstream credential. It never leaves the proxy.
	APIKey string `env:"OPENAI_API_KEY" validate:"required"`

	// AllowedOrigins empty means every origin is allowed (development only).
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	Addr        string `env:"PROXY_ADDR" envDefault:":8787" validate:"required"`
	Path        string `env:"PROXY_PATH" envDefault:"/" validate:"startswith=/"`
	MetricsPath string `env:"METRICS_PATH" envDefault:"/metrics" validate:"startswith=/,nefield=Path"`

	UpstreamBaseURL string `env:"UPSTREAM_BASE_URL" envDefault:"https://api.openai.com/v1" validate:"url"`
	// UpstreamTimeout of 0 waits for the upstream as long as the client stays connected.
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"0s" validate:"gte=0"`

	// RateLimitPerMinute of 0 disables per-client rate limiting.
	RateLimitPerMinute int      `env:"RATE_LIMIT_PER_MINUTE" envDefault:"0" validate:"gte=0"`
	TrustedProxies     []string `env:"TRUSTED_PROXIES" envSeparator:","`

	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=trace debug info warn error disabled"`
	LogPretty       bool          `env:"LOG_PRETTY" envDefault:"false"`
	GinMode         string        `env:"GIN_MODE" envDefault:"release" validate:"oneof=debug release test"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s" validate:"gt=0"`
}

// LoadProxy parses the environment into a ProxyConfig and validates it.
func LoadProxy() (*ProxyConfig, error) {
	cfg := &ProxyConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid proxy config: %w", err)
	}
	return cfg, nil
}

// DefaultProxy returns the proxy defaults without reading the environment.
func DefaultProxy() *ProxyConfig {
	return &ProxyConfig{
		Addr:            ":8787",
		Path:            "/",
		MetricsPath:     "/metrics",
		UpstreamBaseURL: "https://api.openai.com/v1",
		LogLevel:        "info",
		GinMode:         "release",
		ShutdownTimeout: 10 * time.Second,
	}
}

// Normalize trims list entries and drops empty ones.
func (c *ProxyConfig) Normalize() {
	c.AllowedOrigins = cleanList(c.AllowedOrigins)
	c.TrustedProxies = cleanList(c.TrustedProxies)
	c.UpstreamBaseURL = strings.TrimRight(strings.TrimSpace(c.UpstreamBaseURL), "/")
}

// Validate checks the configuration and returns ValidateErrors on failure.
func (c *ProxyConfig) Validate() error {
	return validateStruct(c)
}

// AllowAllOrigins reports whether the origin allow-list is unset.
func (c *ProxyConfig) AllowAllOrigins() bool {
	return len(c.AllowedOrigins) == 0
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// LoadEnvFiles loads the first of paths that exists into the environment.
// Variables already set are left alone.
func LoadEnvFiles(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		return nil
	}
	return nil
}
