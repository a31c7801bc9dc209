// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/beauty-advisor/internal/util"
)

// PlaceholderEndpoint is written into fresh config files until the user sets
// a real proxy URL.
const PlaceholderEndpoint = "YOUR_PROXY_URL_HERE"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the chat client configuration.
type Config struct {
	Proxy   EndpointConfig `toml:"proxy"`
	Storage StorageConfig  `toml:"storage"`
	UI      UIConfig       `toml:"ui"`
	Log     LogConfig      `toml:"log"`
}

// EndpointConfig points the client at an advisor proxy.
type EndpointConfig struct {
	// Endpoint is the proxy URL. Empty or the placeholder blocks sending.
	Endpoint string `toml:"endpoint" validate:"omitempty,endpoint"`

	// Mode is "proxy" for the advisor proxy or "openai" for a pass-through worker.
	Mode string `toml:"mode" validate:"oneof=proxy openai"`

	// TimeoutSeconds of 0 disables the client timeout.
	TimeoutSeconds int `toml:"timeout_seconds" validate:"gte=0,lte=600"`
}

// StorageConfig selects where conversations are kept.
type StorageConfig struct {
	Backend string `toml:"backend" validate:"oneof=file bolt sqlite memory"`

	// Path overrides the data directory. Default: <config dir>/data
	Path string `toml:"path"`

	// Key is the durable key holding the conversation collection.
	Key string `toml:"key" validate:"required,excludesall=/\\"`
}

// UIConfig controls terminal rendering.
type UIConfig struct {
	RenderMarkdown bool     `toml:"render_markdown"`
	Suggestions    []string `toml:"suggestions" validate:"max=9,dive,required"`
}

// LogConfig controls client logging. Logs go to stderr.
type LogConfig struct {
	Level string `toml:"level" validate:"oneof=trace debug info warn error disabled"`
}

// Default returns the default client configuration.
func Default() *Config {
	return &Config{
		Proxy: EndpointConfig{
			Endpoint: PlaceholderEndpoint,
			Mode:     "proxy",
		},
		Storage: StorageConfig{
			Backend: "file",
			Key:     "advisorConversations",
		},
		UI: UIConfig{
			RenderMarkdown: true,
			Suggestions: []string{
				"What foundation suits oily skin?",
				"How do I build a simple skincare routine?",
				"Which lipstick shades work for warm undertones?",
				"How can I protect color-treated hair?",
			},
		},
		Log: LogConfig{Level: "warn"},
	}
}

// Timeout returns the client timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Proxy.TimeoutSeconds) * time.Second
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the advisor configuration directory.
func ConfigDir() (string, error) {
	if dir := os.Getenv("ADVISOR_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".advisor"), nil
}

// ConfigPath returns the path of the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DataDir returns the directory storage backends write to.
func (c *Config) DataDir() (string, error) {
	if c.Storage.Path != "" {
		return expandHome(c.Storage.Path)
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "data"), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the default config file if present, then applies environment
// overrides and validation. A missing file yields the defaults.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath is Load for an explicit file.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnvOverrides applies ADVISOR_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("ADVISOR_ENDPOINT"); v != "" {
		c.Proxy.Endpoint = v
	}
	if v := os.Getenv("ADVISOR_MODE"); v != "" {
		c.Proxy.Mode = strings.ToLower(v)
	}
	if v := os.Getenv("ADVISOR_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			c.Proxy.TimeoutSeconds = secs
		}
	}
	if v := os.Getenv("ADVISOR_STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("ADVISOR_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("ADVISOR_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
}

// SetDefaults fills zero values left by a partial config file.
func (c *Config) SetDefaults() {
	d := Default()
	c.Proxy.Endpoint = strings.TrimSpace(c.Proxy.Endpoint)
	if c.Proxy.Mode == "" {
		c.Proxy.Mode = d.Proxy.Mode
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = d.Storage.Backend
	}
	if c.Storage.Key == "" {
		c.Storage.Key = d.Storage.Key
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// Validate checks the configuration and returns ValidateErrors on failure.
func (c *Config) Validate() error {
	return validateStruct(c)
}

// IsEndpointConfigured reports whether a real endpoint has been set.
func (c *Config) IsEndpointConfigured() bool {
	return c.Proxy.Endpoint != "" && c.Proxy.Endpoint != PlaceholderEndpoint
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes cfg as TOML to path with owner-only permissions.
func Save(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# Beauty advisor client configuration\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	// SECURITY: 0600, the file may hold a private endpoint URL
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
