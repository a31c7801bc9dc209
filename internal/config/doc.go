// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads configuration for the advisor client and proxy.
//
// The chat client reads TOML from ~/.advisor/config.toml (the directory can be
// moved with ADVISOR_HOME) with ADVISOR_* environment overrides. The proxy is
// configured entirely from the environment, optionally seeded from a .env
// file, since it normally runs in a container or serverless host.
//
// # Usage
//
//	cfg, err := config.Load()
//	dir := cfg.DataDir()
//
//	pcfg, err := config.LoadProxy()
//	if pcfg.AllowAllOrigins() { ... }
package config
