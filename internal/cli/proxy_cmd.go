// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/jeranaias/beauty-advisor/internal/config"
	"github.com/jeranaias/beauty-advisor/internal/logging"
	"github.com/jeranaias/beauty-advisor/internal/proxy"
)

func newProxyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Run the advisor proxy service",
	}

	var envFiles []string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat endpoint that holds the upstream API key",
		Long: `Serve the advisor proxy. The proxy keeps the upstream API key on the
server, enforces the origin allow-list and forwards chats upstream.

Configuration comes from the environment, optionally seeded from a .env
file: OPENAI_API_KEY, ALLOWED_ORIGINS, PROXY_ADDR, PROXY_PATH,
UPSTREAM_BASE_URL, UPSTREAM_TIMEOUT, RATE_LIMIT_PER_MINUTE, TRUSTED_PROXIES,
LOG_LEVEL, LOG_PRETTY, GIN_MODE, SHUTDOWN_TIMEOUT.`,
		Example: `  OPENAI_API_KEY=sk-... ALLOWED_ORIGINS=https://shop.example.com advisor proxy serve
  advisor proxy serve --env-file /etc/advisor/proxy.env`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadEnvFiles(envFiles...); err != nil {
				return err
			}
			cfg, err := config.LoadProxy()
			if err != nil {
				return err
			}
			gin.SetMode(cfg.GinMode)

			logger := logging.New(logging.Options{
				Level:   cfg.LogLevel,
				Pretty:  cfg.LogPretty,
				Writer:  os.Stderr,
				Service: "advisor-proxy",
			})
			srv, err := proxy.New(cfg, logger)
			if err != nil {
				return err
			}
			return srv.Run(cmd.Context())
		},
	}
	serve.Flags().StringSliceVar(&envFiles, "env-file", nil, "env file to load (default: .env when present)")
	cmd.AddCommand(serve)
	return cmd
}
