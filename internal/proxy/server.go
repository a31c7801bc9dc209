// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/jeranaias/beauty-advisor/internal/config"
)

// limiterSweepInterval is how often idle rate limit buckets are dropped.
const limiterSweepInterval = 5 * time.Minute

// Server is the advisor proxy HTTP service.
type Server struct {
	cfg      *config.ProxyConfig
	log      zerolog.Logger
	engine   *gin.Engine
	policy   *OriginPolicy
	upstream Upstream
	limiter  *ClientLimiter
	registry *prometheus.Registry
	metrics  *Metrics
}

// Option customizes a Server.
type Option func(*Server)

// WithUpstream replaces the OpenAI upstream.
func WithUpstream(u Upstream) Option {
	return func(s *Server) { s.upstream = u }
}

// WithRegistry registers metrics with reg instead of a fresh registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) { s.registry = reg }
}

// New builds the proxy. Without an API key and without WithUpstream the
// chat endpoint answers with configuration_error.
func New(cfg *config.ProxyConfig, logger zerolog.Logger, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("proxy: nil config")
	}
	s := &Server{
		cfg:     cfg,
		log:     logger.With().Str("component", "proxy").Logger(),
		policy:  NewOriginPolicy(cfg.AllowedOrigins),
		limiter: NewClientLimiter(cfg.RateLimitPerMinute),
	}
	if cfg.APIKey != "" {
		s.upstream = NewOpenAIUpstream(cfg.UpstreamBaseURL, cfg.APIKey, cfg.UpstreamTimeout)
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
		s.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	s.metrics = NewMetrics(s.registry)

	if s.policy.AllowAll() {
		s.log.Warn().Msg(AllowAllWarning)
	} else {
		s.log.Info().Strs("allowed_origins", s.policy.Origins()).Msg("origin allow-list configured")
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	engine.Use(Recovery(s.log), SecurityHeaders(), RequestLogger(s.log))
	s.engine = engine
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET(s.cfg.MetricsPath, gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	s.engine.Any(s.cfg.Path, s.handleChat)
	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	})
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Run serves until ctx is cancelled, then shuts down within
// cfg.ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.limiter != nil {
		go s.limiter.Run(ctx, limiterSweepInterval)
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr).Str("path", s.cfg.Path).Msg("proxy listening")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("proxy server error")
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info().Msg("shutting down proxy")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
