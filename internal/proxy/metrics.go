// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package proxy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcomes recorded in advisor_proxy_requests_total.
const (
	OutcomeOK               = "ok"
	OutcomePreflight        = "preflight"
	OutcomeMethodNotAllowed = "method_not_allowed"
	OutcomeForbidden        = "forbidden"
	OutcomeBadRequest       = "bad_request"
	OutcomeRateLimited      = "rate_limited"
	OutcomeConfigError      = "config_error"
	OutcomeUpstreamError    = "upstream_error"
	OutcomeInternalError    = "internal_error"
)

// Metrics holds the proxy's Prometheus collectors.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	AllowAllRequests prometheus.Counter
}

// NewMetrics registers the proxy collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "advisor",
				Subsystem: "proxy",
				Name:      "requests_total",
				Help:      "Total proxy requests by outcome",
			},
			[]string{"outcome"},
		),
		UpstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "advisor",
				Subsystem: "proxy",
				Name:      "upstream_duration_seconds",
				Help:      "Upstream completion latency in seconds",
				Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"status"},
		),
		AllowAllRequests: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "advisor",
				Subsystem: "proxy",
				Name:      "allow_all_requests_total",
				Help:      "Requests accepted only because no origin allow-list is configured",
			},
		),
	}
}

func (m *Metrics) outcome(name string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(name).Inc()
}
