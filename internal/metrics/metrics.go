// Apiarius - Honeypot Telemetry Analytics and Session Risk Scoring
// Copyright 2026 P. Moreau (pmoreau84)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmoreau84/apiarius

// Package metrics exposes Prometheus instrumentation for the ingestion
// pipeline: event throughput and rejects, session lifecycle, classification
// volume, geo enrichment, KPI refreshes, and dashboard fan-out.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion.
	EventsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apiarius_events_ingested_total",
			Help: "Total number of normalized events accepted by the pipeline",
		},
		[]string{"kind"},
	)

	EventsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apiarius_events_rejected_total",
			Help: "Total number of events rejected before mutation",
		},
		[]string{"reason"}, // "malformed", "stale", "duplicate"
	)

	IngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "apiarius_ingest_duration_seconds",
			Help:    "Per-event processing latency through the aggregator",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Session lifecycle.
	SessionsOpened = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "apiarius_sessions_opened_total",
			Help: "Total number of sessions created",
		},
	)

	SessionsClosed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apiarius_sessions_closed_total",
			Help: "Total number of sessions closed",
		},
		[]string{"reason"}, // "explicit", "timeout"
	)

	SessionsLive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "apiarius_sessions_live",
			Help: "Sessions currently in open or active state",
		},
	)

	// Classification.
	CommandsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apiarius_commands_classified_total",
			Help: "Commands classified, by category and severity",
		},
		[]string{"category", "severity"},
	)

	// Geo enrichment.
	GeoLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apiarius_geo_lookups_total",
			Help: "Geo resolutions by outcome",
		},
		[]string{"outcome"}, // "resolved", "private", "failed"
	)

	// KPI engine.
	KPIRefreshes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "apiarius_kpi_refreshes_total",
			Help: "Total number of KPI snapshot rebuilds",
		},
	)

	KPIRefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "apiarius_kpi_refresh_duration_seconds",
			Help:    "Time spent rebuilding a KPI snapshot",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Dashboard fan-out.
	WSClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "apiarius_ws_clients",
			Help: "Currently connected websocket subscribers",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "apiarius_ws_messages_sent_total",
			Help: "Snapshot messages delivered to subscribers",
		},
	)

	WSMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "apiarius_ws_messages_dropped_total",
			Help: "Snapshot messages dropped because a subscriber was slow",
		},
	)

	// HTTP surface.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apiarius_http_requests_total",
			Help: "API requests by method, route, and status class",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "apiarius_http_request_duration_seconds",
			Help:    "API request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)
