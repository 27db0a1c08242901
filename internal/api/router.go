// Apiarius - Honeypot Telemetry Analytics and Session Risk Scoring
// Copyright 2026 P. Moreau (pmoreau84)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmoreau84/apiarius

// Package api is the thin HTTP surface over the pipeline: ingest endpoints,
// read-only KPI and session queries, the websocket upgrade, and operational
// endpoints. It holds no state of its own.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pmoreau84/apiarius/internal/websocket"
)

// Config tunes the router's middleware stack.
type Config struct {
	CORSOrigins     []string
	RateLimitReqs   int
	RateLimitWindow time.Duration
}

// Router wires handlers into a chi mux.
type Router struct {
	cfg     Config
	handler *Handler
	hub     *websocket.Hub
}

// NewRouter builds the HTTP surface. hub may be nil; /ws then returns 503.
func NewRouter(cfg Config, handler *Handler, hub *websocket.Hub) *Router {
	if cfg.RateLimitReqs <= 0 {
		cfg.RateLimitReqs = 300
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = time.Minute
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	return &Router{cfg: cfg, handler: handler, hub: hub}
}

// Setup returns the complete route tree.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// Write path, rate-limited per source IP so one noisy sensor cannot
	// starve the rest.
	r.Route("/api/v1/ingest", func(r chi.Router) {
		r.Use(httprate.Limit(
			rt.cfg.RateLimitReqs,
			rt.cfg.RateLimitWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
		))
		r.Post("/", rt.handler.Ingest)
		r.Post("/cowrie", rt.handler.IngestCowrie)
	})

	// Read path.
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/kpi", rt.handler.KPI)
		r.Get("/kpi/summary", rt.handler.KPISummary)
		r.Get("/sessions/recent", rt.handler.RecentSessions)
		r.Get("/sessions/{id}", rt.handler.Session)
		r.Get("/sessions/{id}/breakdown", rt.handler.SessionBreakdown)
		r.Get("/mitre/techniques", rt.handler.Techniques)
	})

	if rt.hub != nil {
		r.Get("/ws", websocket.Handler(rt.hub))
	}

	r.Get("/health", rt.handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
