// Apiarius - Honeypot Telemetry Analytics and Session Risk Scoring
// Copyright 2026 P. Moreau (pmoreau84)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmoreau84/apiarius

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pmoreau84/apiarius/internal/metrics"
)

// requestMetrics records per-route request counts and latency. The route
// pattern (not the raw path) is the label so cardinality stays bounded.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
