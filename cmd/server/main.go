// Apiarius - Honeypot Telemetry Analytics and Session Risk Scoring
// Copyright 2026 P. Moreau (pmoreau84)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmoreau84/apiarius

// Command server runs the Apiarius analytics daemon.
//
// It ingests normalized honeypot events (or raw Cowrie JSON lines) over
// HTTP, folds them into in-memory attack sessions, classifies commands,
// maps MITRE ATT&CK techniques, scores session risk, and serves KPI
// rollups plus a live WebSocket feed for the dashboard.
//
// Configuration comes from a YAML file (APIARIUS_CONFIG or ./config.yaml)
// overlaid with APIARIUS_* environment variables, e.g.:
//
//	APIARIUS_SERVER__PORT=8420 \
//	APIARIUS_GEO__ENDPOINT_URL=http://ip-api.com \
//	apiarius-server
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pmoreau84/apiarius/internal/api"
	"github.com/pmoreau84/apiarius/internal/botdetect"
	"github.com/pmoreau84/apiarius/internal/bus"
	"github.com/pmoreau84/apiarius/internal/classify"
	"github.com/pmoreau84/apiarius/internal/config"
	"github.com/pmoreau84/apiarius/internal/geo"
	"github.com/pmoreau84/apiarius/internal/kpi"
	"github.com/pmoreau84/apiarius/internal/logging"
	"github.com/pmoreau84/apiarius/internal/mitre"
	"github.com/pmoreau84/apiarius/internal/scoring"
	"github.com/pmoreau84/apiarius/internal/session"
	"github.com/pmoreau84/apiarius/internal/supervisor"
	ws "github.com/pmoreau84/apiarius/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Dur("session_timeout", cfg.Session.InactivityTimeout).
		Dur("kpi_window", cfg.KPI.Window).
		Msg("Starting Apiarius")

	// Analysis stages. These are pure in-memory components; any failure
	// here is a programming error in the rule tables.
	classifier, err := classify.New()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build command classifier")
	}
	mapper, err := mitre.NewMapper(classifier.Rules())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build MITRE mapper")
	}
	scorer := scoring.NewDefault()
	detector := botdetect.NewDefault()

	// Geolocation is optional; without an endpoint sessions simply carry
	// no geo data and KPI rollups bucket their IPs under "unknown".
	var geoSvc *geo.Service
	if cfg.Geo.EndpointURL != "" {
		geoSvc, err = geo.New(geo.NewHTTPResolver(cfg.Geo.EndpointURL), cfg.Geo)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize geolocation service")
		}
		logging.Info().Str("endpoint", cfg.Geo.EndpointURL).Msg("Geolocation enabled")
	} else {
		logging.Info().Msg("Geolocation disabled (no endpoint configured)")
	}

	// In-process change bus: ingestion publishes, the KPI engine and the
	// WebSocket broadcaster each consume their own subscription.
	changeBus := bus.New(256)
	defer func() {
		if err := changeBus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing change bus")
		}
	}()

	aggregator := session.New(cfg.Session, classifier, mapper, scorer, detector, geoSvc, changeBus.Publisher())
	engine := kpi.NewEngine(cfg.KPI, aggregator, changeBus.Subscriber())
	hub := ws.NewHub()
	broadcaster := ws.NewBroadcaster(hub, engine, changeBus.Subscriber(), cfg.Broadcast.Debounce)

	handler := api.NewHandler(aggregator, engine, mapper)
	router := api.NewRouter(api.Config{
		CORSOrigins:     cfg.Server.CORSOrigins,
		RateLimitReqs:   cfg.Server.RateLimitReqs,
		RateLimitWindow: cfg.Server.RateLimitWindow,
	}, handler, hub)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddPipelineService(session.NewSweeper(aggregator))
	tree.AddStreamingService(engine)
	tree.AddStreamingService(hub)
	tree.AddStreamingService(broadcaster)
	tree.AddAPIService(supervisor.NewHTTPService(server, cfg.Server.ShutdownTimeout))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Apiarius stopped")
}
