// Apiarius - Honeypot Telemetry Analytics and Session Risk Scoring
// Copyright 2026 P. Moreau (pmoreau84)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmoreau84/apiarius

package kpi

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/pmoreau84/apiarius/internal/bus"
	"github.com/pmoreau84/apiarius/internal/logging"
	"github.com/pmoreau84/apiarius/internal/metrics"
	"github.com/pmoreau84/apiarius/internal/models"
)

// Config tunes the KPI engine.
type Config struct {
	// Window is the time span every snapshot covers.
	Window time.Duration `koanf:"window" json:"window" validate:"gt=0"`

	// RefreshInterval forces a rebuild even without session changes, so
	// windowed aggregates age out.
	RefreshInterval time.Duration `koanf:"refresh_interval" json:"refresh_interval" validate:"gt=0"`

	// Debounce is the minimum spacing between change-driven rebuilds.
	Debounce time.Duration `koanf:"debounce" json:"debounce" validate:"gt=0"`

	// TopN bounds every top list; CoordinateCap bounds the map sample.
	TopN          int `koanf:"top_n" json:"top_n" validate:"gt=0"`
	CoordinateCap int `koanf:"coordinate_cap" json:"coordinate_cap" validate:"gt=0"`
}

// DefaultConfig mirrors the dashboard's 24h default view.
func DefaultConfig() Config {
	return Config{
		Window:          24 * time.Hour,
		RefreshInterval: 60 * time.Second,
		Debounce:        2 * time.Second,
		TopN:            10,
		CoordinateCap:   100,
	}
}

// SessionSource provides the session population to aggregate. Implementations
// must return deep copies.
type SessionSource interface {
	All() []*models.Session
}

// Engine owns the current snapshot. Rebuilds are driven by session-change
// notifications (debounced) and by a periodic fallback tick; readers always
// see a complete snapshot via an atomic pointer swap.
type Engine struct {
	cfg        Config
	source     SessionSource
	builder    *Builder
	subscriber message.Subscriber
	log        zerolog.Logger

	snap  atomic.Pointer[models.KPISnapshot]
	dirty atomic.Bool
	now   func() time.Time
}

// NewEngine wires the engine to its session source. subscriber may be nil;
// the engine then relies on the periodic refresh alone.
func NewEngine(cfg Config, source SessionSource, subscriber message.Subscriber) *Engine {
	e := &Engine{
		cfg:        cfg,
		source:     source,
		builder:    NewBuilder(cfg.Window, cfg.TopN, cfg.CoordinateCap),
		subscriber: subscriber,
		log:        logging.With().Str("component", "kpi").Logger(),
		now:        time.Now,
	}
	e.snap.Store(e.builder.Build(nil, e.now()))
	return e
}

// Snapshot returns the most recently published snapshot. Never nil.
func (e *Engine) Snapshot() *models.KPISnapshot {
	return e.snap.Load()
}

// Summary returns the executive rollup of the current snapshot.
func (e *Engine) Summary() models.AttackSummary {
	return Summarize(e.Snapshot())
}

// Refresh rebuilds and publishes a snapshot immediately.
func (e *Engine) Refresh() *models.KPISnapshot {
	start := time.Now()
	snap := e.builder.Build(e.source.All(), e.now())
	e.snap.Store(snap)
	metrics.KPIRefreshes.Inc()
	metrics.KPIRefreshDuration.Observe(time.Since(start).Seconds())
	return snap
}

// Serve runs the refresh loop until the context is canceled. Change
// notifications mark the engine dirty; the debounce tick folds bursts of
// changes into one rebuild, and the refresh interval guarantees progress
// when the store is quiet.
func (e *Engine) Serve(ctx context.Context) error {
	if e.subscriber != nil {
		msgs, err := e.subscriber.Subscribe(ctx, bus.TopicSessionChanged)
		if err != nil {
			return err
		}
		go func() {
			for msg := range msgs {
				e.dirty.Store(true)
				msg.Ack()
			}
		}()
	}

	debounce := time.NewTicker(e.cfg.Debounce)
	defer debounce.Stop()
	fallback := time.NewTicker(e.cfg.RefreshInterval)
	defer fallback.Stop()

	e.Refresh()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-debounce.C:
			if e.dirty.Swap(false) {
				e.Refresh()
			}
		case <-fallback.C:
			e.dirty.Store(false)
			e.Refresh()
		}
	}
}

func (e *Engine) String() string { return "kpi-engine" }
