// Apiarius - Honeypot Telemetry Analytics and Session Risk Scoring
// Copyright 2026 P. Moreau (pmoreau84)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmoreau84/apiarius

package session

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pmoreau84/apiarius/internal/logging"
)

// Sweeper periodically closes idle sessions. Runs as a supervised service;
// returning the context error lets the supervisor treat shutdown as normal.
type Sweeper struct {
	agg      *Aggregator
	interval time.Duration
	log      zerolog.Logger
}

// NewSweeper builds the idle sweep service for an aggregator.
func NewSweeper(agg *Aggregator) *Sweeper {
	return &Sweeper{
		agg:      agg,
		interval: agg.cfg.SweepInterval,
		log:      logging.With().Str("component", "sweeper").Logger(),
	}
}

// Serve runs the sweep loop until the context is canceled.
func (s *Sweeper) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info().Dur("interval", s.interval).Msg("idle sweeper started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			s.agg.CloseIdle(now)
		}
	}
}

func (s *Sweeper) String() string { return "session-sweeper" }
