// Apiarius - Honeypot Telemetry Analytics and Session Risk Scoring
// Copyright 2026 P. Moreau (pmoreau84)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmoreau84/apiarius

package websocket

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/pmoreau84/apiarius/internal/bus"
	"github.com/pmoreau84/apiarius/internal/logging"
	"github.com/pmoreau84/apiarius/internal/models"
)

// SnapshotSource provides the current aggregate view for debounced pushes.
type SnapshotSource interface {
	Snapshot() *models.KPISnapshot
	Summary() models.AttackSummary
}

// Broadcaster bridges the change bus to the hub: individual session changes
// go out immediately, while full KPI frames are debounced so a burst of
// ingested events produces one dashboard repaint instead of hundreds.
type Broadcaster struct {
	hub        *Hub
	source     SnapshotSource
	subscriber message.Subscriber
	interval   time.Duration
	dirty      atomic.Bool
	// last relayed change-feed sequence per session; Serve is the only
	// accessor, so no lock
	lastSeq map[string]uint64
	log     zerolog.Logger
}

// NewBroadcaster wires the bridge. interval is the minimum spacing between
// KPI frames.
func NewBroadcaster(hub *Hub, source SnapshotSource, subscriber message.Subscriber, interval time.Duration) *Broadcaster {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Broadcaster{
		hub:        hub,
		source:     source,
		subscriber: subscriber,
		interval:   interval,
		lastSeq:    make(map[string]uint64),
		log:        logging.With().Str("component", "broadcaster").Logger(),
	}
}

// Serve consumes change notifications until the context is canceled.
func (b *Broadcaster) Serve(ctx context.Context) error {
	msgs, err := b.subscriber.Subscribe(ctx, bus.TopicSessionChanged)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case msg, ok := <-msgs:
			if !ok {
				return ctx.Err()
			}
			change, err := bus.DecodeSessionChange(msg)
			msg.Ack()
			if err != nil {
				b.log.Warn().Err(err).Msg("undecodable session change")
				continue
			}
			b.dirty.Store(true)
			// Concurrent ingests for one session may publish out of order;
			// relay only frames newer than the last one sent.
			if change.Seq <= b.lastSeq[change.SessionID] {
				continue
			}
			b.lastSeq[change.SessionID] = change.Seq
			b.hub.BroadcastSessionChange(change)

		case <-ticker.C:
			if b.dirty.Swap(false) && b.source != nil {
				b.hub.BroadcastKPISnapshot(b.source.Snapshot())
				b.hub.BroadcastSummary(b.source.Summary())
			}
		}
	}
}

func (b *Broadcaster) String() string { return "websocket-broadcaster" }
