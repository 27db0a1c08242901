// Apiarius - Honeypot Telemetry Analytics and Session Risk Scoring
// Copyright 2026 P. Moreau (pmoreau84)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmoreau84/apiarius

// Package bus is the in-process change feed between the session aggregator
// and its consumers (KPI engine, broadcaster). It rides on Watermill's
// gochannel Pub/Sub: no broker, no persistence, fan-out to every subscriber.
package bus

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	json "github.com/goccy/go-json"

	"github.com/pmoreau84/apiarius/internal/models"
)

// TopicSessionChanged carries one message per materially changed session.
const TopicSessionChanged = "sessions.changed"

// SessionChange is the payload published whenever a session mutates. Seq
// increases by one per mutation of a session; publication happens outside
// the session lock, so consumers that care about ordering must drop frames
// whose Seq is not above the last one seen for that session.
type SessionChange struct {
	SessionID   string              `json:"session_id"`
	Seq         uint64              `json:"seq"`
	SrcIP       string              `json:"src_ip,omitempty"`
	State       models.SessionState `json:"state"`
	DangerLevel models.DangerLevel  `json:"danger_level"`
	DangerScore int                 `json:"danger_score"`
	ChangedAt   time.Time           `json:"changed_at"`
}

// Bus owns the gochannel Pub/Sub. The same instance serves as publisher and
// subscriber factory; Close tears down all subscriptions.
type Bus struct {
	pubsub *gochannel.GoChannel
}

// New builds the in-process bus. Buffered so a briefly slow consumer does not
// stall event ingestion; persistence is off, late subscribers see only new
// changes.
func New(buffer int64) *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: buffer,
		}, NewWatermillLogger()),
	}
}

// Publisher returns the publishing side of the bus.
func (b *Bus) Publisher() message.Publisher { return b.pubsub }

// Subscriber returns the subscribing side of the bus.
func (b *Bus) Subscriber() message.Subscriber { return b.pubsub }

// Close shuts the Pub/Sub down and closes every subscriber channel.
func (b *Bus) Close() error { return b.pubsub.Close() }

// PublishSessionChange serializes and publishes one change notification.
func PublishSessionChange(pub message.Publisher, change SessionChange) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("bus: marshal session change: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := pub.Publish(TopicSessionChanged, msg); err != nil {
		return fmt.Errorf("bus: publish session change: %w", err)
	}
	return nil
}

// DecodeSessionChange parses a message from TopicSessionChanged.
func DecodeSessionChange(msg *message.Message) (SessionChange, error) {
	var change SessionChange
	if err := json.Unmarshal(msg.Payload, &change); err != nil {
		return SessionChange{}, fmt.Errorf("bus: decode session change: %w", err)
	}
	return change, nil
}
