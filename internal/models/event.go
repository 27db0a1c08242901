// Apiarius - Honeypot Telemetry Analytics and Session Risk Scoring
// Copyright 2026 P. Moreau (pmoreau84)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmoreau84/apiarius

package models

import (
	"fmt"
	"time"
)

// EventKind identifies the type of a normalized honeypot event.
type EventKind string

const (
	// EventKindSessionOpen marks the start of an attacker interaction.
	EventKindSessionOpen EventKind = "session_open"

	// EventKindAuthAttempt is a login attempt; Success distinguishes outcome.
	EventKindAuthAttempt EventKind = "auth_attempt"

	// EventKindCommand is a shell command typed inside the honeypot.
	EventKindCommand EventKind = "command"

	// EventKindSessionClose marks the end of an attacker interaction.
	EventKindSessionClose EventKind = "session_close"
)

// Valid reports whether k is one of the known event kinds.
func (k EventKind) Valid() bool {
	switch k {
	case EventKindSessionOpen, EventKindAuthAttempt, EventKindCommand, EventKindSessionClose:
		return true
	}
	return false
}

// NormalizedEvent is the unit of work consumed by the pipeline. Adapters
// translate a honeypot's native log shape into this format before Ingest.
// Immutable once produced.
type NormalizedEvent struct {
	EventID      string    `json:"event_id" validate:"required"`
	SessionID    string    `json:"session_id" validate:"required"`
	Timestamp    time.Time `json:"timestamp" validate:"required"`
	Kind         EventKind `json:"kind" validate:"required"`
	SrcIP        string    `json:"src_ip,omitempty"`
	SrcPort      int       `json:"src_port,omitempty"`
	DstPort      int       `json:"dst_port,omitempty"`
	Protocol     string    `json:"protocol,omitempty"`
	Sensor       string    `json:"sensor,omitempty"`
	HoneypotType string    `json:"honeypot_type,omitempty"`

	// Auth attempt payload.
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Success  bool   `json:"success,omitempty"`

	// Command payload.
	CommandText string `json:"command_text,omitempty"`

	// Close payload; seconds between open and close as reported by the sensor.
	DurationSec float64 `json:"duration_sec,omitempty"`
}

// Validate checks the fields required for the event to be processable.
// A failure here is a MalformedEventError condition.
func (e *NormalizedEvent) Validate() error {
	if e.SessionID == "" {
		return fmt.Errorf("%w: missing session_id", ErrMalformedEvent)
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrMalformedEvent)
	}
	if !e.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrMalformedEvent, e.Kind)
	}
	if e.Kind == EventKindCommand && e.CommandText == "" {
		return fmt.Errorf("%w: command event without command_text", ErrMalformedEvent)
	}
	return nil
}

// Digest returns a stable identity for duplicate detection. Two events with
// the same digest are the same logical event and must not be double-counted.
func (e *NormalizedEvent) Digest() string {
	return fmt.Sprintf("%s|%d|%s|%s|%s|%s|%t",
		e.SessionID, e.Timestamp.UnixNano(), e.Kind,
		e.Username, e.Password, e.CommandText, e.Success)
}
