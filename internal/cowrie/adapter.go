// Apiarius - Honeypot Telemetry Analytics and Session Risk Scoring
// Copyright 2026 P. Moreau (pmoreau84)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmoreau84/apiarius

// Package cowrie translates raw Cowrie JSON log lines into normalized
// pipeline events. Only the event ids the pipeline consumes are mapped;
// everything else is skipped, not rejected.
package cowrie

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/pmoreau84/apiarius/internal/models"
)

// ErrSkipped marks a Cowrie event id the pipeline has no use for.
var ErrSkipped = errors.New("cowrie event skipped")

// DefaultSensor names events whose log line carries no sensor field.
const DefaultSensor = "apiarius-local"

// honeypotType tags every Cowrie-sourced session.
const honeypotType = "cowrie"

// rawEvent is the wire shape of one Cowrie JSON log line. Cowrie emits many
// more fields; only the ones the mapping needs are decoded.
type rawEvent struct {
	EventID   string  `json:"eventid"`
	Session   string  `json:"session"`
	Timestamp string  `json:"timestamp"`
	Sensor    string  `json:"sensor"`
	SrcIP     string  `json:"src_ip"`
	SrcPort   int     `json:"src_port"`
	DstPort   int     `json:"dst_port"`
	Protocol  string  `json:"protocol"`
	Username  string  `json:"username"`
	Password  string  `json:"password"`
	Input     string  `json:"input"`
	Duration  float64 `json:"duration"`
}

// Adapter maps Cowrie log lines to normalized events.
type Adapter struct {
	sensorDefault string
	newEventID    func() string
}

// New returns an adapter with the default sensor name.
func New() *Adapter {
	return &Adapter{
		sensorDefault: DefaultSensor,
		newEventID:    func() string { return uuid.NewString() },
	}
}

// Map translates one raw Cowrie JSON log line. Unknown event ids return
// ErrSkipped; unparsable lines and missing required fields are malformed.
func (a *Adapter) Map(line []byte) (models.NormalizedEvent, error) {
	var raw rawEvent
	if err := json.Unmarshal(line, &raw); err != nil {
		return models.NormalizedEvent{}, fmt.Errorf("%w: %v", models.ErrMalformedEvent, err)
	}
	return a.mapRaw(raw)
}

func (a *Adapter) mapRaw(raw rawEvent) (models.NormalizedEvent, error) {
	if raw.EventID == "" {
		return models.NormalizedEvent{}, fmt.Errorf("%w: missing eventid", models.ErrMalformedEvent)
	}

	ev := models.NormalizedEvent{
		EventID:      a.newEventID(),
		SessionID:    raw.Session,
		SrcIP:        raw.SrcIP,
		SrcPort:      raw.SrcPort,
		DstPort:      raw.DstPort,
		Protocol:     raw.Protocol,
		Sensor:       raw.Sensor,
		HoneypotType: honeypotType,
	}
	if ev.Sensor == "" {
		ev.Sensor = a.sensorDefault
	}

	if raw.Timestamp != "" {
		ts, err := parseTimestamp(raw.Timestamp)
		if err != nil {
			return models.NormalizedEvent{}, fmt.Errorf("%w: bad timestamp %q", models.ErrMalformedEvent, raw.Timestamp)
		}
		ev.Timestamp = ts
	}

	switch raw.EventID {
	case "cowrie.session.connect":
		ev.Kind = models.EventKindSessionOpen

	case "cowrie.login.failed":
		ev.Kind = models.EventKindAuthAttempt
		ev.Username = raw.Username
		ev.Password = raw.Password

	case "cowrie.login.success":
		ev.Kind = models.EventKindAuthAttempt
		ev.Username = raw.Username
		ev.Password = raw.Password
		ev.Success = true

	case "cowrie.command.input":
		ev.Kind = models.EventKindCommand
		ev.CommandText = raw.Input

	case "cowrie.session.closed":
		ev.Kind = models.EventKindSessionClose
		ev.DurationSec = raw.Duration

	default:
		// file_download and the other Cowrie event ids carry nothing the
		// session model records.
		return models.NormalizedEvent{}, fmt.Errorf("%w: %s", ErrSkipped, raw.EventID)
	}

	if err := ev.Validate(); err != nil {
		return models.NormalizedEvent{}, err
	}
	return ev, nil
}

// MapBatch translates a slice of raw log lines, dropping skipped event ids.
// The first malformed line aborts the batch.
func (a *Adapter) MapBatch(lines [][]byte) ([]models.NormalizedEvent, error) {
	out := make([]models.NormalizedEvent, 0, len(lines))
	for i, line := range lines {
		ev, err := a.Map(line)
		if err != nil {
			if errors.Is(err, ErrSkipped) {
				continue
			}
			return nil, fmt.Errorf("line %d: %w", i, err)
		}
		out = append(out, ev)
	}
	return out, nil
}

// cowrieTimeFormats are tried in order; Cowrie logs RFC3339 with and without
// sub-second precision depending on version.
var cowrieTimeFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999Z",
	"2006-01-02T15:04:05",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, format := range cowrieTimeFormats {
		if ts, err := time.Parse(format, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
