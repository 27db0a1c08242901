// Apiarius - Honeypot Telemetry Analytics and Session Risk Scoring
// Copyright 2026 P. Moreau (pmoreau84)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmoreau84/apiarius

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmoreau84/apiarius/internal/botdetect"
	"github.com/pmoreau84/apiarius/internal/classify"
	"github.com/pmoreau84/apiarius/internal/kpi"
	"github.com/pmoreau84/apiarius/internal/mitre"
	"github.com/pmoreau84/apiarius/internal/models"
	"github.com/pmoreau84/apiarius/internal/scoring"
	"github.com/pmoreau84/apiarius/internal/session"
)

type testAPI struct {
	server *httptest.Server
	agg    *session.Aggregator
	engine *kpi.Engine
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	classifier, err := classify.New()
	require.NoError(t, err)
	mapper, err := mitre.NewMapper(classifier.Rules())
	require.NoError(t, err)

	agg := session.New(
		session.DefaultConfig(),
		classifier,
		mapper,
		scoring.NewDefault(),
		botdetect.NewDefault(),
		nil,
		nil,
	)
	engine := kpi.NewEngine(kpi.DefaultConfig(), agg, nil)

	router := NewRouter(Config{}, NewHandler(agg, engine, mapper), nil)
	server := httptest.NewServer(router.Setup())
	t.Cleanup(server.Close)

	return &testAPI{server: server, agg: agg, engine: engine}
}

func (a *testAPI) post(t *testing.T, path, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := http.Post(a.server.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func (a *testAPI) get(t *testing.T, path string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := http.Get(a.server.URL + path)
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func eventJSON(t *testing.T, ev models.NormalizedEvent) string {
	t.Helper()
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	return string(data)
}

func TestIngestEndpoint(t *testing.T) {
	api := newTestAPI(t)

	ev := models.NormalizedEvent{
		EventID:     "e1",
		SessionID:   "web-1",
		Timestamp:   time.Now().UTC(),
		Kind:        models.EventKindCommand,
		SrcIP:       "203.0.113.4",
		CommandText: "cat /etc/shadow",
	}
	resp, body := api.post(t, "/api/v1/ingest", eventJSON(t, ev))
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "accepted", body["status"])

	sess, err := api.agg.Get("web-1")
	require.NoError(t, err)
	assert.Len(t, sess.Commands, 1)
}

func TestIngestRejectsBadJSON(t *testing.T) {
	api := newTestAPI(t)

	resp, body := api.post(t, "/api/v1/ingest", "{not json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "invalid JSON")
}

func TestIngestRejectsMalformedEvent(t *testing.T) {
	api := newTestAPI(t)

	resp, _ := api.post(t, "/api/v1/ingest", `{"event_id":"e1","kind":"command"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIngestClosedSessionConflict(t *testing.T) {
	api := newTestAPI(t)

	now := time.Now().UTC()
	openEv := models.NormalizedEvent{
		EventID: "e1", SessionID: "s1", Timestamp: now, Kind: models.EventKindSessionOpen,
	}
	closeEv := models.NormalizedEvent{
		EventID: "e2", SessionID: "s1", Timestamp: now.Add(time.Second), Kind: models.EventKindSessionClose,
	}
	lateEv := models.NormalizedEvent{
		EventID: "e3", SessionID: "s1", Timestamp: now.Add(2 * time.Second),
		Kind: models.EventKindCommand, CommandText: "ls",
	}

	resp, _ := api.post(t, "/api/v1/ingest", eventJSON(t, openEv))
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp, _ = api.post(t, "/api/v1/ingest", eventJSON(t, closeEv))
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp, _ = api.post(t, "/api/v1/ingest", eventJSON(t, lateEv))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestIngestCowrieBatch(t *testing.T) {
	api := newTestAPI(t)

	lines := strings.Join([]string{
		`{"eventid":"cowrie.session.connect","session":"cw1","timestamp":"2026-03-01T12:00:00Z","src_ip":"203.0.113.9"}`,
		`{"eventid":"cowrie.login.failed","session":"cw1","timestamp":"2026-03-01T12:00:01Z","username":"root","password":"admin"}`,
		`{"eventid":"cowrie.command.input","session":"cw1","timestamp":"2026-03-01T12:00:02Z","input":"uname -a"}`,
		`{"eventid":"cowrie.session.file_download","session":"cw1","timestamp":"2026-03-01T12:00:03Z"}`,
		`{"eventid":"cowrie.session.closed","session":"cw1","timestamp":"2026-03-01T12:00:10Z","duration":10}`,
	}, "\n")

	resp, body := api.post(t, "/api/v1/ingest/cowrie", lines)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, float64(4), body["accepted"])
	assert.Equal(t, float64(1), body["skipped"])
	assert.Equal(t, float64(0), body["stale"])

	sess, err := api.agg.Get("cw1")
	require.NoError(t, err)
	assert.Equal(t, models.SessionClosed, sess.State)
	assert.Equal(t, 1, sess.AuthFailures)
	assert.Len(t, sess.Commands, 1)
}

func TestIngestCowrieMalformedLine(t *testing.T) {
	api := newTestAPI(t)

	resp, _ := api.post(t, "/api/v1/ingest/cowrie", `{"session":"x"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestKPIEndpoints(t *testing.T) {
	api := newTestAPI(t)

	ev := models.NormalizedEvent{
		EventID: "e1", SessionID: "s1", Timestamp: time.Now().UTC(),
		Kind: models.EventKindCommand, SrcIP: "203.0.113.4", CommandText: "cat /etc/shadow",
	}
	resp, _ := api.post(t, "/api/v1/ingest", eventJSON(t, ev))
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	api.engine.Refresh()

	resp, body := api.get(t, "/api/v1/kpi")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["total_sessions"])

	resp, body = api.get(t, "/api/v1/kpi/summary")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["threat_level"])
}

func TestSessionEndpoints(t *testing.T) {
	api := newTestAPI(t)

	ev := models.NormalizedEvent{
		EventID: "e1", SessionID: "s1", Timestamp: time.Now().UTC(),
		Kind: models.EventKindCommand, SrcIP: "203.0.113.4", CommandText: "cat /etc/shadow",
	}
	resp, _ := api.post(t, "/api/v1/ingest", eventJSON(t, ev))
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp, body := api.get(t, "/api/v1/sessions/s1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "s1", body["session_id"])

	resp, body = api.get(t, "/api/v1/sessions/s1/breakdown")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(25), body["severity_points"])

	resp, _ = api.get(t, "/api/v1/sessions/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = api.get(t, "/api/v1/sessions/recent?limit=5")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	sessions, ok := body["sessions"].([]interface{})
	require.True(t, ok)
	assert.Len(t, sessions, 1)

	resp, _ = api.get(t, "/api/v1/sessions/recent?limit=zero")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTechniquesEndpoint(t *testing.T) {
	api := newTestAPI(t)

	resp, body := api.get(t, "/api/v1/mitre/techniques")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	techniques, ok := body["techniques"].([]interface{})
	require.True(t, ok)
	assert.Greater(t, len(techniques), 50)
	tactics, ok := body["tactics"].([]interface{})
	require.True(t, ok)
	assert.Len(t, tactics, 14)
}

func TestHealthEndpoint(t *testing.T) {
	api := newTestAPI(t)

	resp, body := api.get(t, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(0), body["sessions"])
}
