// Apiarius - Honeypot Telemetry Analytics and Session Risk Scoring
// Copyright 2026 P. Moreau (pmoreau84)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmoreau84/apiarius

package api

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/pmoreau84/apiarius/internal/cowrie"
	"github.com/pmoreau84/apiarius/internal/logging"
	"github.com/pmoreau84/apiarius/internal/mitre"
	"github.com/pmoreau84/apiarius/internal/models"
)

// maxIngestBody caps ingest request bodies; Cowrie batches stay well under it.
const maxIngestBody = 4 << 20

// Pipeline is the slice of the session aggregator the handlers need.
type Pipeline interface {
	Ingest(ctx context.Context, ev models.NormalizedEvent) error
	Get(sessionID string) (*models.Session, error)
	Explain(sessionID string) (models.ScoreBreakdown, error)
	Recent(n int) []*models.Session
	Count() int
}

// KPIProvider serves prebuilt snapshots; handlers never trigger rebuilds.
type KPIProvider interface {
	Snapshot() *models.KPISnapshot
	Summary() models.AttackSummary
}

// Handler implements the HTTP endpoints.
type Handler struct {
	pipeline Pipeline
	kpi      KPIProvider
	mapper   *mitre.Mapper
	adapter  *cowrie.Adapter
}

// NewHandler wires the handler set.
func NewHandler(pipeline Pipeline, kpi KPIProvider, mapper *mitre.Mapper) *Handler {
	return &Handler{
		pipeline: pipeline,
		kpi:      kpi,
		mapper:   mapper,
		adapter:  cowrie.New(),
	}
}

// Ingest accepts one normalized event.
// POST /api/v1/ingest
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	var ev models.NormalizedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if err := h.pipeline.Ingest(r.Context(), ev); err != nil {
		h.writeIngestError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// IngestCowrie accepts raw Cowrie JSON, either a single object or
// newline-delimited log lines. Unmapped event ids are skipped, stale
// events are counted but do not fail the batch.
// POST /api/v1/ingest/cowrie
func (h *Handler) IngestCowrie(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	var accepted, skipped, stale int
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), maxIngestBody)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		ev, err := h.adapter.Map(line)
		if err != nil {
			if errors.Is(err, cowrie.ErrSkipped) {
				skipped++
				continue
			}
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := h.pipeline.Ingest(r.Context(), ev); err != nil {
			if errors.Is(err, models.ErrStaleEvent) {
				stale++
				continue
			}
			h.writeIngestError(w, err)
			return
		}
		accepted++
	}
	if err := scanner.Err(); err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]int{
		"accepted": accepted,
		"skipped":  skipped,
		"stale":    stale,
	})
}

// KPI serves the current snapshot.
// GET /api/v1/kpi
func (h *Handler) KPI(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.kpi.Snapshot())
}

// KPISummary serves the executive rollup.
// GET /api/v1/kpi/summary
func (h *Handler) KPISummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.kpi.Summary())
}

// RecentSessions lists sessions by most recent activity.
// GET /api/v1/sessions/recent?limit=10
func (h *Handler) RecentSessions(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if n > 100 {
			n = 100
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": h.pipeline.Recent(limit),
	})
}

// Session serves one full session view.
// GET /api/v1/sessions/{id}
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	sess, err := h.pipeline.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// SessionBreakdown explains one session's danger score.
// GET /api/v1/sessions/{id}/breakdown
func (h *Handler) SessionBreakdown(w http.ResponseWriter, r *http.Request) {
	breakdown, err := h.pipeline.Explain(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

// Techniques serves the technique catalog for dashboard tooltips.
// GET /api/v1/mitre/techniques
func (h *Handler) Techniques(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"techniques": h.mapper.Catalog(),
		"tactics":    h.mapper.Tactics(),
	})
}

// Health reports liveness and basic load.
// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": h.pipeline.Count(),
	})
}

func (h *Handler) writeIngestError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrMalformedEvent):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrStaleEvent):
		writeError(w, http.StatusConflict, err.Error())
	default:
		logging.Error().Err(err).Msg("ingest failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	defer func() { _ = r.Body.Close() }()
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxIngestBody))
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
