// Apiarius - Honeypot Telemetry Analytics and Session Risk Scoring
// Copyright 2026 P. Moreau (pmoreau84)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmoreau84/apiarius

// Package models defines the canonical data shapes shared across the
// enrichment pipeline: normalized honeypot events, reconstructed sessions,
// classified commands, and published KPI snapshots.
//
// Events are immutable once produced by an adapter. Sessions are owned and
// mutated exclusively by the session aggregator; everything handed out of
// that package is a copy. KPI snapshots are rebuilt, never mutated in place
// once published.
package models
