// Apiarius - Honeypot Telemetry Analytics and Session Risk Scoring
// Copyright 2026 P. Moreau (pmoreau84)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmoreau84/apiarius

package models

import "errors"

var (
	// ErrMalformedEvent marks an event missing required fields or carrying an
	// unparsable payload. The event is rejected and logged; ingestion continues.
	ErrMalformedEvent = errors.New("malformed event")

	// ErrStaleEvent marks an event addressed to a closed session. Closed is
	// terminal and the reopen policy is reject, so the event is dropped.
	ErrStaleEvent = errors.New("stale event for closed session")

	// ErrSessionNotFound is returned by point lookups for unknown session ids.
	ErrSessionNotFound = errors.New("session not found")

	// ErrGeoUnavailable signals that geolocation lookup failed or the breaker
	// is open. Geographic fields degrade to unknown; nothing else fails.
	ErrGeoUnavailable = errors.New("geolocation unavailable")
)
