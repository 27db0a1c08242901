// Apiarius - Honeypot Telemetry Analytics and Session Risk Scoring
// Copyright 2026 P. Moreau (pmoreau84)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmoreau84/apiarius

package geo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/pmoreau84/apiarius/internal/models"
)

// HTTPResolver queries an ip-api.com compatible JSON endpoint. The
// endpoint is expected to answer GET {base}/json/{ip} with a body like:
//
//	{"status":"success","country":"France","countryCode":"FR",
//	 "city":"Paris","lat":48.85,"lon":2.35,"as":"AS3215 Orange S.A."}
type HTTPResolver struct {
	baseURL string
	client  *http.Client
}

type resolverResponse struct {
	Status      string  `json:"status"`
	Message     string  `json:"message,omitempty"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	City        string  `json:"city"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	AS          string  `json:"as"`
}

// NewHTTPResolver builds a resolver against baseURL. The per-request
// deadline comes from the caller's context; the client timeout is only
// a backstop for contexts without one.
func NewHTTPResolver(baseURL string) *HTTPResolver {
	return &HTTPResolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Lookup implements Resolver.
func (r *HTTPResolver) Lookup(ctx context.Context, ip string) (*models.GeoInfo, error) {
	reqURL := fmt.Sprintf("%s/json/%s", r.baseURL, url.PathEscape(ip))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create geoip request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make geoip request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geoip request failed with status %d", resp.StatusCode)
	}

	var body resolverResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode geoip response: %w", err)
	}
	if body.Status != "success" {
		msg := body.Message
		if msg == "" {
			msg = "unknown error"
		}
		return nil, fmt.Errorf("geoip lookup failed: %s", msg)
	}

	info := &models.GeoInfo{
		CountryCode: body.CountryCode,
		CountryName: body.Country,
		City:        body.City,
		Latitude:    body.Lat,
		Longitude:   body.Lon,
	}
	info.ASN, info.ASNOrg = parseAS(body.AS)
	return info, nil
}

// parseAS splits ip-api's combined "AS3215 Orange S.A." field.
func parseAS(s string) (int, string) {
	if !strings.HasPrefix(s, "AS") {
		return 0, s
	}
	num, org, found := strings.Cut(s[2:], " ")
	asn, err := strconv.Atoi(num)
	if err != nil {
		return 0, s
	}
	if !found {
		return asn, ""
	}
	return asn, org
}
