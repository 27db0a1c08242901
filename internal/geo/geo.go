// Apiarius - Honeypot Telemetry Analytics and Session Risk Scoring
// Copyright 2026 P. Moreau (pmoreau84)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmoreau84/apiarius

// Package geo enriches attacker IPs with location and ASN data. The actual
// lookup is an external dependency behind the Resolver interface; this
// package adds the operational shell around it: an LRU cache so repeat
// attackers cost one lookup, a circuit breaker so a failing provider cannot
// stall ingestion, and a private-address short circuit.
package geo

import (
	"context"
	"fmt"
	"net/netip"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/pmoreau84/apiarius/internal/logging"
	"github.com/pmoreau84/apiarius/internal/models"
)

// Resolver performs the actual geolocation lookup. Implementations are
// expected to be bounded-latency and independently failing; the Service
// treats every error as a degradation, never a pipeline fault.
type Resolver interface {
	Lookup(ctx context.Context, ip string) (*models.GeoInfo, error)
}

// Config tunes the cache and breaker around the resolver. An empty
// EndpointURL disables geolocation entirely; sessions then carry no geo
// data and KPI rollups bucket them under "unknown".
type Config struct {
	EndpointURL      string        `koanf:"endpoint_url" json:"endpoint_url"`
	CacheSize        int           `koanf:"cache_size" json:"cache_size" validate:"min=1"`
	FailureThreshold uint32        `koanf:"failure_threshold" json:"failure_threshold"`
	BreakerTimeout   time.Duration `koanf:"breaker_timeout" json:"breaker_timeout"`
	LookupTimeout    time.Duration `koanf:"lookup_timeout" json:"lookup_timeout"`
}

// DefaultConfig returns production geo settings.
func DefaultConfig() Config {
	return Config{
		CacheSize:        8192,
		FailureThreshold: 5,
		BreakerTimeout:   30 * time.Second,
		LookupTimeout:    2 * time.Second,
	}
}

// Service is the cached, breaker-protected front to a Resolver.
type Service struct {
	resolver Resolver
	cache    *lru.Cache[string, *models.GeoInfo]
	breaker  *gobreaker.CircuitBreaker[*models.GeoInfo]
	timeout  time.Duration
	log      zerolog.Logger
}

// New builds a Service around the given resolver.
func New(resolver Resolver, cfg Config) (*Service, error) {
	cache, err := lru.New[string, *models.GeoInfo](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("geo: cache: %w", err)
	}

	s := &Service{
		resolver: resolver,
		cache:    cache,
		timeout:  cfg.LookupTimeout,
		log:      logging.With().Str("component", "geo").Logger(),
	}
	s.breaker = gobreaker.NewCircuitBreaker[*models.GeoInfo](gobreaker.Settings{
		Name:    "geo-resolver",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("geo resolver breaker state change")
		},
	})
	return s, nil
}

// Resolve returns location data for an IP. Private and loopback addresses
// short-circuit to a synthetic "PRIVATE" record without touching the
// resolver. On any failure (bad IP, open breaker, resolver error) it returns
// models.ErrGeoUnavailable; callers degrade that IP to "unknown" rather than
// failing the event.
func (s *Service) Resolve(ctx context.Context, ip string) (*models.GeoInfo, error) {
	if ip == "" {
		return nil, fmt.Errorf("geo: empty ip: %w", models.ErrGeoUnavailable)
	}

	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return nil, fmt.Errorf("geo: parse %q: %w", ip, models.ErrGeoUnavailable)
	}
	if addr.IsPrivate() || addr.IsLoopback() || addr.IsLinkLocalUnicast() || addr.IsUnspecified() {
		return &models.GeoInfo{CountryCode: "PRIVATE", CountryName: "Private Network"}, nil
	}

	if info, ok := s.cache.Get(ip); ok {
		return info, nil
	}

	info, err := s.breaker.Execute(func() (*models.GeoInfo, error) {
		lookupCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return s.resolver.Lookup(lookupCtx, ip)
	})
	if err != nil {
		s.log.Debug().Err(err).Str("ip", ip).Msg("geo lookup failed")
		return nil, fmt.Errorf("geo: lookup %s: %w", ip, models.ErrGeoUnavailable)
	}
	if info == nil {
		return nil, fmt.Errorf("geo: no data for %s: %w", ip, models.ErrGeoUnavailable)
	}

	s.cache.Add(ip, info)
	return info, nil
}

// BreakerState exposes the breaker state for health reporting.
func (s *Service) BreakerState() string {
	return s.breaker.State().String()
}

// CacheLen reports how many IPs are currently cached.
func (s *Service) CacheLen() int {
	return s.cache.Len()
}
