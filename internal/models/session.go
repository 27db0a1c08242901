// Apiarius - Honeypot Telemetry Analytics and Session Risk Scoring
// Copyright 2026 P. Moreau (pmoreau84)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmoreau84/apiarius

package models

import "time"

// SessionState tracks the lifecycle of a session. Transitions are strictly
// forward: OPEN -> ACTIVE -> CLOSED.
type SessionState string

const (
	SessionOpen   SessionState = "open"
	SessionActive SessionState = "active"
	SessionClosed SessionState = "closed"
)

// DangerLevel is the discrete risk rating derived from the danger score.
type DangerLevel string

const (
	DangerCritical DangerLevel = "critical"
	DangerHigh     DangerLevel = "high"
	DangerMedium   DangerLevel = "medium"
	DangerLow      DangerLevel = "low"
	DangerMinimal  DangerLevel = "minimal"
)

// DangerLevelFromScore maps a 0-100 score to its level. Thresholds use >=
// with no gaps or overlaps: 80 critical, 50 high, 25 medium, 1 low, 0 minimal.
func DangerLevelFromScore(score int) DangerLevel {
	switch {
	case score >= 80:
		return DangerCritical
	case score >= 50:
		return DangerHigh
	case score >= 25:
		return DangerMedium
	case score >= 1:
		return DangerLow
	default:
		return DangerMinimal
	}
}

// AttackerType is the bot/human verdict for a session.
type AttackerType string

const (
	AttackerBot     AttackerType = "bot"
	AttackerHuman   AttackerType = "human"
	AttackerHybrid  AttackerType = "hybrid"
	AttackerUnknown AttackerType = "unknown"
)

// GeoInfo carries the geolocation enrichment for a source IP. Produced by an
// external resolver; the pipeline only joins on it.
type GeoInfo struct {
	CountryCode string  `json:"country_code,omitempty"`
	CountryName string  `json:"country_name,omitempty"`
	City        string  `json:"city,omitempty"`
	Latitude    float64 `json:"latitude,omitempty"`
	Longitude   float64 `json:"longitude,omitempty"`
	ASN         int     `json:"asn,omitempty"`
	ASNOrg      string  `json:"asn_org,omitempty"`
}

// Session is the aggregate root: the reconstructed record of one attacker's
// interaction with a honeypot. Owned and mutated only by the session
// aggregator; values handed to consumers are deep copies.
type Session struct {
	ID           string       `json:"session_id"`
	SrcIP        string       `json:"src_ip,omitempty"`
	Sensor       string       `json:"sensor,omitempty"`
	HoneypotType string       `json:"honeypot_type,omitempty"`
	State        SessionState `json:"state"`

	OpenTime     time.Time  `json:"open_time"`
	LastActivity time.Time  `json:"last_activity"`
	CloseTime    *time.Time `json:"close_time,omitempty"`
	DurationSec  float64    `json:"duration_sec,omitempty"`

	// Auth activity.
	Usernames        []string    `json:"usernames,omitempty"`
	PasswordsTried   []string    `json:"passwords_tried,omitempty"`
	AuthSuccesses    int         `json:"auth_successes"`
	AuthFailures     int         `json:"auth_failures"`
	AuthFailureTimes []time.Time `json:"auth_failure_times,omitempty"`

	// Classified content, append-only and time-ordered by arrival.
	Commands       []Command  `json:"commands,omitempty"`
	CategoriesSeen []Category `json:"categories_seen,omitempty"`
	MaxSeverity    Severity   `json:"max_severity"`
	TechniqueIDs   []string   `json:"technique_ids,omitempty"`

	// Derived risk picture, recomputed from full session state on every update.
	DangerScore       int          `json:"danger_score"`
	DangerLevel       DangerLevel  `json:"danger_level"`
	AttackerType      AttackerType `json:"attacker_type"`
	BotConfidence     float64      `json:"bot_confidence,omitempty"`
	BotSignatures     []string     `json:"bot_signatures,omitempty"`
	AttackPhase       string       `json:"attack_phase,omitempty"`
	KillChainProgress float64      `json:"kill_chain_progress,omitempty"`

	Geo *GeoInfo `json:"geo,omitempty"`
}

// HasCategory reports whether the session has seen the given category.
func (s *Session) HasCategory(c Category) bool {
	for _, seen := range s.CategoriesSeen {
		if seen == c {
			return true
		}
	}
	return false
}

// CommandTexts returns the raw command strings in arrival order.
func (s *Session) CommandTexts() []string {
	out := make([]string, len(s.Commands))
	for i, c := range s.Commands {
		out[i] = c.Text
	}
	return out
}

// Clone returns a deep copy safe to hand outside the aggregator.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Usernames = append([]string(nil), s.Usernames...)
	cp.PasswordsTried = append([]string(nil), s.PasswordsTried...)
	cp.AuthFailureTimes = append([]time.Time(nil), s.AuthFailureTimes...)
	cp.Commands = make([]Command, len(s.Commands))
	for i, c := range s.Commands {
		cc := c
		cc.Tags = append([]string(nil), c.Tags...)
		cc.TechniqueIDs = append([]string(nil), c.TechniqueIDs...)
		cp.Commands[i] = cc
	}
	cp.CategoriesSeen = append([]Category(nil), s.CategoriesSeen...)
	cp.TechniqueIDs = append([]string(nil), s.TechniqueIDs...)
	cp.BotSignatures = append([]string(nil), s.BotSignatures...)
	if s.CloseTime != nil {
		t := *s.CloseTime
		cp.CloseTime = &t
	}
	if s.Geo != nil {
		g := *s.Geo
		cp.Geo = &g
	}
	return &cp
}

// ScoreBreakdown explains how a danger score was derived. Ephemeral and
// advisory; never persisted as authoritative state.
type ScoreBreakdown struct {
	Total            int    `json:"total"`
	SeverityPoints   int    `json:"severity_points"`
	CategoryBonus    int    `json:"category_bonus"`
	AuthPoints       int    `json:"auth_points"`
	VolumePoints     int    `json:"volume_points"`
	PromotionFloor   int    `json:"promotion_floor,omitempty"`
	CriticalCommands int    `json:"critical_commands"`
	HighCommands     int    `json:"high_commands"`
	UniqueCategories int    `json:"unique_categories"`
	Summary          string `json:"summary,omitempty"`
}
