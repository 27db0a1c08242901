// Apiarius - Honeypot Telemetry Analytics and Session Risk Scoring
// Copyright 2026 P. Moreau (pmoreau84)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmoreau84/apiarius

// Package scoring turns a session's accumulated signals into a bounded danger
// score and level. The score is a pure function of the session's classified
// commands, auth counters, and duration: recomputing it from the same state
// always yields the same result, and adding a signal never lowers it.
package scoring

import (
	"fmt"
	"strings"

	"github.com/pmoreau84/apiarius/internal/models"
)

// Weights holds every scoring constant. All contributions are additive and
// individually capped so no single signal can saturate the scale alone.
type Weights struct {
	SeverityPoints map[models.Severity]int
	CategoryBonus  map[models.Category]int

	// Brute force: applied when total auth attempts exceed the threshold.
	BruteForceThreshold  int
	BruteForcePerAttempt int
	BruteForceCap        int

	// A successful login with time to act is worth more than a drive-by.
	LongSessionSec   float64
	LongSessionBonus int

	// Many commands in a very short window reads as automation.
	FastSessionSec         float64
	FastSessionMinCommands int
	FastSessionBonus       int

	// Signal combinations that force the score to at least the critical
	// threshold regardless of the additive total.
	PromotionFloor         int
	ImpactPromotionPoints  int
	CriticalPromotionCount int

	MaxScore int
}

// DefaultWeights returns the production scoring constants.
func DefaultWeights() Weights {
	return Weights{
		SeverityPoints: map[models.Severity]int{
			models.SeverityCritical: 25,
			models.SeverityHigh:     15,
			models.SeverityMedium:   8,
			models.SeverityLow:      3,
			models.SeverityInfo:     1,
		},
		CategoryBonus: map[models.Category]int{
			models.CategoryCredential: 15,
			models.CategoryPersist:    20,
			models.CategoryPrivesc:    15,
			models.CategoryLateral:    15,
			models.CategoryExfil:      20,
			models.CategoryImpact:     25,
			models.CategoryDownload:   10,
			models.CategoryEvasion:    10,
		},
		BruteForceThreshold:    5,
		BruteForcePerAttempt:   2,
		BruteForceCap:          20,
		LongSessionSec:         60,
		LongSessionBonus:       5,
		FastSessionSec:         10,
		FastSessionMinCommands: 5,
		FastSessionBonus:       10,
		PromotionFloor:         80,
		ImpactPromotionPoints:  20,
		CriticalPromotionCount: 2,
		MaxScore:               100,
	}
}

// Scorer computes danger scores. Safe for concurrent use; it holds no
// per-session state.
type Scorer struct {
	w Weights
}

// New builds a Scorer with the given weights.
func New(w Weights) *Scorer {
	return &Scorer{w: w}
}

// NewDefault builds a Scorer with production weights.
func NewDefault() *Scorer {
	return New(DefaultWeights())
}

// Score computes the danger score and level for a session from its current
// accumulated state. The session is read, never mutated.
func (sc *Scorer) Score(s *models.Session) (int, models.DangerLevel, models.ScoreBreakdown) {
	var b models.ScoreBreakdown

	impactPoints := 0
	for _, cmd := range s.Commands {
		pts := sc.w.SeverityPoints[cmd.Severity]
		b.SeverityPoints += pts
		switch cmd.Severity {
		case models.SeverityCritical:
			b.CriticalCommands++
		case models.SeverityHigh:
			b.HighCommands++
		}
		if cmd.Category == models.CategoryImpact {
			impactPoints += pts
		}
	}

	b.UniqueCategories = len(s.CategoriesSeen)
	for _, cat := range s.CategoriesSeen {
		b.CategoryBonus += sc.w.CategoryBonus[cat]
	}

	attempts := s.AuthSuccesses + s.AuthFailures
	if attempts > sc.w.BruteForceThreshold {
		pts := attempts * sc.w.BruteForcePerAttempt
		if pts > sc.w.BruteForceCap {
			pts = sc.w.BruteForceCap
		}
		b.AuthPoints += pts
	}
	if s.AuthSuccesses > 0 && s.DurationSec > sc.w.LongSessionSec {
		b.AuthPoints += sc.w.LongSessionBonus
	}
	if s.DurationSec > 0 && s.DurationSec < sc.w.FastSessionSec && len(s.Commands) > sc.w.FastSessionMinCommands {
		b.VolumePoints += sc.w.FastSessionBonus
	}

	total := b.SeverityPoints + b.CategoryBonus + b.AuthPoints + b.VolumePoints
	if total > sc.w.MaxScore {
		total = sc.w.MaxScore
	}

	if total < sc.w.PromotionFloor && sc.promoted(s, &b, impactPoints) {
		total = sc.w.PromotionFloor
		b.PromotionFloor = sc.w.PromotionFloor
	}

	b.Total = total
	level := models.DangerLevelFromScore(total)
	b.Summary = sc.summary(s, total, level)
	return total, level, b
}

// promoted reports whether a signal combination forces the score to the
// critical floor: heavy impact activity, repeated critical commands, or
// credential access combined with persistence or exfiltration.
func (sc *Scorer) promoted(s *models.Session, b *models.ScoreBreakdown, impactPoints int) bool {
	switch {
	case impactPoints > sc.w.ImpactPromotionPoints:
		return true
	case b.CriticalCommands >= sc.w.CriticalPromotionCount:
		return true
	case s.HasCategory(models.CategoryPersist) && s.HasCategory(models.CategoryCredential):
		return true
	case s.HasCategory(models.CategoryExfil) && s.HasCategory(models.CategoryCredential):
		return true
	}
	return false
}

func (sc *Scorer) summary(s *models.Session, total int, level models.DangerLevel) string {
	var parts []string

	switch level {
	case models.DangerCritical:
		parts = append(parts, "CRITICAL THREAT")
	case models.DangerHigh:
		parts = append(parts, "High risk session")
	case models.DangerMedium:
		parts = append(parts, "Suspicious activity")
	case models.DangerLow:
		parts = append(parts, "Minor concerns")
	default:
		parts = append(parts, "Normal activity")
	}

	var activities []string
	if s.HasCategory(models.CategoryCredential) {
		activities = append(activities, "credential theft")
	}
	if s.HasCategory(models.CategoryPersist) {
		activities = append(activities, "persistence")
	}
	if s.HasCategory(models.CategoryLateral) {
		activities = append(activities, "lateral movement")
	}
	if s.HasCategory(models.CategoryExfil) {
		activities = append(activities, "data exfiltration")
	}
	if s.HasCategory(models.CategoryImpact) {
		activities = append(activities, "destructive actions")
	}
	if len(activities) > 0 {
		parts = append(parts, "("+strings.Join(activities, ", ")+")")
	}

	parts = append(parts, fmt.Sprintf("- %d commands", len(s.Commands)))
	parts = append(parts, fmt.Sprintf("- Score: %d/100", total))
	return strings.Join(parts, " ")
}
