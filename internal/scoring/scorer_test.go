// Apiarius - Honeypot Telemetry Analytics and Session Risk Scoring
// Copyright 2026 P. Moreau (pmoreau84)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmoreau84/apiarius

package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmoreau84/apiarius/internal/models"
)

func sessionWith(cmds []models.Command) *models.Session {
	s := &models.Session{ID: "s1", SrcIP: "203.0.113.10"}
	seen := make(map[models.Category]struct{})
	for _, c := range cmds {
		s.Commands = append(s.Commands, c)
		if _, ok := seen[c.Category]; !ok {
			seen[c.Category] = struct{}{}
			s.CategoriesSeen = append(s.CategoriesSeen, c.Category)
		}
		s.MaxSeverity = models.MaxSeverity(s.MaxSeverity, c.Severity)
	}
	return s
}

func cmd(cat models.Category, sev models.Severity) models.Command {
	return models.Command{Text: "x", Category: cat, Severity: sev}
}

func TestScoreEmptySession(t *testing.T) {
	sc := NewDefault()

	total, level, b := sc.Score(&models.Session{ID: "empty"})
	assert.Zero(t, total)
	assert.Equal(t, models.DangerMinimal, level)
	assert.Zero(t, b.SeverityPoints)
}

func TestScoreSingleBenignCommand(t *testing.T) {
	sc := NewDefault()

	s := sessionWith([]models.Command{cmd(models.CategoryBenign, models.SeverityInfo)})
	total, level, _ := sc.Score(s)
	assert.Equal(t, 1, total)
	assert.Equal(t, models.DangerLow, level)
}

func TestScoreMixedSessionReachesCritical(t *testing.T) {
	sc := NewDefault()

	// Three recon/low, one credential/critical, one persistence/high, plus one
	// failed and one successful login.
	s := sessionWith([]models.Command{
		cmd(models.CategoryRecon, models.SeverityLow),
		cmd(models.CategoryRecon, models.SeverityLow),
		cmd(models.CategoryRecon, models.SeverityLow),
		cmd(models.CategoryCredential, models.SeverityCritical),
		cmd(models.CategoryPersist, models.SeverityHigh),
	})
	s.AuthFailures = 1
	s.AuthSuccesses = 1

	total, level, b := sc.Score(s)
	// 9 severity from recon + 25 + 15, plus 15 + 20 category bonus.
	assert.GreaterOrEqual(t, total, 80)
	assert.Equal(t, models.DangerCritical, level)
	assert.Equal(t, 49, b.SeverityPoints)
	assert.Equal(t, 35, b.CategoryBonus)
}

func TestScoreBruteForceCapped(t *testing.T) {
	sc := NewDefault()

	s := &models.Session{ID: "bf", AuthFailures: 30}
	total, _, b := sc.Score(s)
	assert.Equal(t, 20, b.AuthPoints)
	assert.Equal(t, 20, total)

	// Below the threshold no brute-force points accrue.
	s = &models.Session{ID: "bf2", AuthFailures: 5}
	total, _, _ = sc.Score(s)
	assert.Zero(t, total)
}

func TestScoreLongSuccessfulSessionBonus(t *testing.T) {
	sc := NewDefault()

	s := sessionWith([]models.Command{cmd(models.CategoryRecon, models.SeverityLow)})
	s.AuthSuccesses = 1
	s.DurationSec = 120

	_, _, b := sc.Score(s)
	assert.Equal(t, 5, b.AuthPoints)
}

func TestScoreFastAutomatedSessionBonus(t *testing.T) {
	sc := NewDefault()

	cmds := make([]models.Command, 6)
	for i := range cmds {
		cmds[i] = cmd(models.CategoryRecon, models.SeverityInfo)
	}
	s := sessionWith(cmds)
	s.DurationSec = 4

	_, _, b := sc.Score(s)
	assert.Equal(t, 10, b.VolumePoints)
}

func TestScoreClampedAt100(t *testing.T) {
	sc := NewDefault()

	cmds := make([]models.Command, 20)
	for i := range cmds {
		cmds[i] = cmd(models.CategoryImpact, models.SeverityCritical)
	}
	total, level, _ := sc.Score(sessionWith(cmds))
	assert.Equal(t, 100, total)
	assert.Equal(t, models.DangerCritical, level)
}

func TestScorePromotionFloors(t *testing.T) {
	sc := NewDefault()

	tests := []struct {
		name string
		s    *models.Session
	}{
		{"two critical commands", sessionWith([]models.Command{
			cmd(models.CategoryCredential, models.SeverityCritical),
			cmd(models.CategoryCredential, models.SeverityCritical),
		})},
		{"persistence plus credential access", sessionWith([]models.Command{
			cmd(models.CategoryPersist, models.SeverityMedium),
			cmd(models.CategoryCredential, models.SeverityMedium),
		})},
		{"exfiltration plus credential access", sessionWith([]models.Command{
			cmd(models.CategoryExfil, models.SeverityMedium),
			cmd(models.CategoryCredential, models.SeverityMedium),
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, level, b := sc.Score(tt.s)
			assert.GreaterOrEqual(t, total, 80)
			assert.Equal(t, models.DangerCritical, level)
			if b.SeverityPoints+b.CategoryBonus+b.AuthPoints+b.VolumePoints < 80 {
				assert.Equal(t, 80, b.PromotionFloor)
			}
		})
	}
}

func TestScoreMonotonicInCriticalCommands(t *testing.T) {
	sc := NewDefault()

	base := sessionWith([]models.Command{
		cmd(models.CategoryRecon, models.SeverityLow),
		cmd(models.CategoryDownload, models.SeverityHigh),
	})
	before, _, _ := sc.Score(base)

	grown := base.Clone()
	grown.Commands = append(grown.Commands, cmd(models.CategoryImpact, models.SeverityCritical))
	grown.CategoriesSeen = append(grown.CategoriesSeen, models.CategoryImpact)
	after, _, _ := sc.Score(grown)

	assert.GreaterOrEqual(t, after, before)
}

func TestScoreDeterministic(t *testing.T) {
	sc := NewDefault()

	s := sessionWith([]models.Command{
		cmd(models.CategoryCredential, models.SeverityCritical),
		cmd(models.CategoryRecon, models.SeverityLow),
	})
	s.AuthFailures = 8
	s.DurationSec = 90

	first, firstLevel, _ := sc.Score(s)
	for i := 0; i < 5; i++ {
		again, level, _ := sc.Score(s)
		assert.Equal(t, first, again)
		assert.Equal(t, firstLevel, level)
	}
}

func TestScoreSummary(t *testing.T) {
	sc := NewDefault()

	s := sessionWith([]models.Command{
		cmd(models.CategoryCredential, models.SeverityCritical),
		cmd(models.CategoryPersist, models.SeverityHigh),
	})
	_, _, b := sc.Score(s)
	require.NotEmpty(t, b.Summary)
	assert.Contains(t, b.Summary, "credential theft")
	assert.Contains(t, b.Summary, "persistence")
	assert.Contains(t, b.Summary, "2 commands")
}

func TestDangerLevelBoundaries(t *testing.T) {
	tests := []struct {
		score int
		level models.DangerLevel
	}{
		{100, models.DangerCritical},
		{80, models.DangerCritical},
		{79, models.DangerHigh},
		{50, models.DangerHigh},
		{49, models.DangerMedium},
		{25, models.DangerMedium},
		{24, models.DangerLow},
		{1, models.DangerLow},
		{0, models.DangerMinimal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.level, models.DangerLevelFromScore(tt.score), "score %d", tt.score)
	}
}
