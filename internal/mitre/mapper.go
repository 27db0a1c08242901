// Apiarius - Honeypot Telemetry Analytics and Session Risk Scoring
// Copyright 2026 P. Moreau (pmoreau84)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmoreau84/apiarius

// Package mitre maps classified command activity onto the ATT&CK framework:
// technique lookup, per-session tactic coverage, and kill-chain positioning.
package mitre

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/pmoreau84/apiarius/internal/classify"
	"github.com/pmoreau84/apiarius/internal/models"
)

// Mapping is the ATT&CK view of one session's accumulated technique IDs.
type Mapping struct {
	Techniques        []Technique    `json:"techniques"`
	TacticsCoverage   map[string]int `json:"tactics_coverage"`
	AttackPhase       string         `json:"attack_phase"`
	KillChainProgress float64        `json:"kill_chain_progress"`
}

// bucketEntry refines a category bucket: the techniques apply when the
// sub-pattern matches the command text.
type bucketEntry struct {
	re         *regexp.Regexp
	techniques []string
}

// Mapper resolves technique IDs and maps (category, command) pairs to
// technique sets. Per-command lookup goes through category-indexed buckets so
// the hot path scans only the handful of rules for that category.
type Mapper struct {
	buckets     map[models.Category][]bucketEntry
	tacticIndex map[string]int
}

// NewMapper builds the category buckets from a classification rule table.
func NewMapper(rules []classify.Rule) (*Mapper, error) {
	m := &Mapper{
		buckets:     make(map[models.Category][]bucketEntry),
		tacticIndex: make(map[string]int, len(tacticOrder)),
	}
	for i, t := range tacticOrder {
		m.tacticIndex[t.ID] = i
	}
	for i, r := range rules {
		if len(r.Techniques) == 0 {
			continue
		}
		re, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("mitre: rule %d (%s): %w", i, r.Pattern, err)
		}
		m.buckets[r.Category] = append(m.buckets[r.Category], bucketEntry{
			re:         re,
			techniques: r.Techniques,
		})
	}
	return m, nil
}

// Map returns the deduplicated, sorted technique IDs implied by a command of
// the given category. Only the category's own bucket is consulted.
func (m *Mapper) Map(category models.Category, commandText string) []string {
	entries := m.buckets[category]
	if len(entries) == 0 {
		return nil
	}
	seen := make(map[string]struct{})
	for _, e := range entries {
		if e.re.MatchString(commandText) {
			for _, tid := range e.techniques {
				seen[tid] = struct{}{}
			}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for tid := range seen {
		out = append(out, tid)
	}
	sort.Strings(out)
	return out
}

// Get resolves a technique ID against the catalog.
func (m *Mapper) Get(techniqueID string) (Technique, bool) {
	t, ok := techniques[techniqueID]
	return t, ok
}

// Catalog returns every known technique sorted by ID.
func (m *Mapper) Catalog() []Technique {
	out := make([]Technique, 0, len(techniques))
	for _, t := range techniques {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Tactics returns the kill chain in execution order.
func (m *Mapper) Tactics() []Tactic {
	out := make([]Tactic, len(tacticOrder))
	copy(out, tacticOrder)
	return out
}

// MapTechniques expands a session's accumulated technique IDs into the full
// ATT&CK view. Unknown IDs are skipped. The attack phase is the most advanced
// tactic observed, and progress is that tactic's position normalized over the
// whole kill chain.
func (m *Mapper) MapTechniques(techniqueIDs []string) Mapping {
	mapping := Mapping{TacticsCoverage: make(map[string]int)}

	maxOrder := -1
	for _, tid := range techniqueIDs {
		t, ok := techniques[tid]
		if !ok {
			continue
		}
		mapping.Techniques = append(mapping.Techniques, t)
		mapping.TacticsCoverage[t.Tactic]++
		if order, ok := m.tacticIndex[t.TacticID]; ok && order > maxOrder {
			maxOrder = order
			mapping.AttackPhase = phaseName(t.Tactic)
		}
	}

	if maxOrder < 0 {
		mapping.AttackPhase = "unknown"
		return mapping
	}
	mapping.KillChainProgress = float64(maxOrder+1) / float64(len(tacticOrder))
	if mapping.KillChainProgress > 1.0 {
		mapping.KillChainProgress = 1.0
	}
	return mapping
}

func phaseName(tactic string) string {
	return strings.ReplaceAll(strings.ToLower(tactic), " ", "_")
}
