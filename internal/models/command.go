// Apiarius - Honeypot Telemetry Analytics and Session Risk Scoring
// Copyright 2026 P. Moreau (pmoreau84)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmoreau84/apiarius

package models

import "time"

// Category is the behavioral class a command falls into.
type Category string

const (
	CategoryRecon      Category = "recon"
	CategoryCredential Category = "credential"
	CategoryDownload   Category = "download"
	CategoryExecution  Category = "execution"
	CategoryPersist    Category = "persist"
	CategoryPrivesc    Category = "privesc"
	CategoryEvasion    Category = "evasion"
	CategoryLateral    Category = "lateral"
	CategoryExfil      Category = "exfil"
	CategoryImpact     Category = "impact"
	CategoryBenign     Category = "benign"
	CategoryUnknown    Category = "unknown"
)

// Severity rates how dangerous a single command is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Rank returns a numeric ordering for severity comparison, info=0..critical=4.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// MaxSeverity returns the more severe of a and b.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// Command is a classified command observed within a session. Derived from a
// command event; cached per distinct text within a session so repeats are
// not reclassified.
type Command struct {
	Text         string    `json:"text"`
	Timestamp    time.Time `json:"timestamp"`
	Category     Category  `json:"category"`
	Severity     Severity  `json:"severity"`
	Description  string    `json:"description,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	TechniqueIDs []string  `json:"technique_ids,omitempty"`
}
