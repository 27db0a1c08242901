// Apiarius - Honeypot Telemetry Analytics and Session Risk Scoring
// Copyright 2026 P. Moreau (pmoreau84)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmoreau84/apiarius

package models

import "time"

// CountItem is one entry of a top-N frequency list.
type CountItem struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// DangerousCommand is a top-N entry for critical/high severity commands.
type DangerousCommand struct {
	Command  string   `json:"command"`
	Category Category `json:"category"`
	Severity Severity `json:"severity"`
	Count    int      `json:"count"`
}

// CountryCount is a per-country session rollup.
type CountryCount struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Sessions int    `json:"sessions"`
}

// AttackCoordinate is one plotted attack origin for map widgets.
type AttackCoordinate struct {
	IP      string  `json:"ip"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
	City    string  `json:"city,omitempty"`
}

// TimelineBucket is one hourly bucket of an activity series.
type TimelineBucket struct {
	Hour  time.Time `json:"hour"`
	Label string    `json:"label"`
	Count int       `json:"count"`
}

// KPISnapshot is a point-in-time read-only aggregate over the known sessions.
// Rebuilt from scratch on every refresh and published atomically; never
// mutated after publication.
type KPISnapshot struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Window      time.Duration `json:"window_sec"`

	// Base totals.
	TotalSessions    int     `json:"total_sessions"`
	ActiveSessions   int     `json:"active_sessions"`
	UniqueIPs        int     `json:"unique_ips"`
	TotalCommands    int     `json:"total_commands"`
	CmdsPerSession   float64 `json:"cmds_per_session"`
	AvgDurationSec   float64 `json:"avg_duration_sec"`
	LoginSuccesses   int     `json:"login_successes"`
	LoginFailures    int     `json:"login_failures"`
	LoginSuccessRate float64 `json:"login_success_rate"`
	UniqueUsernames  int     `json:"unique_usernames"`
	UniquePasswords  int     `json:"unique_passwords"`

	// Distributions.
	CategoryDistribution map[Category]int     `json:"category_distribution"`
	SeverityDistribution map[Severity]int     `json:"severity_distribution"`
	DangerDistribution   map[DangerLevel]int  `json:"danger_distribution"`
	AttackerDistribution map[AttackerType]int `json:"attacker_distribution"`
	CriticalCommands     int                  `json:"critical_commands"`
	HighCommands         int                  `json:"high_commands"`
	BotRatio             float64              `json:"bot_ratio"`
	AvgDangerScore       float64              `json:"avg_danger_score"`

	// Top lists.
	TopIPs               []CountItem        `json:"top_ips"`
	TopUsernames         []CountItem        `json:"top_usernames"`
	TopPasswords         []CountItem        `json:"top_passwords"`
	TopCommands          []CountItem        `json:"top_commands"`
	TopDangerousCommands []DangerousCommand `json:"top_dangerous_commands"`
	TopTechniques        []CountItem        `json:"top_techniques"`
	TopASNOrgs           []CountItem        `json:"top_asn_orgs"`

	// Geographic rollups; degrade to empty/unknown when lookup fails.
	UniqueCountries   int                `json:"unique_countries"`
	TopCountries      []CountryCount     `json:"top_countries"`
	AttackCoordinates []AttackCoordinate `json:"attack_coordinates"`

	// Hourly activity series over the window.
	SessionsTimeline []TimelineBucket `json:"sessions_timeline"`
	CommandsTimeline []TimelineBucket `json:"commands_timeline"`
	LoginsTimeline   []TimelineBucket `json:"logins_timeline"`
}

// ThreatLevel summarizes the overall window for the executive summary.
type ThreatLevel string

const (
	ThreatCritical ThreatLevel = "critical"
	ThreatHigh     ThreatLevel = "high"
	ThreatMedium   ThreatLevel = "medium"
	ThreatLow      ThreatLevel = "low"
)

// AttackSummary is the executive rollup served alongside the full snapshot.
type AttackSummary struct {
	ThreatLevel      ThreatLevel       `json:"threat_level"`
	TotalAttacks     int               `json:"total_attacks"`
	UniqueAttackers  int               `json:"unique_attackers"`
	Countries        int               `json:"countries_involved"`
	CriticalSessions int               `json:"critical_sessions"`
	CommandsExecuted int               `json:"commands_executed"`
	BotPercentage    float64           `json:"bot_percentage"`
	TopThreat        *CountryCount     `json:"top_threat,omitempty"`
	MostDangerous    *DangerousCommand `json:"most_dangerous_command,omitempty"`
	PeriodHours      int               `json:"period_hours"`
}
