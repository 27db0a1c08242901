// Apiarius - Honeypot Telemetry Analytics and Session Risk Scoring
// Copyright 2026 P. Moreau (pmoreau84)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmoreau84/apiarius

// Package kpi turns the session population into dashboard aggregates. The
// builder is a pure fold over a point-in-time copy of the sessions; the
// engine around it owns scheduling and atomic publication.
package kpi

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/pmoreau84/apiarius/internal/models"
)

// Builder computes immutable KPI snapshots over a session population.
type Builder struct {
	window    time.Duration
	topN      int
	coordsCap int
}

// NewBuilder returns a builder for the given window. topN bounds every
// top list; coordsCap bounds the map coordinate sample.
func NewBuilder(window time.Duration, topN, coordsCap int) *Builder {
	if topN <= 0 {
		topN = 10
	}
	if coordsCap <= 0 {
		coordsCap = 100
	}
	return &Builder{window: window, topN: topN, coordsCap: coordsCap}
}

// Build folds the sessions into a snapshot. Only sessions with activity
// inside the window count. sessions must be private copies; Build never
// mutates them and the result never aliases them.
func (b *Builder) Build(sessions []*models.Session, now time.Time) *models.KPISnapshot {
	since := now.Add(-b.window)

	var win []*models.Session
	for _, s := range sessions {
		if !s.LastActivity.Before(since) {
			win = append(win, s)
		}
	}

	snap := &models.KPISnapshot{
		GeneratedAt:          now,
		Window:               b.window,
		CategoryDistribution: map[models.Category]int{},
		SeverityDistribution: map[models.Severity]int{},
		DangerDistribution:   map[models.DangerLevel]int{},
		AttackerDistribution: map[models.AttackerType]int{},
	}

	b.foldTotals(snap, win)
	b.foldDistributions(snap, win)
	b.foldTopLists(snap, win)
	b.foldGeo(snap, win)
	b.foldTimelines(snap, win, now, since)
	return snap
}

func (b *Builder) foldTotals(snap *models.KPISnapshot, win []*models.Session) {
	ips := map[string]struct{}{}
	users := map[string]struct{}{}
	passwords := map[string]struct{}{}
	var durationSum float64
	var durationN int

	for _, s := range win {
		snap.TotalSessions++
		if s.State != models.SessionClosed {
			snap.ActiveSessions++
		}
		if s.SrcIP != "" {
			ips[s.SrcIP] = struct{}{}
		}
		snap.TotalCommands += len(s.Commands)
		snap.LoginSuccesses += s.AuthSuccesses
		snap.LoginFailures += s.AuthFailures
		for _, u := range s.Usernames {
			users[u] = struct{}{}
		}
		for _, p := range s.PasswordsTried {
			if p != "" {
				passwords[p] = struct{}{}
			}
		}
		if s.State == models.SessionClosed && s.DurationSec > 0 {
			durationSum += s.DurationSec
			durationN++
		}
	}

	snap.UniqueIPs = len(ips)
	snap.UniqueUsernames = len(users)
	snap.UniquePasswords = len(passwords)
	if snap.TotalSessions > 0 {
		snap.CmdsPerSession = round1(float64(snap.TotalCommands) / float64(snap.TotalSessions))
	}
	if durationN > 0 {
		snap.AvgDurationSec = round1(durationSum / float64(durationN))
	}
	if total := snap.LoginSuccesses + snap.LoginFailures; total > 0 {
		snap.LoginSuccessRate = round1(float64(snap.LoginSuccesses) / float64(total) * 100)
	}
}

func (b *Builder) foldDistributions(snap *models.KPISnapshot, win []*models.Session) {
	var scoreSum int
	var bots int

	for _, s := range win {
		snap.DangerDistribution[s.DangerLevel]++
		snap.AttackerDistribution[s.AttackerType]++
		scoreSum += s.DangerScore
		if s.AttackerType == models.AttackerBot {
			bots++
		}
		for _, c := range s.Commands {
			snap.CategoryDistribution[c.Category]++
			snap.SeverityDistribution[c.Severity]++
			switch c.Severity {
			case models.SeverityCritical:
				snap.CriticalCommands++
			case models.SeverityHigh:
				snap.HighCommands++
			}
		}
	}

	if len(win) > 0 {
		snap.BotRatio = round1(float64(bots) / float64(len(win)) * 100)
		snap.AvgDangerScore = round1(float64(scoreSum) / float64(len(win)))
	}
}

func (b *Builder) foldTopLists(snap *models.KPISnapshot, win []*models.Session) {
	ipCounts := map[string]int{}
	userCounts := map[string]int{}
	passCounts := map[string]int{}
	cmdCounts := map[string]int{}
	techCounts := map[string]int{}
	asnCounts := map[string]int{}
	dangerous := map[string]*models.DangerousCommand{}

	for _, s := range win {
		if s.SrcIP != "" {
			ipCounts[s.SrcIP]++
		}
		for _, u := range s.Usernames {
			userCounts[u]++
		}
		for _, p := range s.PasswordsTried {
			if p != "" {
				passCounts[p]++
			}
		}
		for _, t := range s.TechniqueIDs {
			techCounts[t]++
		}
		if s.Geo != nil && s.Geo.ASNOrg != "" {
			asnCounts[s.Geo.ASNOrg]++
		}
		for _, c := range s.Commands {
			cmdCounts[c.Text]++
			if c.Severity == models.SeverityCritical || c.Severity == models.SeverityHigh {
				key := c.Text + "\x00" + string(c.Category) + "\x00" + string(c.Severity)
				d, ok := dangerous[key]
				if !ok {
					d = &models.DangerousCommand{
						Command:  c.Text,
						Category: c.Category,
						Severity: c.Severity,
					}
					dangerous[key] = d
				}
				d.Count++
			}
		}
	}

	snap.TopIPs = topCounts(ipCounts, b.topN)
	snap.TopUsernames = topCounts(userCounts, b.topN)
	snap.TopPasswords = topCounts(passCounts, b.topN)
	snap.TopCommands = topCounts(cmdCounts, b.topN)
	snap.TopTechniques = topCounts(techCounts, b.topN)
	snap.TopASNOrgs = topCounts(asnCounts, b.topN)

	list := make([]models.DangerousCommand, 0, len(dangerous))
	for _, d := range dangerous {
		list = append(list, *d)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Count != list[j].Count {
			return list[i].Count > list[j].Count
		}
		return list[i].Command < list[j].Command
	})
	if len(list) > b.topN {
		list = list[:b.topN]
	}
	snap.TopDangerousCommands = list
}

// foldGeo builds the country rollups and the coordinate sample. A session
// whose lookup failed counts under the "unknown" country rather than being
// dropped; private ranges keep their sentinel code but are excluded from the
// unique-country count.
func (b *Builder) foldGeo(snap *models.KPISnapshot, win []*models.Session) {
	type country struct {
		name     string
		sessions int
	}
	countries := map[string]*country{}

	var located []*models.Session
	for _, s := range win {
		code, name := "unknown", "unknown"
		if s.Geo != nil && s.Geo.CountryCode != "" {
			code = s.Geo.CountryCode
			name = s.Geo.CountryName
			if name == "" {
				name = code
			}
		}
		c, ok := countries[code]
		if !ok {
			c = &country{name: name}
			countries[code] = c
		}
		c.sessions++

		if s.Geo != nil && (s.Geo.Latitude != 0 || s.Geo.Longitude != 0) {
			located = append(located, s)
		}
	}

	for code := range countries {
		if code != "unknown" && code != "PRIVATE" {
			snap.UniqueCountries++
		}
	}

	top := make([]models.CountryCount, 0, len(countries))
	for code, c := range countries {
		top = append(top, models.CountryCount{Code: code, Name: c.name, Sessions: c.sessions})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Sessions != top[j].Sessions {
			return top[i].Sessions > top[j].Sessions
		}
		return top[i].Code < top[j].Code
	})
	if len(top) > b.topN {
		top = top[:b.topN]
	}
	snap.TopCountries = top

	// Most recent attacks first, capped for map widgets.
	sort.Slice(located, func(i, j int) bool {
		if located[i].LastActivity.Equal(located[j].LastActivity) {
			return located[i].ID < located[j].ID
		}
		return located[i].LastActivity.After(located[j].LastActivity)
	})
	if len(located) > b.coordsCap {
		located = located[:b.coordsCap]
	}
	coords := make([]models.AttackCoordinate, 0, len(located))
	for _, s := range located {
		coords = append(coords, models.AttackCoordinate{
			IP:      s.SrcIP,
			Lat:     s.Geo.Latitude,
			Lon:     s.Geo.Longitude,
			Country: s.Geo.CountryCode,
			City:    s.Geo.City,
		})
	}
	snap.AttackCoordinates = coords
}

func (b *Builder) foldTimelines(snap *models.KPISnapshot, win []*models.Session, now, since time.Time) {
	snap.SessionsTimeline = timeline(now, since, func(add func(time.Time)) {
		for _, s := range win {
			add(s.OpenTime)
		}
	})
	snap.CommandsTimeline = timeline(now, since, func(add func(time.Time)) {
		for _, s := range win {
			for _, c := range s.Commands {
				add(c.Timestamp)
			}
		}
	})
	snap.LoginsTimeline = timeline(now, since, func(add func(time.Time)) {
		for _, s := range win {
			for _, t := range s.AuthFailureTimes {
				add(t)
			}
		}
	})
}

// timeline builds the hourly bucket series covering [since, now], oldest
// first, and lets emit feed it timestamps; out-of-range timestamps are
// dropped silently. Buckets are keyed by the absolute hour index so that
// timestamps carrying a non-UTC offset land in the right bucket; bucket
// hours and labels are UTC.
func timeline(now, since time.Time, emit func(add func(time.Time))) []models.TimelineBucket {
	first := since.UTC().Truncate(time.Hour)
	last := now.UTC().Truncate(time.Hour)

	index := map[int64]int{}
	var buckets []models.TimelineBucket
	for h := first; !h.After(last); h = h.Add(time.Hour) {
		index[h.Unix()/3600] = len(buckets)
		buckets = append(buckets, models.TimelineBucket{
			Hour:  h,
			Label: fmt.Sprintf("%02dh", h.Hour()),
		})
	}

	emit(func(ts time.Time) {
		if i, ok := index[ts.Unix()/3600]; ok {
			buckets[i].Count++
		}
	})
	return buckets
}

// Summarize condenses a snapshot into the executive rollup.
func Summarize(snap *models.KPISnapshot) models.AttackSummary {
	level := models.ThreatLow
	switch {
	case snap.DangerDistribution[models.DangerCritical] > 0:
		level = models.ThreatCritical
	case snap.DangerDistribution[models.DangerHigh] > 5:
		level = models.ThreatHigh
	case snap.DangerDistribution[models.DangerMedium] > 10:
		level = models.ThreatMedium
	}

	sum := models.AttackSummary{
		ThreatLevel:      level,
		TotalAttacks:     snap.TotalSessions,
		UniqueAttackers:  snap.UniqueIPs,
		Countries:        snap.UniqueCountries,
		CriticalSessions: snap.DangerDistribution[models.DangerCritical],
		CommandsExecuted: snap.TotalCommands,
		BotPercentage:    snap.BotRatio,
		PeriodHours:      int(snap.Window / time.Hour),
	}
	if len(snap.TopCountries) > 0 {
		c := snap.TopCountries[0]
		sum.TopThreat = &c
	}
	if len(snap.TopDangerousCommands) > 0 {
		d := snap.TopDangerousCommands[0]
		sum.MostDangerous = &d
	}
	return sum
}

func topCounts(counts map[string]int, n int) []models.CountItem {
	items := make([]models.CountItem, 0, len(counts))
	for k, v := range counts {
		items = append(items, models.CountItem{Key: k, Count: v})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}
		return items[i].Key < items[j].Key
	})
	if len(items) > n {
		items = items[:n]
	}
	return items
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
