// Apiarius - Honeypot Telemetry Analytics and Session Risk Scoring
// Copyright 2026 P. Moreau (pmoreau84)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmoreau84/apiarius

// Package session holds the stateful core of the pipeline: the aggregator
// consumes normalized events, groups them into sessions, runs classification,
// technique mapping, scoring, and bot detection on every touch, and owns the
// session lifecycle. It is the only writer of session state; everything it
// hands out is a deep copy.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/pmoreau84/apiarius/internal/botdetect"
	"github.com/pmoreau84/apiarius/internal/bus"
	"github.com/pmoreau84/apiarius/internal/classify"
	"github.com/pmoreau84/apiarius/internal/geo"
	"github.com/pmoreau84/apiarius/internal/logging"
	"github.com/pmoreau84/apiarius/internal/metrics"
	"github.com/pmoreau84/apiarius/internal/mitre"
	"github.com/pmoreau84/apiarius/internal/models"
	"github.com/pmoreau84/apiarius/internal/scoring"
)

// Config tunes the aggregator's lifecycle policy.
type Config struct {
	// InactivityTimeout closes sessions that stop producing events.
	InactivityTimeout time.Duration `koanf:"inactivity_timeout" json:"inactivity_timeout"`

	// SweepInterval is how often the idle sweep runs.
	SweepInterval time.Duration `koanf:"sweep_interval" json:"sweep_interval"`
}

// DefaultConfig returns the production lifecycle policy.
func DefaultConfig() Config {
	return Config{
		InactivityTimeout: 300 * time.Second,
		SweepInterval:     30 * time.Second,
	}
}

// Aggregator owns the mutable session set. Safe for concurrent use: callers
// for the same session id serialize on the shard lock, and the external geo
// lookup happens before any lock is taken.
type Aggregator struct {
	cfg        Config
	store      *store
	classifier *classify.Classifier
	mapper     *mitre.Mapper
	scorer     *scoring.Scorer
	detector   *botdetect.Detector
	geo        *geo.Service
	publisher  message.Publisher
	log        zerolog.Logger
}

// New wires the enrichment stages into an aggregator. geoSvc and publisher
// may be nil; the aggregator then skips enrichment or change publication.
func New(
	cfg Config,
	classifier *classify.Classifier,
	mapper *mitre.Mapper,
	scorer *scoring.Scorer,
	detector *botdetect.Detector,
	geoSvc *geo.Service,
	publisher message.Publisher,
) *Aggregator {
	return &Aggregator{
		cfg:        cfg,
		store:      newStore(),
		classifier: classifier,
		mapper:     mapper,
		scorer:     scorer,
		detector:   detector,
		geo:        geoSvc,
		publisher:  publisher,
		log:        logging.With().Str("component", "session").Logger(),
	}
}

// Ingest applies one normalized event to its session. Exact duplicates are
// absorbed silently; events for closed sessions fail with ErrStaleEvent;
// malformed events fail with ErrMalformedEvent. Each accepted event leaves
// the session fully rescored.
func (a *Aggregator) Ingest(ctx context.Context, ev models.NormalizedEvent) error {
	start := time.Now()

	if err := ev.Validate(); err != nil {
		metrics.EventsRejected.WithLabelValues("malformed").Inc()
		return err
	}

	// Geolocation is the only blocking call on this path; it runs before the
	// shard lock so a slow provider never holds session state hostage.
	geoInfo := a.resolveGeo(ctx, ev.SrcIP)

	sh := a.store.shardFor(ev.SessionID)
	sh.mu.Lock()

	digest := ev.Digest()
	e, ok := sh.entries[ev.SessionID]
	if !ok {
		e = newEntry(a.openSession(ev, geoInfo))
		sh.entries[ev.SessionID] = e
		metrics.SessionsOpened.Inc()
		metrics.SessionsLive.Inc()
	} else {
		// Exact replays are absorbed before any state checks so retries of an
		// already-applied event, close included, stay side-effect free.
		if _, dup := e.digests[digest]; dup {
			sh.mu.Unlock()
			metrics.EventsRejected.WithLabelValues("duplicate").Inc()
			return nil
		}
		if e.sess.State == models.SessionClosed {
			sh.mu.Unlock()
			metrics.EventsRejected.WithLabelValues("stale").Inc()
			return fmt.Errorf("session %s is closed: %w", ev.SessionID, models.ErrStaleEvent)
		}
	}
	e.digests[digest] = struct{}{}

	sess := e.sess
	if sess.Geo == nil && geoInfo != nil {
		sess.Geo = geoInfo
	}
	// Out-of-order events still count, but never move activity backwards.
	if ev.Timestamp.After(sess.LastActivity) {
		sess.LastActivity = ev.Timestamp
	}

	switch ev.Kind {
	case models.EventKindSessionOpen:
		// Creation already happened; a late open only contributes identity
		// fields that the creating event lacked.
		a.fillIdentity(sess, ev)

	case models.EventKindAuthAttempt:
		if ev.Username != "" {
			sess.Usernames = append(sess.Usernames, ev.Username)
		}
		if ev.Password != "" {
			sess.PasswordsTried = append(sess.PasswordsTried, ev.Password)
		}
		if ev.Success {
			sess.AuthSuccesses++
		} else {
			sess.AuthFailures++
			sess.AuthFailureTimes = append(sess.AuthFailureTimes, ev.Timestamp)
		}

	case models.EventKindCommand:
		a.applyCommand(e, ev)

	case models.EventKindSessionClose:
		a.closeLocked(sess, ev.Timestamp, ev.DurationSec, "explicit")
	}

	a.rescore(e)

	// The sequence is assigned under the lock; the publish below is not, so
	// consumers order concurrent frames for one session by Seq.
	e.seq++
	change := bus.SessionChange{
		SessionID:   sess.ID,
		Seq:         e.seq,
		SrcIP:       sess.SrcIP,
		State:       sess.State,
		DangerLevel: sess.DangerLevel,
		DangerScore: sess.DangerScore,
		ChangedAt:   sess.LastActivity,
	}
	sh.mu.Unlock()

	a.publish(change)
	metrics.EventsIngested.WithLabelValues(string(ev.Kind)).Inc()
	metrics.IngestDuration.Observe(time.Since(start).Seconds())
	return nil
}

// openSession builds the aggregate for a first-seen session id.
func (a *Aggregator) openSession(ev models.NormalizedEvent, geoInfo *models.GeoInfo) *models.Session {
	sess := &models.Session{
		ID:           ev.SessionID,
		SrcIP:        ev.SrcIP,
		Sensor:       ev.Sensor,
		HoneypotType: ev.HoneypotType,
		State:        models.SessionOpen,
		OpenTime:     ev.Timestamp,
		LastActivity: ev.Timestamp,
		MaxSeverity:  models.SeverityInfo,
		AttackerType: models.AttackerUnknown,
		Geo:          geoInfo,
	}
	return sess
}

func (a *Aggregator) fillIdentity(sess *models.Session, ev models.NormalizedEvent) {
	if sess.SrcIP == "" {
		sess.SrcIP = ev.SrcIP
	}
	if sess.Sensor == "" {
		sess.Sensor = ev.Sensor
	}
	if sess.HoneypotType == "" {
		sess.HoneypotType = ev.HoneypotType
	}
}

// applyCommand classifies the text (once per distinct text per session),
// maps techniques, and folds everything into the aggregate.
func (a *Aggregator) applyCommand(e *entry, ev models.NormalizedEvent) {
	sess := e.sess

	c, ok := e.classes[ev.CommandText]
	if !ok {
		analysis := a.classifier.Classify(ev.CommandText)
		c = classified{
			analysis:   analysis,
			techniques: a.mapper.Map(analysis.Category, ev.CommandText),
		}
		e.classes[ev.CommandText] = c
	}

	sess.Commands = append(sess.Commands, models.Command{
		Text:         ev.CommandText,
		Timestamp:    ev.Timestamp,
		Category:     c.analysis.Category,
		Severity:     c.analysis.Severity,
		Description:  c.analysis.Description,
		Tags:         c.analysis.Tags,
		TechniqueIDs: c.techniques,
	})

	if !sess.HasCategory(c.analysis.Category) {
		sess.CategoriesSeen = append(sess.CategoriesSeen, c.analysis.Category)
	}
	sess.MaxSeverity = models.MaxSeverity(sess.MaxSeverity, c.analysis.Severity)

	for _, tid := range c.techniques {
		if _, seen := e.techSeen[tid]; !seen {
			e.techSeen[tid] = struct{}{}
			sess.TechniqueIDs = append(sess.TechniqueIDs, tid)
		}
	}

	if sess.State == models.SessionOpen {
		sess.State = models.SessionActive
	}

	metrics.CommandsClassified.
		WithLabelValues(string(c.analysis.Category), string(c.analysis.Severity)).Inc()
}

// closeLocked transitions to CLOSED. Caller holds the shard lock.
func (a *Aggregator) closeLocked(sess *models.Session, at time.Time, reportedDuration float64, reason string) {
	if sess.State == models.SessionClosed {
		return
	}
	sess.State = models.SessionClosed
	ts := at
	sess.CloseTime = &ts
	if reportedDuration > 0 {
		sess.DurationSec = reportedDuration
	} else if at.After(sess.OpenTime) {
		sess.DurationSec = at.Sub(sess.OpenTime).Seconds()
	}
	metrics.SessionsLive.Dec()
	metrics.SessionsClosed.WithLabelValues(reason).Inc()
}

// rescore recomputes every derived field from the session's full accumulated
// state. Recomputing instead of patching keeps the score drift-free no matter
// how events interleave.
func (a *Aggregator) rescore(e *entry) {
	sess := e.sess

	if sess.State != models.SessionClosed && sess.LastActivity.After(sess.OpenTime) {
		sess.DurationSec = sess.LastActivity.Sub(sess.OpenTime).Seconds()
	}

	score, level, _ := a.scorer.Score(sess)
	sess.DangerScore = score
	sess.DangerLevel = level

	timestamps := make([]time.Time, len(sess.Commands))
	for i, c := range sess.Commands {
		timestamps[i] = c.Timestamp
	}
	verdict := a.detector.Analyze(botdetect.Input{
		Commands:      sess.CommandTexts(),
		Timestamps:    timestamps,
		LoginAttempts: sess.AuthSuccesses + sess.AuthFailures,
		Usernames:     sess.Usernames,
		Passwords:     sess.PasswordsTried,
	})
	sess.AttackerType = verdict.Type
	sess.BotConfidence = verdict.Confidence
	sess.BotSignatures = verdict.SignaturesMatched

	mapping := a.mapper.MapTechniques(sess.TechniqueIDs)
	sess.AttackPhase = mapping.AttackPhase
	sess.KillChainProgress = mapping.KillChainProgress
}

func (a *Aggregator) resolveGeo(ctx context.Context, ip string) *models.GeoInfo {
	if a.geo == nil || ip == "" {
		return nil
	}
	info, err := a.geo.Resolve(ctx, ip)
	if err != nil {
		metrics.GeoLookups.WithLabelValues("failed").Inc()
		return nil
	}
	if info.CountryCode == "PRIVATE" {
		metrics.GeoLookups.WithLabelValues("private").Inc()
	} else {
		metrics.GeoLookups.WithLabelValues("resolved").Inc()
	}
	return info
}

func (a *Aggregator) publish(change bus.SessionChange) {
	if a.publisher == nil {
		return
	}
	if err := bus.PublishSessionChange(a.publisher, change); err != nil {
		a.log.Error().Err(err).Str("session_id", change.SessionID).Msg("publish session change")
	}
}

// Get returns a deep copy of one session.
func (a *Aggregator) Get(sessionID string) (*models.Session, error) {
	sh := a.store.shardFor(sessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	e, ok := sh.entries[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, models.ErrSessionNotFound)
	}
	return e.sess.Clone(), nil
}

// Explain recomputes the score breakdown for one session on demand. The
// breakdown is advisory and never stored.
func (a *Aggregator) Explain(sessionID string) (models.ScoreBreakdown, error) {
	sess, err := a.Get(sessionID)
	if err != nil {
		return models.ScoreBreakdown{}, err
	}
	_, _, breakdown := a.scorer.Score(sess)
	return breakdown, nil
}

// All returns deep copies of every known session, in no particular order.
func (a *Aggregator) All() []*models.Session {
	out := make([]*models.Session, 0, a.store.count())
	a.store.forEach(func(s *models.Session) {
		out = append(out, s)
	})
	return out
}

// Recent returns up to n sessions ordered by most recent activity.
func (a *Aggregator) Recent(n int) []*models.Session {
	all := a.All()
	sort.Slice(all, func(i, j int) bool {
		if all[i].LastActivity.Equal(all[j].LastActivity) {
			return all[i].ID < all[j].ID
		}
		return all[i].LastActivity.After(all[j].LastActivity)
	})
	if n > 0 && len(all) > n {
		all = all[:n]
	}
	return all
}

// Count returns the number of known sessions, closed included.
func (a *Aggregator) Count() int {
	return a.store.count()
}

// CloseIdle closes every live session whose last activity is older than the
// inactivity timeout. Returns how many sessions it closed.
func (a *Aggregator) CloseIdle(now time.Time) int {
	cutoff := now.Add(-a.cfg.InactivityTimeout)
	var changes []bus.SessionChange

	for _, sh := range a.store.shards {
		sh.mu.Lock()
		for _, e := range sh.entries {
			sess := e.sess
			if sess.State == models.SessionClosed || sess.LastActivity.After(cutoff) {
				continue
			}
			a.closeLocked(sess, now, 0, "timeout")
			e.seq++
			changes = append(changes, bus.SessionChange{
				SessionID:   sess.ID,
				Seq:         e.seq,
				SrcIP:       sess.SrcIP,
				State:       sess.State,
				DangerLevel: sess.DangerLevel,
				DangerScore: sess.DangerScore,
				ChangedAt:   now,
			})
		}
		sh.mu.Unlock()
	}

	for _, ch := range changes {
		a.publish(ch)
	}
	if len(changes) > 0 {
		a.log.Debug().Int("closed", len(changes)).Msg("idle sweep closed sessions")
	}
	return len(changes)
}

// IsStale reports whether an error is the closed-session rejection.
func IsStale(err error) bool {
	return errors.Is(err, models.ErrStaleEvent)
}
