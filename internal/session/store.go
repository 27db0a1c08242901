// Apiarius - Honeypot Telemetry Analytics and Session Risk Scoring
// Copyright 2026 P. Moreau (pmoreau84)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmoreau84/apiarius

package session

import (
	"hash/fnv"
	"sync"

	"github.com/pmoreau84/apiarius/internal/classify"
	"github.com/pmoreau84/apiarius/internal/models"
)

const shardCount = 32

// classified is the per-session cache line for one distinct command text, so
// repeated commands inside a session are classified and mapped once.
type classified struct {
	analysis   classify.Analysis
	techniques []string
}

// entry is everything the aggregator tracks for one session beyond the
// exported aggregate: the idempotence digest set and the classification cache.
type entry struct {
	sess    *models.Session
	digests map[string]struct{}
	classes map[string]classified
	// technique IDs already merged into sess.TechniqueIDs
	techSeen map[string]struct{}
	// change-feed sequence, bumped under the shard lock per mutation
	seq uint64
}

func newEntry(sess *models.Session) *entry {
	return &entry{
		sess:     sess,
		digests:  make(map[string]struct{}),
		classes:  make(map[string]classified),
		techSeen: make(map[string]struct{}),
	}
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// store shards sessions by id hash. Each shard is guarded by its own mutex,
// which gives the single-writer-per-key discipline: two events for the same
// session serialize on the shard lock, events for unrelated sessions mostly
// do not contend.
type store struct {
	shards [shardCount]*shard
}

func newStore() *store {
	s := &store{}
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[string]*entry)}
	}
	return s
}

func (s *store) shardFor(sessionID string) *shard {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	return s.shards[h.Sum32()%shardCount]
}

// forEach visits a deep copy of every session, taking one shard lock at a
// time so readers never block the whole store.
func (s *store) forEach(fn func(*models.Session)) {
	for _, sh := range s.shards {
		sh.mu.Lock()
		for _, e := range sh.entries {
			fn(e.sess.Clone())
		}
		sh.mu.Unlock()
	}
}

func (s *store) count() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.entries)
		sh.mu.Unlock()
	}
	return n
}
