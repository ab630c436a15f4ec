// Package cache implements the Cache (C7): an in-memory store of prior
// stage results keyed by a fingerprint-derived cache key.
//
// Grounded on the teacher's pkg/strategy.Registry: a sync.RWMutex-guarded
// map with register-once-or-fail semantics, adapted here to a
// get-or-store cache (entries are content-addressed, so "already present"
// is the expected steady state rather than a registration error).
package cache

import (
	"sync"

	"dxcore/internal/factstore"
	"dxcore/internal/fingerprint"
	"dxcore/internal/telemetry"
)

// Cache is the in-memory, fail-open result cache. It never stores a
// failure — only a stage's successful proposals — per spec.md §4.7.
type Cache struct {
	mu      sync.RWMutex
	entries map[fingerprint.Fingerprint][]factstore.Proposal
	tele    telemetry.Counters
}

// New constructs an empty Cache. Pass telemetry.Noop{} when no counters are
// wired.
func New(tele telemetry.Counters) *Cache {
	if tele == nil {
		tele = telemetry.Noop{}
	}
	return &Cache{
		entries: make(map[fingerprint.Fingerprint][]factstore.Proposal),
		tele:    tele,
	}
}

// Lookup returns a stage's cached proposals for fp, if any. A cache miss is
// never itself a failure — the orchestrator falls back to executing the
// stage, per the fail-open invariant.
func (c *Cache) Lookup(stageName string, fp fingerprint.Fingerprint) ([]factstore.Proposal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[fp]
	if ok {
		c.tele.CacheHit(stageName)
	} else {
		c.tele.CacheMiss(stageName)
	}
	return entry, ok
}

// Store records a stage's successful proposals against fp. Store only ever
// writes once per fingerprint and reports whether an entry was already
// present; the existing entry is kept, and the new proposals are not
// compared with it. The orchestrator logs an already-present report at
// debug level and does not fail the stage.
func (c *Cache) Store(fp fingerprint.Fingerprint, proposals []factstore.Proposal) (alreadyPresent bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[fp]; ok {
		return true
	}
	c.entries[fp] = proposals
	return false
}
