package syncengine

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Source says where the diff baseline for a cycle should come from.
type Source int

const (
	// SourceCache reuses the snapshot committed by the previous cycle.
	SourceCache Source = iota
	// SourceRebuild reconstructs the baseline from the canonical store.
	SourceRebuild
)

// DecideSource is the pure freshness branch: given whether a cached baseline
// exists, how old it is, its TTL, and whether the caller demanded a refresh,
// it picks the baseline source. Kept free of I/O so the branching is testable
// in isolation.
func DecideSource(hasCache bool, age, ttl time.Duration, forceRefresh bool) Source {
	if forceRefresh || !hasCache {
		return SourceRebuild
	}
	if ttl > 0 && age > ttl {
		return SourceRebuild
	}
	return SourceCache
}

// baselineEntry is one target's committed snapshot.
type baselineEntry struct {
	snap      Snapshot
	fetchedAt time.Time
}

// baselineCache holds the per-target snapshot committed at the end of the
// last successful cycle, which becomes the next cycle's diff baseline.
// Rebuilds from the canonical store go through singleflight so concurrent
// readers of a cold cache share one store scan.
type baselineCache struct {
	mu      sync.RWMutex
	entries map[string]*baselineEntry
	ttl     time.Duration
	sf      singleflight.Group
	now     func() time.Time
}

func newBaselineCache(ttl time.Duration) *baselineCache {
	return &baselineCache{
		entries: make(map[string]*baselineEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached baseline and its age. ok is false when no snapshot
// has been committed for the target.
func (c *baselineCache) Get(target string) (snap Snapshot, age time.Duration, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[target]
	if !ok {
		return nil, 0, false
	}
	return entry.snap, c.now().Sub(entry.fetchedAt), true
}

// Commit replaces the target's baseline with a freshly fetched snapshot.
// Called only after a cycle reaches success or partial success; a failed
// fetch leaves the previous baseline untouched.
func (c *baselineCache) Commit(target string, snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[target] = &baselineEntry{snap: snap, fetchedAt: c.now()}
}

// Invalidate drops the target's baseline, forcing the next cycle to rebuild
// it from the canonical store.
func (c *baselineCache) Invalidate(target string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, target)
}

// Rebuild produces a baseline via build, deduplicating concurrent rebuilds
// for the same target.
func (c *baselineCache) Rebuild(target string, build func() (Snapshot, error)) (Snapshot, error) {
	result, err, _ := c.sf.Do(target, func() (any, error) {
		return build()
	})
	if err != nil {
		return nil, err
	}
	return result.(Snapshot), nil
}
