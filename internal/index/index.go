// Package index holds the gesture index cache (C4): a snapshot of the
// current configuration bucketed by finger count, refreshed on a coarse
// clock so hot reloads propagate without per-event locking costs.
package index

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/8ff/gesturesd/internal/gesture"
)

const refreshInterval = time.Second

// Snapshot is an immutable view of the configuration bucketed by finger
// count. A borrowed reference to a Snapshot is safe to read concurrently
// because it is never mutated after construction.
type Snapshot struct {
	byFingers map[int][]*gesture.Binding
	builtAt   time.Time
}

// Bindings returns the ordered list of bindings declared for the given
// finger count, or nil if none match.
func (s *Snapshot) Bindings(fingers int) []*gesture.Binding {
	if s == nil {
		return nil
	}
	return s.byFingers[fingers]
}

func buildSnapshot(cfg *gesture.Config) *Snapshot {
	byFingers := make(map[int][]*gesture.Binding)
	if cfg != nil {
		for i := range cfg.Bindings {
			b := &cfg.Bindings[i]
			byFingers[b.Fingers] = append(byFingers[b.Fingers], b)
		}
	}
	return &Snapshot{byFingers: byFingers, builtAt: time.Now()}
}

// ConfigSource supplies the live configuration; it is implemented by the
// reader-writer-locked config holder owned by the dispatcher/IPC listener.
type ConfigSource interface {
	Current() *gesture.Config
}

// Cache holds the current snapshot and refreshes it on demand.
type Cache struct {
	source ConfigSource

	snap atomic.Pointer[Snapshot]

	mu          sync.Mutex
	lastRefresh time.Time
}

// New builds a Cache with an initial snapshot taken immediately.
func New(source ConfigSource) *Cache {
	c := &Cache{source: source}
	c.snap.Store(buildSnapshot(source.Current()))
	c.mu.Lock()
	c.lastRefresh = time.Now()
	c.mu.Unlock()
	return c
}

// Current returns the current snapshot without refreshing it.
func (c *Cache) Current() *Snapshot {
	return c.snap.Load()
}

// RefreshIfStale rebuilds the snapshot if at least refreshInterval has
// elapsed since the last refresh. Intended to be called on Begin events per
// spec.md §4.4: refresh policy is "1s elapsed AND a new Begin arrives".
func (c *Cache) RefreshIfStale() {
	c.mu.Lock()
	stale := time.Since(c.lastRefresh) >= refreshInterval
	if stale {
		c.lastRefresh = time.Now()
	}
	c.mu.Unlock()

	if stale {
		c.snap.Store(buildSnapshot(c.source.Current()))
	}
}
