// Package dedupe provides idempotency tracking for snapshot commits.
//
// A commit is identified by its lecturer id and evaluation timestamp; a
// repeated commit for the same instant must append only one history entry.
// The cache is bounded: when full, the oldest recorded key is evicted, so
// very old commit keys may be recorded again. Hosts retry commits promptly,
// not days later, so the bound holds in practice.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen commit keys to ensure at-most-once history appends.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, key string) bool

	// Forget removes a key, allowing the commit to be retried. Used when a
	// commit was recorded but failed before the history append.
	Forget(ctx context.Context, key string)

	// Size returns the number of keys currently tracked.
	Size() int
}

// commitCache implements Deduper with a bounded map plus a FIFO eviction ring.
type commitCache struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	ring    []string // insertion order; evicted front-first
	head    int      // index of the oldest live key in ring
	maxSize int
}

// New creates a bounded commit cache with configuration options.
func New(opts ...Option) Deduper {
	c := &commitCache{
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.seen = make(map[string]struct{}, c.maxSize)
	return c
}

func (c *commitCache) SeenAndRecord(ctx context.Context, key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.seen[key]; ok {
		return true
	}
	if len(c.seen) >= c.maxSize {
		c.evictOldest()
	}
	c.seen[key] = struct{}{}
	c.ring = append(c.ring, key)
	return false
}

func (c *commitCache) Forget(ctx context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// The ring entry stays behind as a tombstone; evictOldest skips keys
	// that are no longer in the map.
	delete(c.seen, key)
}

func (c *commitCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

// evictOldest drops the oldest live key. Must be called with c.mu held.
func (c *commitCache) evictOldest() {
	for c.head < len(c.ring) {
		key := c.ring[c.head]
		c.head++
		if _, ok := c.seen[key]; ok {
			delete(c.seen, key)
			break
		}
	}
	// Compact the ring once the dead prefix dominates.
	if c.head > len(c.ring)/2 {
		c.ring = append([]string(nil), c.ring[c.head:]...)
		c.head = 0
	}
}
