// Package dedupe provides idempotency tracking for snapshot commits.
package dedupe

// Default cache bound; roughly one semester of daily commits for a large
// faculty.
const defaultMaxSize = 10_000

// Option applies a configuration option to the commit cache.
type Option func(*commitCache)

// WithMaxSize sets the maximum number of commit keys kept in memory.
// Sizes below 1 are ignored.
func WithMaxSize(maxSize int) Option {
	return func(c *commitCache) {
		if maxSize > 0 {
			c.maxSize = maxSize
		}
	}
}
