package interp

import "sync"

// Cache owns one interpolator per spectral setup for the lifetime of the
// process. Entries are built lazily on first request, never evicted, and
// shared read-only by all callers afterwards.
//
// Construction itself is deliberately not serialized: concurrent first
// requests for the same setup may build redundantly, the last writer wins,
// and both instances are self-contained. Callers that care about the wasted
// I/O must serialize first requests per setup themselves.
type Cache struct {
	dir  string
	warm bool

	mu      sync.RWMutex
	interps map[string]*Interpolator
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithWarmup controls whether newly mapped flux arrays are read in full to
// prime the OS page cache. Enabled by default.
func WithWarmup(on bool) CacheOption {
	return func(c *Cache) { c.warm = on }
}

// NewCache returns a cache loading artifacts from dir.
func NewCache(dir string, opts ...CacheOption) *Cache {
	c := &Cache{
		dir:     dir,
		warm:    true,
		interps: make(map[string]*Interpolator),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Get returns the interpolator of a spectral setup, loading its artifacts on
// the first request.
func (c *Cache) Get(setup string) (*Interpolator, error) {
	c.mu.RLock()
	it, ok := c.interps[setup]
	c.mu.RUnlock()
	if ok {
		return it, nil
	}

	it, err := loadInterpolator(c.dir, setup, c.warm)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.interps[setup] = it
	c.mu.Unlock()
	return it, nil
}

// ParNames returns the ordered parameter names of a setup, loading its
// interpolator if needed.
func (c *Cache) ParNames(setup string) ([]string, error) {
	it, err := c.Get(setup)
	if err != nil {
		return nil, err
	}
	return it.ParNames(), nil
}

// Close releases every mapped flux array. The cache must not be used after
// Close; it exists so tests and short-lived tools can unmap cleanly.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var first error
	for _, it := range c.interps {
		if err := it.Close(); err != nil && first == nil {
			first = err
		}
	}
	c.interps = make(map[string]*Interpolator)
	return first
}
