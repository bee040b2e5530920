// Package cache keeps recently retrieved light curves in memory.
package cache

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/okian/lcarchive/internal/domain/band"
	"github.com/okian/lcarchive/internal/domain/lightcurve"
	"github.com/okian/lcarchive/pkg/metrics"
)

const (
	defaultMaxItems = 10_000
	defaultTTL      = 10 * time.Minute
	countersPerItem = 10
	bufferItems     = 64
)

// Key identifies one retrieval shape. Generation separates curves built
// from different catalog loads.
type Key struct {
	TrainID    int64
	Bands      []band.Band
	Clip       bool
	Datetime   bool
	Generation uint64
}

func (k Key) String() string {
	return fmt.Sprintf("%d|%s|%t|%t|%d", k.TrainID, band.Join(k.Bands), k.Clip, k.Datetime, k.Generation)
}

// Cache is a TTL cache of built curves. Curves are immutable, so cached
// values are shared between callers.
type Cache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

// Option configures a Cache.
type Option func(*settings)

type settings struct {
	maxItems int64
	ttl      time.Duration
}

// WithMaxItems bounds the number of cached curves.
func WithMaxItems(n int64) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxItems = n
		}
	}
}

// WithTTL sets how long a curve stays cached. Zero keeps entries until
// they are evicted.
func WithTTL(ttl time.Duration) Option {
	return func(s *settings) {
		if ttl >= 0 {
			s.ttl = ttl
		}
	}
}

// New creates a Cache.
func New(opts ...Option) (*Cache, error) {
	s := settings{maxItems: defaultMaxItems, ttl: defaultTTL}
	for _, opt := range opts {
		opt(&s)
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: s.maxItems * countersPerItem,
		MaxCost:     s.maxItems,
		BufferItems: bufferItems,
		// Cost counts curves, not bytes.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create curve cache: %w", err)
	}
	return &Cache{cache: c, ttl: s.ttl}, nil
}

// Get returns the cached curve for k.
func (c *Cache) Get(k Key) (*lightcurve.Curve, bool) {
	v, ok := c.cache.Get(k.String())
	if !ok {
		metrics.RecordCache(false)
		return nil, false
	}
	curve, ok := v.(*lightcurve.Curve)
	metrics.RecordCache(ok)
	return curve, ok
}

// Set stores curve under k. Admission is asynchronous; a Set may be
// dropped under contention.
func (c *Cache) Set(k Key, curve *lightcurve.Curve) {
	c.cache.SetWithTTL(k.String(), curve, 1, c.ttl)
}

// Wait blocks until pending Sets are applied.
func (c *Cache) Wait() { c.cache.Wait() }

// Purge drops every entry.
func (c *Cache) Purge() { c.cache.Clear() }

// Close stops the cache's background goroutines.
func (c *Cache) Close() { c.cache.Close() }
