// Package cache is the time-expiring cache in front of the external data
// gatherers. Entries carry their write time and are checked for staleness on
// read; nothing is evicted in the background.
package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ahmednasr/githelpdesk/pkg/logger"
	"github.com/ahmednasr/githelpdesk/pkg/metrics"
)

// Category selects the TTL applied to an entry.
type Category string

const (
	Repos  Category = "repo"
	Issues Category = "issue"
	Guides Category = "guide"
)

// DefaultTTLs are the validity windows per category.
var DefaultTTLs = map[Category]time.Duration{
	Repos:  1800 * time.Second,
	Issues: 900 * time.Second,
	Guides: 3600 * time.Second,
}

// Store is the raw byte storage behind a Cache.
type Store interface {
	// Get returns found=false with a nil error when key is absent.
	Get(ctx context.Context, key string) (val []byte, found bool, err error)
	Set(ctx context.Context, key string, val []byte) error
}

type entry struct {
	Payload   json.RawMessage `json:"payload"`
	WrittenAt time.Time       `json:"written_at"`
}

// Cache stores JSON payloads per (category, key).
// It is safe for concurrent use when its Store is.
type Cache struct {
	store Store
	ttl   map[Category]time.Duration
	now   func() time.Time
	log   *logger.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now. Tests use it to step past a TTL.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithTTL overrides the TTL of one category.
func WithTTL(cat Category, ttl time.Duration) Option {
	return func(c *Cache) { c.ttl[cat] = ttl }
}

// New returns a Cache over store.
func New(store Store, log *logger.Logger, opts ...Option) *Cache {
	ttl := make(map[Category]time.Duration, len(DefaultTTLs))
	for k, v := range DefaultTTLs {
		ttl[k] = v
	}
	c := &Cache{store: store, ttl: ttl, now: time.Now, log: log.Named("cache")}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key normalises the parts of a cache key: lower-cased, trimmed and joined with "_".
func Key(parts ...string) string {
	norm := make([]string, len(parts))
	for i, p := range parts {
		norm[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return strings.Join(norm, "_")
}

func storeKey(cat Category, key string) string {
	return string(cat) + ":" + key
}

// Get decodes the entry for (cat, key) into dst and reports whether a fresh
// entry was found. Store failures and undecodable entries count as misses.
func (c *Cache) Get(ctx context.Context, cat Category, key string, dst any) bool {
	raw, found, err := c.store.Get(ctx, storeKey(cat, key))
	if err != nil {
		c.log.Warn("cache read failed", zap.String("category", string(cat)), zap.String("key", key), zap.Error(err))
		metrics.RecordCacheLookup(string(cat), "miss")
		return false
	}
	if !found {
		metrics.RecordCacheLookup(string(cat), "miss")
		return false
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		c.log.Warn("cache entry corrupt", zap.String("category", string(cat)), zap.String("key", key), zap.Error(err))
		metrics.RecordCacheLookup(string(cat), "miss")
		return false
	}
	if c.now().Sub(e.WrittenAt) >= c.ttl[cat] {
		metrics.RecordCacheLookup(string(cat), "stale")
		return false
	}
	if err := json.Unmarshal(e.Payload, dst); err != nil {
		c.log.Warn("cache payload mismatch", zap.String("category", string(cat)), zap.String("key", key), zap.Error(err))
		metrics.RecordCacheLookup(string(cat), "miss")
		return false
	}

	metrics.RecordCacheLookup(string(cat), "hit")
	return true
}

// Put stores v under (cat, key) with the current time, overwriting any
// previous entry. Failures are logged and otherwise ignored.
func (c *Cache) Put(ctx context.Context, cat Category, key string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		c.log.Warn("cache encode failed", zap.String("category", string(cat)), zap.Error(err))
		return
	}
	raw, err := json.Marshal(entry{Payload: payload, WrittenAt: c.now()})
	if err != nil {
		c.log.Warn("cache encode failed", zap.String("category", string(cat)), zap.Error(err))
		return
	}
	if err := c.store.Set(ctx, storeKey(cat, key), raw); err != nil {
		c.log.Warn("cache write failed", zap.String("category", string(cat)), zap.String("key", key), zap.Error(err))
	}
}
