// Package reportcache stores serialized reports with a write timestamp and
// answers freshness questions about them.
package reportcache

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/starford/kenaz-focus/internal/kvstore"
)

// NoMaxAge disables the freshness check in Load.
const NoMaxAge = time.Duration(math.MaxInt64)

// Cache is a JSON-serializing view over a kvstore.Store.
// Entries are never evicted; staleness is decided at read time only.
type Cache struct {
	store kvstore.Store
	now   func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates a Cache over store.
func New(store kvstore.Store, opts ...Option) *Cache {
	c := &Cache{store: store, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Save serializes value and stores it under key with the current time.
func (c *Cache) Save(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("reportcache: encode %s: %w", key, err)
	}
	return c.store.Put(ctx, map[string]kvstore.Record{
		key: {Value: data, WrittenAt: c.now()},
	})
}

// SaveWithFingerprint stores value under key and fingerprint under
// fingerprintKey in one atomic write.
func (c *Cache) SaveWithFingerprint(ctx context.Context, key string, value any, fingerprintKey, fingerprint string) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("reportcache: encode %s: %w", key, err)
	}
	now := c.now()
	return c.store.Put(ctx, map[string]kvstore.Record{
		key:            {Value: data, WrittenAt: now},
		fingerprintKey: {Value: []byte(fingerprint), WrittenAt: now},
	})
}

// Load decodes the value under key into out if it was written no more than
// maxAge ago. Stale entries are reported as absent but left in place.
func (c *Cache) Load(ctx context.Context, key string, maxAge time.Duration, out any) (bool, error) {
	rec, ok, err := c.store.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if !c.fresh(rec.WrittenAt, maxAge) {
		return false, nil
	}
	if err := json.Unmarshal(rec.Value, out); err != nil {
		return false, fmt.Errorf("reportcache: decode %s: %w", key, err)
	}
	return true, nil
}

// IsValid reports whether key exists and is no older than maxAge.
// The stored value is not read.
func (c *Cache) IsValid(ctx context.Context, key string, maxAge time.Duration) (bool, error) {
	writtenAt, ok, err := c.store.Stat(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	return c.fresh(writtenAt, maxAge), nil
}

// UpdatedAt returns the time key was last written.
func (c *Cache) UpdatedAt(ctx context.Context, key string) (time.Time, bool, error) {
	return c.store.Stat(ctx, key)
}

// Fingerprint returns the raw string stored under fingerprintKey.
func (c *Cache) Fingerprint(ctx context.Context, fingerprintKey string) (string, error) {
	rec, ok, err := c.store.Get(ctx, fingerprintKey)
	if err != nil || !ok {
		return "", err
	}
	return string(rec.Value), nil
}

// Clear removes the values and timestamps of keys.
func (c *Cache) Clear(ctx context.Context, keys ...string) error {
	if err := c.store.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("reportcache: clear: %w", err)
	}
	return nil
}

func (c *Cache) fresh(writtenAt time.Time, maxAge time.Duration) bool {
	return c.now().Sub(writtenAt) <= maxAge
}
