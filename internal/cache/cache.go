// Package cache provides the catalogue's time-boxed memo cache: JSON
// envelopes of {timestamp, payload} stored under fixed keys in a
// pluggable backend. A valid entry is used verbatim; expired or corrupt
// entries are evicted so callers fall through to a fresh fetch.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Default cache keys and TTL for the catalogue.
const (
	CategoriesKey = "catalog:cache:categories"
	ProductsKey   = "catalog:cache:products"

	DefaultTTL = 7 * 24 * time.Hour
)

// Storage is the backing store for cache envelopes. Implementations must
// tolerate concurrent writers with last-writer-wins semantics.
type Storage interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Clock supplies the current time; injected so expiry is testable.
type Clock func() time.Time

type envelope struct {
	Timestamp int64           `json:"timestamp"` // epoch millis
	Payload   json.RawMessage `json:"payload"`
}

// TTLCache wraps a Storage with envelope timestamps and a fixed TTL.
type TTLCache struct {
	storage Storage
	ttl     time.Duration
	now     Clock
}

// Option configures a TTLCache.
type Option func(*TTLCache)

// WithClock overrides the time source.
func WithClock(clock Clock) Option {
	return func(c *TTLCache) {
		c.now = clock
	}
}

// New creates a TTLCache over the given storage backend.
func New(storage Storage, ttl time.Duration, opts ...Option) *TTLCache {
	c := &TTLCache{
		storage: storage,
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get loads the entry under key into dest. It returns false when the
// entry is absent, expired, or corrupt; expired and corrupt entries are
// evicted. Storage read errors are returned as-is.
func (c *TTLCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, ok, err := c.storage.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		_ = c.storage.Delete(ctx, key)
		return false, nil
	}

	age := c.now().UnixMilli() - env.Timestamp
	if age < 0 || age >= c.ttl.Milliseconds() {
		_ = c.storage.Delete(ctx, key)
		return false, nil
	}

	if err := json.Unmarshal(env.Payload, dest); err != nil {
		_ = c.storage.Delete(ctx, key)
		return false, nil
	}
	return true, nil
}

// Set stores value under key, stamped with the current time.
func (c *TTLCache) Set(ctx context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(envelope{
		Timestamp: c.now().UnixMilli(),
		Payload:   payload,
	})
	if err != nil {
		return err
	}
	return c.storage.Set(ctx, key, raw, c.ttl)
}

// Invalidate drops the entries under the given keys.
func (c *TTLCache) Invalidate(ctx context.Context, keys ...string) error {
	return c.storage.Delete(ctx, keys...)
}
