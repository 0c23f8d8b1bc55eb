package cache_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-service/internal/cache"
)

type payload struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

func TestTTLCache(t *testing.T) {
	ctx := context.Background()

	t.Run("RoundTrip", func(t *testing.T) {
		c := cache.New(cache.NewMemoryStorage(), time.Hour)

		in := payload{Name: "fruits", Items: []string{"apple", "banana"}}
		require.NoError(t, c.Set(ctx, "k", in))

		var out payload
		ok, err := c.Get(ctx, "k", &out)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, in, out)
	})

	t.Run("MissReturnsFalse", func(t *testing.T) {
		c := cache.New(cache.NewMemoryStorage(), time.Hour)

		var out payload
		ok, err := c.Get(ctx, "absent", &out)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("ExpiredEntryEvicted", func(t *testing.T) {
		now := time.Now()
		storage := cache.NewMemoryStorage()
		c := cache.New(storage, time.Hour, cache.WithClock(func() time.Time { return now }))

		require.NoError(t, c.Set(ctx, "k", payload{Name: "old"}))

		now = now.Add(time.Hour)

		var out payload
		ok, err := c.Get(ctx, "k", &out)
		require.NoError(t, err)
		assert.False(t, ok)

		// The expired envelope is gone from storage too.
		_, present, err := storage.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, present)
	})

	t.Run("EntryJustInsideTTLServed", func(t *testing.T) {
		now := time.Now()
		c := cache.New(cache.NewMemoryStorage(), time.Hour, cache.WithClock(func() time.Time { return now }))

		require.NoError(t, c.Set(ctx, "k", payload{Name: "fresh"}))
		now = now.Add(time.Hour - time.Millisecond)

		var out payload
		ok, err := c.Get(ctx, "k", &out)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "fresh", out.Name)
	})

	t.Run("FutureTimestampEvicted", func(t *testing.T) {
		now := time.Now()
		c := cache.New(cache.NewMemoryStorage(), time.Hour, cache.WithClock(func() time.Time { return now }))

		require.NoError(t, c.Set(ctx, "k", payload{Name: "skewed"}))

		// Clock moved backwards past the write time.
		now = now.Add(-time.Minute)

		var out payload
		ok, err := c.Get(ctx, "k", &out)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("CorruptEnvelopeEvicted", func(t *testing.T) {
		storage := cache.NewMemoryStorage()
		c := cache.New(storage, time.Hour)

		require.NoError(t, storage.Set(ctx, "k", []byte("{not json"), time.Hour))

		var out payload
		ok, err := c.Get(ctx, "k", &out)
		require.NoError(t, err)
		assert.False(t, ok)

		_, present, err := storage.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, present)
	})

	t.Run("CorruptPayloadEvicted", func(t *testing.T) {
		storage := cache.NewMemoryStorage()
		c := cache.New(storage, time.Hour)

		// Valid envelope, payload of the wrong shape.
		env := []byte(`{"timestamp":` + timestampNow() + `,"payload":"not-an-object"}`)
		require.NoError(t, storage.Set(ctx, "k", env, time.Hour))

		var out payload
		ok, err := c.Get(ctx, "k", &out)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Invalidate", func(t *testing.T) {
		c := cache.New(cache.NewMemoryStorage(), time.Hour)

		require.NoError(t, c.Set(ctx, "a", payload{Name: "a"}))
		require.NoError(t, c.Set(ctx, "b", payload{Name: "b"}))
		require.NoError(t, c.Invalidate(ctx, "a", "b"))

		var out payload
		ok, err := c.Get(ctx, "a", &out)
		require.NoError(t, err)
		assert.False(t, ok)
		ok, err = c.Get(ctx, "b", &out)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("OverwriteRefreshesTimestamp", func(t *testing.T) {
		now := time.Now()
		c := cache.New(cache.NewMemoryStorage(), time.Hour, cache.WithClock(func() time.Time { return now }))

		require.NoError(t, c.Set(ctx, "k", payload{Name: "first"}))
		now = now.Add(50 * time.Minute)
		require.NoError(t, c.Set(ctx, "k", payload{Name: "second"}))
		now = now.Add(50 * time.Minute)

		// 100 minutes after the first write, 50 after the second.
		var out payload
		ok, err := c.Get(ctx, "k", &out)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "second", out.Name)
	})
}

func timestampNow() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}
