package catalog_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-service/internal/cache"
	"catalog-service/internal/catalog"
	"catalog-service/internal/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type fakeProducts struct {
	products []models.Product
	calls    int
	err      error
}

func (f *fakeProducts) ListPage(page, pageSize int) ([]models.Product, error) {
	if page == 0 {
		f.calls++
	}
	if f.err != nil {
		return nil, f.err
	}
	start := page * pageSize
	if start >= len(f.products) {
		return nil, nil
	}
	end := start + pageSize
	if end > len(f.products) {
		end = len(f.products)
	}
	return f.products[start:end], nil
}

type fakeMeta struct {
	meta  []models.CategoryMeta
	calls int
	err   error
}

func (f *fakeMeta) GetAllMeta() ([]models.CategoryMeta, error) {
	f.calls++
	return f.meta, f.err
}

func newTestService(products *fakeProducts, meta *fakeMeta, clock cache.Clock) *catalog.Service {
	ttlCache := cache.New(cache.NewMemoryStorage(), cache.DefaultTTL, cache.WithClock(clock))
	return catalog.NewService(products, meta, ttlCache, testLogger())
}

func TestLoadSnapshot(t *testing.T) {
	t.Run("CacheHitSkipsFetch", func(t *testing.T) {
		products := &fakeProducts{products: []models.Product{product("Milk", "Dairy", "")}}
		meta := &fakeMeta{}
		now := time.Now()
		svc := newTestService(products, meta, func() time.Time { return now })

		snap, cached, err := svc.LoadSnapshot(context.Background())
		require.NoError(t, err)
		assert.False(t, cached)
		require.Len(t, snap.Categories, 1)
		assert.Equal(t, 1, products.calls)

		snap, cached, err = svc.LoadSnapshot(context.Background())
		require.NoError(t, err)
		assert.True(t, cached)
		require.Len(t, snap.Categories, 1)
		assert.Equal(t, "Dairy", snap.Categories[0].Name)
		assert.Equal(t, 1, products.calls)
		assert.Equal(t, 1, meta.calls)
	})

	t.Run("ExpiredEntryRefetches", func(t *testing.T) {
		products := &fakeProducts{products: []models.Product{product("Milk", "Dairy", "")}}
		meta := &fakeMeta{}
		now := time.Now()
		svc := newTestService(products, meta, func() time.Time { return now })

		_, _, err := svc.LoadSnapshot(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, products.calls)

		now = now.Add(cache.DefaultTTL + time.Minute)

		_, cached, err := svc.LoadSnapshot(context.Background())
		require.NoError(t, err)
		assert.False(t, cached)
		assert.Equal(t, 2, products.calls)
	})

	t.Run("ProductFetchErrorAborts", func(t *testing.T) {
		products := &fakeProducts{err: errors.New("db down")}
		meta := &fakeMeta{}
		svc := newTestService(products, meta, time.Now)

		snap, _, err := svc.LoadSnapshot(context.Background())
		assert.Error(t, err)
		assert.Nil(t, snap)
	})

	t.Run("MetaFetchErrorAborts", func(t *testing.T) {
		products := &fakeProducts{products: []models.Product{product("Milk", "Dairy", "")}}
		meta := &fakeMeta{err: errors.New("db down")}
		svc := newTestService(products, meta, time.Now)

		snap, _, err := svc.LoadSnapshot(context.Background())
		assert.Error(t, err)
		assert.Nil(t, snap)
	})

	t.Run("SnapshotRoundTripsThroughCache", func(t *testing.T) {
		products := &fakeProducts{products: []models.Product{
			product("Strawberries", "Fruits", "Berries"),
			product("Oranges", "Fruits", "Citrus"),
		}}
		meta := &fakeMeta{meta: []models.CategoryMeta{
			{Name: "Fruits", ImageURL: strPtr("fruits.png")},
		}}
		svc := newTestService(products, meta, time.Now)

		fresh, _, err := svc.LoadSnapshot(context.Background())
		require.NoError(t, err)
		cachedSnap, cached, err := svc.LoadSnapshot(context.Background())
		require.NoError(t, err)
		require.True(t, cached)

		assert.Equal(t, fresh.Categories, cachedSnap.Categories)
		assert.Equal(t, fresh.Tree, cachedSnap.Tree)
		assert.Equal(t, fresh.Lookup, cachedSnap.Lookup)
	})
}

func TestLoadProducts(t *testing.T) {
	t.Run("PaginatesUntilShortPage", func(t *testing.T) {
		// More rows than one page.
		var rows []models.Product
		for i := 0; i < catalog.PageSize+5; i++ {
			rows = append(rows, product("Item", "Pantry", ""))
		}
		products := &fakeProducts{products: rows}
		svc := newTestService(products, &fakeMeta{}, time.Now)

		got, cached, err := svc.LoadProducts(context.Background())
		require.NoError(t, err)
		assert.False(t, cached)
		assert.Len(t, got, catalog.PageSize+5)
	})

	t.Run("SecondLoadHitsCache", func(t *testing.T) {
		products := &fakeProducts{products: []models.Product{product("Milk", "Dairy", "")}}
		svc := newTestService(products, &fakeMeta{}, time.Now)

		_, _, err := svc.LoadProducts(context.Background())
		require.NoError(t, err)
		_, cached, err := svc.LoadProducts(context.Background())
		require.NoError(t, err)
		assert.True(t, cached)
		assert.Equal(t, 1, products.calls)
	})
}

func TestInvalidate(t *testing.T) {
	products := &fakeProducts{products: []models.Product{product("Milk", "Dairy", "")}}
	svc := newTestService(products, &fakeMeta{}, time.Now)

	_, _, err := svc.LoadSnapshot(context.Background())
	require.NoError(t, err)

	svc.Invalidate(context.Background())

	_, cached, err := svc.LoadSnapshot(context.Background())
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, products.calls)
}
