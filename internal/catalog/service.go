package catalog

import (
	"context"
	"fmt"

	"catalog-service/internal/cache"
	"catalog-service/internal/models"
	"github.com/sirupsen/logrus"
)

// PageSize is the fixed page size of the full-table product fetch. The
// accumulation loop stops when a page comes back short or empty.
const PageSize = 1000

// ProductSource supplies one page of products at a time, newest first.
type ProductSource interface {
	ListPage(page, pageSize int) ([]models.Product, error)
}

// MetaSource supplies the full category metadata set.
type MetaSource interface {
	GetAllMeta() ([]models.CategoryMeta, error)
}

// Snapshot is the cached unit for the category side of the catalogue:
// the metadata lookup table, the structural tree, and the merged result.
type Snapshot struct {
	Lookup     map[string]models.CategoryMeta `json:"lookup"`
	Tree       Tree                           `json:"tree"`
	Categories []models.MergedCategory        `json:"categories"`
}

// Service builds catalogue views from the store and memoizes them in the
// TTL cache. A valid cache entry short-circuits the entire fetch+rebuild;
// on fetch errors partial results are discarded and any prior cached
// value stays authoritative.
type Service struct {
	products ProductSource
	meta     MetaSource
	cache    *cache.TTLCache
	log      *logrus.Logger
}

func NewService(products ProductSource, meta MetaSource, ttlCache *cache.TTLCache, log *logrus.Logger) *Service {
	return &Service{
		products: products,
		meta:     meta,
		cache:    ttlCache,
		log:      log,
	}
}

// LoadSnapshot returns the category snapshot, from cache when valid.
// The second return reports whether the cache was hit.
func (s *Service) LoadSnapshot(ctx context.Context) (*Snapshot, bool, error) {
	var snap Snapshot
	if ok, err := s.cache.Get(ctx, cache.CategoriesKey, &snap); err != nil {
		s.log.WithError(err).Warn("category cache read failed, rebuilding")
	} else if ok {
		return &snap, true, nil
	}

	products, err := s.fetchAllProducts()
	if err != nil {
		return nil, false, fmt.Errorf("fetch products: %w", err)
	}
	meta, err := s.meta.GetAllMeta()
	if err != nil {
		return nil, false, fmt.Errorf("fetch category metadata: %w", err)
	}

	snap = Snapshot{
		Lookup:     BuildMetaLookup(meta),
		Tree:       BuildTree(products),
		Categories: Reconcile(products, meta),
	}

	if err := s.cache.Set(ctx, cache.CategoriesKey, &snap); err != nil {
		s.log.WithError(err).Warn("category cache write failed")
	}
	if err := s.cache.Set(ctx, cache.ProductsKey, products); err != nil {
		s.log.WithError(err).Warn("product cache write failed")
	}

	return &snap, false, nil
}

// LoadProducts returns the full product list, from cache when valid.
func (s *Service) LoadProducts(ctx context.Context) ([]models.Product, bool, error) {
	var products []models.Product
	if ok, err := s.cache.Get(ctx, cache.ProductsKey, &products); err != nil {
		s.log.WithError(err).Warn("product cache read failed, refetching")
	} else if ok {
		return products, true, nil
	}

	products, err := s.fetchAllProducts()
	if err != nil {
		return nil, false, fmt.Errorf("fetch products: %w", err)
	}

	if err := s.cache.Set(ctx, cache.ProductsKey, products); err != nil {
		s.log.WithError(err).Warn("product cache write failed")
	}
	return products, false, nil
}

// Invalidate drops both cache keys. Called after admin writes so the
// next load rebuilds from the store.
func (s *Service) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, cache.CategoriesKey, cache.ProductsKey); err != nil {
		s.log.WithError(err).Warn("catalogue cache invalidation failed")
	}
}

// fetchAllProducts pulls the whole product table page by page. Pages are
// requested sequentially; any page error aborts the loop and discards
// what was accumulated.
func (s *Service) fetchAllProducts() ([]models.Product, error) {
	var all []models.Product
	for page := 0; ; page++ {
		batch, err := s.products.ListPage(page, PageSize)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		if len(batch) == 0 {
			break
		}
		all = append(all, batch...)
		if len(batch) < PageSize {
			break
		}
	}
	return all, nil
}
