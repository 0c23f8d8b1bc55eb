package repository

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"catalog-service/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Cache TTL constants
const (
	ProductCacheTTL     = 5 * time.Minute // Single product cache
	ProductListCacheTTL = 2 * time.Minute // Product list cache (shorter due to frequent changes)
)

var ErrProductNotFound = errors.New("product not found")

type ProductsRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewProductsRepository(db *gorm.DB, redis *redis.Client) *ProductsRepository {
	return &ProductsRepository{
		db:    db,
		redis: redis,
	}
}

// generateListCacheKey creates a deterministic cache key for list queries
func generateListCacheKey(prefix string, params interface{}) string {
	data, _ := json.Marshal(params)
	hash := md5.Sum(data)
	return fmt.Sprintf("catalog:%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// invalidateProductCaches invalidates all caches related to a product
func (r *ProductsRepository) invalidateProductCaches(ctx context.Context, productID uuid.UUID) {
	if r.redis == nil {
		return
	}
	r.redis.Del(ctx, fmt.Sprintf("catalog:product:%s", productID.String()))
	r.invalidateListCaches(ctx)
}

func (r *ProductsRepository) invalidateListCaches(ctx context.Context) {
	if r.redis == nil {
		return
	}
	keys, _ := r.redis.Keys(ctx, "catalog:products:list:*").Result()
	if len(keys) > 0 {
		r.redis.Del(ctx, keys...)
	}
}

// CreateProduct creates a new product
func (r *ProductsRepository) CreateProduct(product *models.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	product.CreatedAt = time.Now()
	product.UpdatedAt = time.Now()

	err := r.db.Create(product).Error
	if err == nil {
		r.invalidateListCaches(context.Background())
	}
	return err
}

// BatchCreateProducts inserts products in a single statement. Used by the
// bulk import path, which feeds batches of at most 100 rows.
func (r *ProductsRepository) BatchCreateProducts(products []*models.Product) error {
	if len(products) == 0 {
		return nil
	}
	now := time.Now()
	for _, p := range products {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		p.CreatedAt = now
		p.UpdatedAt = now
	}
	err := r.db.Create(&products).Error
	if err == nil {
		r.invalidateListCaches(context.Background())
	}
	return err
}

// GetProductByID retrieves a product by ID with caching
func (r *ProductsRepository) GetProductByID(productID uuid.UUID) (*models.Product, error) {
	ctx := context.Background()
	cacheKey := fmt.Sprintf("catalog:product:%s", productID.String())

	if r.redis != nil {
		val, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var product models.Product
			if err := json.Unmarshal([]byte(val), &product); err == nil {
				return &product, nil
			}
		}
	}

	var product models.Product
	if err := r.db.Where("id = ?", productID).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	if r.redis != nil {
		if data, err := json.Marshal(product); err == nil {
			r.redis.Set(ctx, cacheKey, data, ProductCacheTTL)
		}
	}

	return &product, nil
}

// GetProducts retrieves products matching the filters, newest first,
// with caching keyed by the filter set.
func (r *ProductsRepository) GetProducts(filters *models.ProductFilters) ([]models.Product, int64, error) {
	ctx := context.Background()
	cacheKey := generateListCacheKey("products:list", filters)

	type listResult struct {
		Products []models.Product `json:"products"`
		Total    int64            `json:"total"`
	}

	if r.redis != nil {
		val, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var result listResult
			if err := json.Unmarshal([]byte(val), &result); err == nil {
				return result.Products, result.Total, nil
			}
		}
	}

	var products []models.Product
	var total int64

	query := r.db.Model(&models.Product{})
	if filters.Category != "" {
		query = query.Where("category = ?", filters.Category)
	}
	if filters.Subcategory != "" {
		query = query.Where("subcategory = ?", filters.Subcategory)
	}
	if filters.Search != "" {
		pattern := "%" + strings.ToLower(filters.Search) + "%"
		query = query.Where("LOWER(name) LIKE ?", pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filters.Page - 1) * filters.Limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(filters.Limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	if r.redis != nil {
		if data, err := json.Marshal(listResult{Products: products, Total: total}); err == nil {
			r.redis.Set(ctx, cacheKey, data, ProductListCacheTTL)
		}
	}

	return products, total, nil
}

// ListPage returns one page of products ordered by creation time
// descending. Page numbering starts at 0. Callers accumulate pages until
// a short or empty page signals the end of the table.
func (r *ProductsRepository) ListPage(page, pageSize int) ([]models.Product, error) {
	var products []models.Product
	err := r.db.Order("created_at DESC").
		Offset(page * pageSize).
		Limit(pageSize).
		Find(&products).Error
	return products, err
}

// UpdateProduct applies the given column updates to a product.
func (r *ProductsRepository) UpdateProduct(productID uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	result := r.db.Model(&models.Product{}).Where("id = ?", productID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	r.invalidateProductCaches(context.Background(), productID)
	return nil
}

// DeleteProduct removes a product
func (r *ProductsRepository) DeleteProduct(productID uuid.UUID) error {
	result := r.db.Where("id = ?", productID).Delete(&models.Product{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	r.invalidateProductCaches(context.Background(), productID)
	return nil
}

// GetDashboardCounts tallies products per category and per subcategory
// for the admin dashboard.
func (r *ProductsRepository) GetDashboardCounts() (int64, []models.CategoryCount, []models.CategoryCount, error) {
	var total int64
	if err := r.db.Model(&models.Product{}).Count(&total).Error; err != nil {
		return 0, nil, nil, err
	}

	var byCategory []models.CategoryCount
	err := r.db.Model(&models.Product{}).
		Select("category AS name, COUNT(*) AS count").
		Where("category <> ''").
		Group("category").
		Order("count DESC").
		Scan(&byCategory).Error
	if err != nil {
		return 0, nil, nil, err
	}

	var bySubcategory []models.CategoryCount
	err = r.db.Model(&models.Product{}).
		Select("subcategory AS name, COUNT(*) AS count").
		Where("subcategory IS NOT NULL AND subcategory <> ''").
		Group("subcategory").
		Order("count DESC").
		Scan(&bySubcategory).Error
	if err != nil {
		return 0, nil, nil, err
	}

	return total, byCategory, bySubcategory, nil
}
