package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"catalog-service/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CategoryMetaCacheTTL bounds staleness of the metadata list cache.
// Category metadata rarely changes.
const CategoryMetaCacheTTL = 30 * time.Minute

const categoryMetaListKey = "catalog:categories:meta"

var ErrCategoryMetaNotFound = errors.New("category metadata not found")

type CategoriesRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewCategoriesRepository(db *gorm.DB, redis *redis.Client) *CategoriesRepository {
	return &CategoriesRepository{
		db:    db,
		redis: redis,
	}
}

func (r *CategoriesRepository) invalidateMetaCache(ctx context.Context) {
	if r.redis == nil {
		return
	}
	r.redis.Del(ctx, categoryMetaListKey)
}

// GetAllMeta returns every category metadata row, cached.
func (r *CategoriesRepository) GetAllMeta() ([]models.CategoryMeta, error) {
	ctx := context.Background()

	if r.redis != nil {
		val, err := r.redis.Get(ctx, categoryMetaListKey).Result()
		if err == nil {
			var meta []models.CategoryMeta
			if err := json.Unmarshal([]byte(val), &meta); err == nil {
				return meta, nil
			}
		}
	}

	var meta []models.CategoryMeta
	if err := r.db.Order("name ASC").Find(&meta).Error; err != nil {
		return nil, err
	}

	if r.redis != nil {
		if data, err := json.Marshal(meta); err == nil {
			r.redis.Set(ctx, categoryMetaListKey, data, CategoryMetaCacheTTL)
		}
	}

	return meta, nil
}

// metaUpsertClauses is the shared upsert shape: conflict on the
// (name, parent_name) unique index, update only the mutable columns,
// and RETURNING so callers see the stored row (id and created_at keep
// their original values when an existing row is updated).
func metaUpsertClauses() []clause.Expression {
	return []clause.Expression{
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}, {Name: "parent_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"image_url", "link", "updated_at"}),
		},
		clause.Returning{},
	}
}

// metaRowKey normalizes (parent, name) the same way the category tree
// lookup does: trimmed and lowercased, nil parent as empty.
func metaRowKey(m *models.CategoryMeta) string {
	return strings.ToLower(strings.TrimSpace(m.ParentLabel())) + ":" + strings.ToLower(strings.TrimSpace(m.Name))
}

// dedupeMetaRows collapses rows sharing a (parent, name) key so a
// single INSERT ... ON CONFLICT statement never touches the same row
// twice. The last occurrence wins, matching the order-dependent result
// of upserting the rows one by one.
func dedupeMetaRows(rows []*models.CategoryMeta) []*models.CategoryMeta {
	seen := make(map[string]int, len(rows))
	out := make([]*models.CategoryMeta, 0, len(rows))
	for _, m := range rows {
		key := metaRowKey(m)
		if i, ok := seen[key]; ok {
			out[i] = m
			continue
		}
		seen[key] = len(out)
		out = append(out, m)
	}
	return out
}

// UpsertMeta inserts or updates a metadata row keyed by
// (name, parent_name). updated_at is refreshed on every write, and
// meta is populated with the stored row after the write.
func (r *CategoriesRepository) UpsertMeta(meta *models.CategoryMeta) error {
	if meta.ID == uuid.Nil {
		meta.ID = uuid.New()
	}
	now := time.Now()
	meta.CreatedAt = now
	meta.UpdatedAt = now

	err := r.db.Clauses(metaUpsertClauses()...).Create(meta).Error
	if err == nil {
		r.invalidateMetaCache(context.Background())
	}
	return err
}

// UpsertMetaBatch upserts a set of metadata rows, one statement.
// Rows with empty names must be filtered out by the caller.
func (r *CategoriesRepository) UpsertMetaBatch(rows []*models.CategoryMeta) error {
	rows = dedupeMetaRows(rows)
	if len(rows) == 0 {
		return nil
	}
	now := time.Now()
	for _, m := range rows {
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
		m.CreatedAt = now
		m.UpdatedAt = now
	}
	err := r.db.Clauses(metaUpsertClauses()...).Create(&rows).Error
	if err == nil {
		r.invalidateMetaCache(context.Background())
	}
	return err
}

// DeleteMeta removes a metadata row by ID.
func (r *CategoriesRepository) DeleteMeta(id uuid.UUID) error {
	result := r.db.Where("id = ?", id).Delete(&models.CategoryMeta{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCategoryMetaNotFound
	}
	r.invalidateMetaCache(context.Background())
	return nil
}
