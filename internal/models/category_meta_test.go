package models_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"

	"catalog-service/internal/models"
)

// Top-level categories store a NULL parent_name. Postgres treats NULLs
// as distinct by default, so the (name, parent_name) conflict target
// only arbitrates top-level upserts when the unique index is declared
// NULLS NOT DISTINCT. Without it, editing a top-level category twice
// inserts a duplicate row instead of updating.
func TestCategoryMetaUniqueIndexCoversNullParent(t *testing.T) {
	s, err := schema.Parse(&models.CategoryMeta{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	idx := s.LookIndex("idx_name_parent")
	require.NotNil(t, idx)

	assert.Equal(t, "UNIQUE", idx.Class)
	assert.Equal(t, "NULLS NOT DISTINCT", idx.Option)

	cols := make([]string, 0, len(idx.Fields))
	for _, f := range idx.Fields {
		cols = append(cols, f.DBName)
	}
	assert.ElementsMatch(t, []string{"name", "parent_name"}, cols)
}
