package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-service/internal/catalog"
	"catalog-service/internal/models"
)

func sPtr(s string) *string {
	return &s
}

func TestBuildExportRecords(t *testing.T) {
	berries := "Berries"
	price := 120.0
	size := "250 g"

	products := []models.Product{
		{
			Name:        "Strawberries",
			Category:    "Fruits",
			Subcategory: &berries,
			ImageURL:    "https://img.example.com/straw.jpg",
			Price:       &price,
			Size:        &size,
		},
		{
			Name:     "Milk",
			Category: "Dairy",
			ImageURL: "https://img.example.com/milk.jpg",
		},
	}

	t.Run("HeaderRowMatchesFixedColumnOrder", func(t *testing.T) {
		records := buildExportRecords(products, nil)
		require.NotEmpty(t, records)
		assert.Equal(t, models.ExportColumns, records[0])
	})

	t.Run("ImagesResolvedFromMetadata", func(t *testing.T) {
		lookup := map[string]models.CategoryMeta{
			catalog.MetaKey("", "Fruits"):       {Name: "Fruits", ImageURL: sPtr("https://cdn.example.com/fruits.png")},
			catalog.MetaKey("Fruits", "Berries"): {Name: "Berries", ImageURL: sPtr("https://cdn.example.com/berries.png")},
		}

		records := buildExportRecords(products, lookup)
		require.Len(t, records, 3)

		row := records[1]
		assert.Equal(t, "Fruits", row[0])
		assert.Equal(t, "Berries", row[1])
		assert.Equal(t, "Strawberries", row[2])
		assert.Equal(t, "250 g", row[3])
		assert.Equal(t, "120", row[4])
		assert.Equal(t, "https://img.example.com/straw.jpg", row[5])
		assert.Equal(t, "https://cdn.example.com/fruits.png", row[6])
		assert.Equal(t, "https://cdn.example.com/berries.png", row[7])
	})

	t.Run("SubcategoryImageFallsBackToFirstProductImage", func(t *testing.T) {
		records := buildExportRecords(products, nil)
		require.Len(t, records, 3)

		// No metadata: subcategory column inherits the first product image
		// under Fruits/Berries.
		assert.Equal(t, "https://img.example.com/straw.jpg", records[1][7])
		// Category image stays empty without metadata.
		assert.Equal(t, "", records[1][6])
	})

	t.Run("NoSubcategoryLeavesColumnsEmpty", func(t *testing.T) {
		records := buildExportRecords(products, nil)
		row := records[2]
		assert.Equal(t, "Dairy", row[0])
		assert.Equal(t, "", row[1])
		assert.Equal(t, "", row[3])
		assert.Equal(t, "", row[4])
		assert.Equal(t, "", row[7])
	})
}
