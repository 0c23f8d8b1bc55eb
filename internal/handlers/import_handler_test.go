package handlers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-service/internal/models"
)

func TestParseCSV(t *testing.T) {
	h := &ImportHandler{log: testLogger()}

	t.Run("MapsRowsByHeader", func(t *testing.T) {
		csv := "category,subcategory,name,size,price,image_url\n" +
			"Fruits,Berries,Strawberries,250 g,120,https://img.example.com/s.jpg\n" +
			"Dairy,,Milk,1 L,60,\n"

		rows, err := h.parseCSV(strings.NewReader(csv))
		require.NoError(t, err)
		require.Len(t, rows, 2)

		assert.Equal(t, "Fruits", rows[0]["category"])
		assert.Equal(t, "Strawberries", rows[0]["name"])
		assert.Equal(t, "2", rows[0]["_row"])
		assert.Equal(t, "", rows[1]["subcategory"])
		assert.Equal(t, "3", rows[1]["_row"])
	})

	t.Run("NormalizesHeaderCaseAndMarkers", func(t *testing.T) {
		csv := "Category *,Name *\nFruits,Apples\n"

		rows, err := h.parseCSV(strings.NewReader(csv))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Fruits", rows[0]["category"])
		assert.Equal(t, "Apples", rows[0]["name"])
	})

	t.Run("TrimsCellWhitespace", func(t *testing.T) {
		csv := "category,name\n  Fruits  ,  Apples \n"

		rows, err := h.parseCSV(strings.NewReader(csv))
		require.NoError(t, err)
		assert.Equal(t, "Fruits", rows[0]["category"])
	})
}

func TestProcessImportValidation(t *testing.T) {
	h := &ImportHandler{log: testLogger()}

	t.Run("AnyInvalidRowBlocksWholeImport", func(t *testing.T) {
		rows := []map[string]string{
			{"_row": "2", "name": "Strawberries", "category": "Fruits"},
			{"_row": "3", "name": "", "category": "Dairy"},
		}

		result := h.processImport(rows)

		assert.False(t, result.Success)
		assert.Equal(t, 0, result.CreatedCount)
		assert.Equal(t, 2, result.FailedCount)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, 3, result.Errors[0].Row)
		assert.Equal(t, "name", result.Errors[0].Column)
		assert.Contains(t, result.Errors[0].Message, "Row 3")
	})

	t.Run("MissingCategoryReported", func(t *testing.T) {
		rows := []map[string]string{
			{"_row": "2", "name": "Milk", "category": ""},
		}

		result := h.processImport(rows)

		assert.False(t, result.Success)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "category", result.Errors[0].Column)
	})
}

func TestRowToProduct(t *testing.T) {
	t.Run("FullRow", func(t *testing.T) {
		p := rowToProduct(map[string]string{
			"name":        "Strawberries",
			"category":    "Fruits",
			"subcategory": "Berries",
			"size":        "250 g",
			"price":       "₹ 1,250.50",
			"image_url":   "https://img.example.com/s.jpg",
		})

		assert.Equal(t, "Strawberries", p.Name)
		assert.Equal(t, "Fruits", p.Category)
		require.NotNil(t, p.Subcategory)
		assert.Equal(t, "Berries", *p.Subcategory)
		require.NotNil(t, p.Price)
		assert.InDelta(t, 1250.50, *p.Price, 0.001)
	})

	t.Run("EmptyImageGetsPlaceholder", func(t *testing.T) {
		p := rowToProduct(map[string]string{
			"name":     "Milk",
			"category": "Dairy",
		})
		assert.Equal(t, models.PlaceholderImageURL, p.ImageURL)
	})

	t.Run("EmptyOptionalsAreNil", func(t *testing.T) {
		p := rowToProduct(map[string]string{
			"name":     "Milk",
			"category": "Dairy",
		})
		assert.Nil(t, p.Subcategory)
		assert.Nil(t, p.Size)
		assert.Nil(t, p.Price)
	})
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *float64
	}{
		{"Plain", "40", f64(40)},
		{"Decimal", "12.50", f64(12.5)},
		{"CurrencySymbol", "$9.99", f64(9.99)},
		{"ThousandsSeparator", "1,250", f64(1250)},
		{"Whitespace", " 15 ", f64(15)},
		{"Empty", "", nil},
		{"NonNumeric", "call for price", nil},
		{"MultipleDots", "1.2.3", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parsePrice(tt.input)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 0.001)
		})
	}
}

func f64(v float64) *float64 {
	return &v
}
