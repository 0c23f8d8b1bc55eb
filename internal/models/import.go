package models

// ImportFormat identifies the uploaded spreadsheet format
type ImportFormat string

const (
	ImportFormatCSV  ImportFormat = "csv"
	ImportFormatXLSX ImportFormat = "xlsx"
)

// PlaceholderImageURL is substituted for import rows without an image.
const PlaceholderImageURL = "https://placehold.co/600x400/png?text=No+Image"

// ImportColumn describes a single column in the import template
type ImportColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"`
	Example     string `json:"example"`
}

// ImportTemplate describes the expected import file layout
type ImportTemplate struct {
	Columns []ImportColumn `json:"columns"`
}

// ProductImportTemplate returns the import template for products
func ProductImportTemplate() ImportTemplate {
	return ImportTemplate{
		Columns: []ImportColumn{
			{Name: "category", Description: "Top-level category label", Required: true, Type: "string", Example: "Fruits"},
			{Name: "subcategory", Description: "Subcategory label within the category", Required: false, Type: "string", Example: "Tropical"},
			{Name: "name", Description: "Product name", Required: true, Type: "string", Example: "Organic Bananas"},
			{Name: "size", Description: "Pack size or weight", Required: false, Type: "string", Example: "1 kg"},
			{Name: "price", Description: "Unit price; currency symbols are stripped", Required: false, Type: "number", Example: "40"},
			{Name: "image_url", Description: "Product image URL; a placeholder is used when empty", Required: false, Type: "string", Example: "https://images.example.com/bananas.jpg"},
		},
	}
}

// ExportColumns is the fixed product export column order. The last two
// are populated from the category metadata lookup.
var ExportColumns = []string{
	"category",
	"subcategory",
	"name",
	"size",
	"price",
	"image_url",
	"Category_image_url",
	"subcategory_image_url",
}

// ImportRowError represents an error for a specific row during import
type ImportRowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ImportResult represents the result of a bulk import operation
type ImportResult struct {
	Success      bool             `json:"success"`
	TotalRows    int              `json:"totalRows"`
	CreatedCount int              `json:"createdCount"`
	FailedCount  int              `json:"failedCount"`
	TotalBatches int              `json:"totalBatches"`
	Errors       []ImportRowError `json:"errors"`
	ProcessingMs int64            `json:"processingMs"`
}
