package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"catalog-service/internal/catalog"
	"catalog-service/internal/models"
)

// ExportHandler streams the full catalogue as a spreadsheet whose layout
// round-trips through the import endpoint.
type ExportHandler struct {
	catalog *catalog.Service
	log     *logrus.Logger
}

func NewExportHandler(catalogService *catalog.Service, log *logrus.Logger) *ExportHandler {
	return &ExportHandler{
		catalog: catalogService,
		log:     log,
	}
}

// ExportProducts exports the product catalogue
// @Summary Export products
// @Description Export all products, or a selection by ID, as CSV or XLSX, with category and subcategory image columns resolved from the category metadata
// @Tags Import
// @Produce text/csv
// @Param format query string false "Export format: csv or xlsx" default(csv)
// @Param ids query string false "Comma-separated product IDs; empty exports everything"
// @Success 200 {file} binary
// @Failure 500 {object} models.ErrorResponse
// @Router /products/export [get]
func (h *ExportHandler) ExportProducts(c *gin.Context) {
	ctx := c.Request.Context()

	snap, _, err := h.catalog.LoadSnapshot(ctx)
	if err != nil {
		h.log.WithError(err).Error("failed to load catalogue for export")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to load catalogue data",
			},
		})
		return
	}
	products, _, err := h.catalog.LoadProducts(ctx)
	if err != nil {
		h.log.WithError(err).Error("failed to load products for export")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to load product data",
			},
		})
		return
	}

	products = filterByIDs(products, c.Query("ids"))
	records := buildExportRecords(products, snap.Lookup)

	switch c.DefaultQuery("format", "csv") {
	case "xlsx":
		h.writeXLSX(c, records)
	default:
		h.writeCSV(c, records)
	}
}

// filterByIDs narrows products to a comma-separated ID selection.
// An empty selection exports everything.
func filterByIDs(products []models.Product, ids string) []models.Product {
	if strings.TrimSpace(ids) == "" {
		return products
	}
	wanted := make(map[string]struct{})
	for _, id := range strings.Split(ids, ",") {
		if id = strings.TrimSpace(id); id != "" {
			wanted[id] = struct{}{}
		}
	}
	var selected []models.Product
	for _, p := range products {
		if _, ok := wanted[p.ID.String()]; ok {
			selected = append(selected, p)
		}
	}
	return selected
}

// buildExportRecords flattens products into export rows. The category
// image comes from metadata; the subcategory image falls back to the
// first product image under that subcategory when no metadata exists.
func buildExportRecords(products []models.Product, lookup map[string]models.CategoryMeta) [][]string {
	records := [][]string{models.ExportColumns}

	firstImage := make(map[string]string)
	for _, p := range products {
		sub := p.SubcategoryName()
		if sub == "" || p.ImageURL == "" {
			continue
		}
		key := catalog.MetaKey(p.Category, sub)
		if _, seen := firstImage[key]; !seen {
			firstImage[key] = p.ImageURL
		}
	}

	for _, p := range products {
		sub := p.SubcategoryName()

		price := ""
		if p.Price != nil {
			price = strconv.FormatFloat(*p.Price, 'f', -1, 64)
		}
		size := ""
		if p.Size != nil {
			size = *p.Size
		}

		categoryImage := ""
		if meta, ok := lookup[catalog.MetaKey("", p.Category)]; ok && meta.ImageURL != nil {
			categoryImage = *meta.ImageURL
		}

		subcategoryImage := ""
		if sub != "" {
			key := catalog.MetaKey(p.Category, sub)
			if meta, ok := lookup[key]; ok && meta.ImageURL != nil {
				subcategoryImage = *meta.ImageURL
			}
			if subcategoryImage == "" {
				subcategoryImage = firstImage[key]
			}
		}

		records = append(records, []string{
			p.Category,
			sub,
			p.Name,
			size,
			price,
			p.ImageURL,
			categoryImage,
			subcategoryImage,
		})
	}

	return records
}

func (h *ExportHandler) writeCSV(c *gin.Context, records [][]string) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=products_export.csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()
	writer.WriteAll(records)
}

func (h *ExportHandler) writeXLSX(c *gin.Context, records [][]string) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Products"
	f.SetSheetName("Sheet1", sheetName)

	for rowIdx, record := range records {
		for colIdx, value := range record {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			f.SetCellValue(sheetName, cell, value)
		}
	}
	for i := range models.ExportColumns {
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 24)
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", "products_export.xlsx"))
	f.Write(c.Writer)
}
