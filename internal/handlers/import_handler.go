package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"catalog-service/internal/catalog"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
)

// ImportBatchSize is the number of products inserted per statement.
const ImportBatchSize = 100

// priceSanitizer strips currency symbols, separators and whitespace so
// values like "₹ 1,250.50" survive the float parse.
var priceSanitizer = regexp.MustCompile(`[^0-9.]`)

type ImportHandler struct {
	repo    *repository.ProductsRepository
	catalog *catalog.Service
	log     *logrus.Logger
}

func NewImportHandler(repo *repository.ProductsRepository, catalogService *catalog.Service, log *logrus.Logger) *ImportHandler {
	return &ImportHandler{
		repo:    repo,
		catalog: catalogService,
		log:     log,
	}
}

// GetImportTemplate returns the import template definition or file
// @Summary Get import template
// @Description Returns the product import template as JSON, CSV or XLSX
// @Tags Import
// @Produce json
// @Param format query string false "Template format: json, csv or xlsx" default(json)
// @Success 200 {object} models.ImportTemplate
// @Router /products/import/template [get]
func (h *ImportHandler) GetImportTemplate(c *gin.Context) {
	format := c.DefaultQuery("format", "json")

	template := models.ProductImportTemplate()

	switch format {
	case "csv":
		h.generateCSVTemplate(c, template)
	case "xlsx":
		h.generateXLSXTemplate(c, template)
	default:
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"template": template,
		})
	}
}

// generateCSVTemplate generates and downloads a CSV template (headers only)
func (h *ImportHandler) generateCSVTemplate(c *gin.Context, template models.ImportTemplate) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=products_import_template.csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	headers := make([]string, len(template.Columns))
	for i, col := range template.Columns {
		headers[i] = col.Name
	}
	writer.Write(headers)
}

// generateXLSXTemplate generates and downloads an Excel template
func (h *ImportHandler) generateXLSXTemplate(c *gin.Context, template models.ImportTemplate) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Products"
	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
	})

	for i, col := range template.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		headerText := col.Name
		if col.Required {
			headerText += " *"
		}
		f.SetCellValue(sheetName, cell, headerText)
		if col.Required {
			f.SetCellStyle(sheetName, cell, cell, requiredStyle)
		} else {
			f.SetCellStyle(sheetName, cell, cell, headerStyle)
		}
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 22)
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=products_import_template.xlsx")
	f.Write(c.Writer)
}

// ImportProducts imports products from a CSV or Excel file
// @Summary Import products
// @Description Bulk-create products from an uploaded spreadsheet. Any validation error blocks the whole import; valid files are inserted in batches.
// @Tags Import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX file"
// @Success 200 {object} models.ImportResult
// @Failure 400 {object} models.ErrorResponse
// @Router /products/import [post]
func (h *ImportHandler) ImportProducts(c *gin.Context) {
	startTime := time.Now()

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FILE_REQUIRED",
				Message: "Please upload a CSV or Excel file",
			},
		})
		return
	}
	defer file.Close()

	filename := strings.ToLower(header.Filename)
	var format models.ImportFormat
	switch {
	case strings.HasSuffix(filename, ".csv"):
		format = models.ImportFormatCSV
	case strings.HasSuffix(filename, ".xlsx"):
		format = models.ImportFormatXLSX
	default:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_FORMAT",
				Message: "Only CSV and XLSX files are supported",
			},
		})
		return
	}

	var rows []map[string]string
	var parseErr error
	if format == models.ImportFormatCSV {
		rows, parseErr = h.parseCSV(file)
	} else {
		rows, parseErr = h.parseXLSX(file)
	}
	if parseErr != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "PARSE_ERROR",
				Message: parseErr.Error(),
			},
		})
		return
	}
	if len(rows) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "EMPTY_FILE",
				Message: "The file contains no data rows",
			},
		})
		return
	}

	result := h.processImport(rows)
	result.ProcessingMs = time.Since(startTime).Milliseconds()

	if result.Success {
		h.catalog.Invalidate(c.Request.Context())
	}
	c.JSON(http.StatusOK, result)
}

// processImport validates every row first. A file with any invalid row
// is rejected wholesale so a partial import never needs untangling.
func (h *ImportHandler) processImport(rows []map[string]string) *models.ImportResult {
	result := &models.ImportResult{
		TotalRows: len(rows),
		Errors:    []models.ImportRowError{},
	}

	products := make([]*models.Product, 0, len(rows))
	for _, row := range rows {
		rowNum, _ := strconv.Atoi(row["_row"])
		h.validateRequiredFields(row, rowNum, result)
		if h.hasRowErrors(result, rowNum) {
			continue
		}
		products = append(products, rowToProduct(row))
	}

	if len(result.Errors) > 0 {
		result.Success = false
		result.FailedCount = result.TotalRows
		return result
	}

	for start := 0; start < len(products); start += ImportBatchSize {
		end := start + ImportBatchSize
		if end > len(products) {
			end = len(products)
		}
		batch := products[start:end]
		result.TotalBatches++

		if err := h.repo.BatchCreateProducts(batch); err != nil {
			h.log.WithError(err).WithField("batch", result.TotalBatches).Error("import batch insert failed")
			for _, p := range batch {
				result.Errors = append(result.Errors, models.ImportRowError{
					Code:    "INSERT_FAILED",
					Message: fmt.Sprintf("Failed to insert product %q", p.Name),
				})
			}
			result.FailedCount += len(batch)
			continue
		}
		result.CreatedCount += len(batch)
	}

	result.Success = result.FailedCount == 0
	return result
}

func (h *ImportHandler) validateRequiredFields(row map[string]string, rowNum int, result *models.ImportResult) {
	if row["name"] == "" {
		h.addError(result, rowNum, "name", "REQUIRED", fmt.Sprintf("Row %d: product name is required", rowNum))
	}
	if row["category"] == "" {
		h.addError(result, rowNum, "category", "REQUIRED", fmt.Sprintf("Row %d: category is required", rowNum))
	}
}

func (h *ImportHandler) addError(result *models.ImportResult, rowNum int, column, code, message string) {
	result.Errors = append(result.Errors, models.ImportRowError{
		Row:     rowNum,
		Column:  column,
		Code:    code,
		Message: message,
	})
}

func (h *ImportHandler) hasRowErrors(result *models.ImportResult, rowNum int) bool {
	for _, e := range result.Errors {
		if e.Row == rowNum {
			return true
		}
	}
	return false
}

// rowToProduct maps a validated spreadsheet row to a product record.
func rowToProduct(row map[string]string) *models.Product {
	imageURL := row["image_url"]
	if imageURL == "" {
		imageURL = models.PlaceholderImageURL
	}
	return &models.Product{
		Name:        row["name"],
		Category:    row["category"],
		Subcategory: optionalString(row["subcategory"]),
		ImageURL:    imageURL,
		Price:       parsePrice(row["price"]),
		Size:        optionalString(row["size"]),
	}
}

// parsePrice strips currency noise before parsing. Values that still do
// not parse are imported without a price rather than failing the row.
func parsePrice(value string) *float64 {
	cleaned := priceSanitizer.ReplaceAllString(value, "")
	if cleaned == "" {
		return nil
	}
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &price
}

// optionalString returns nil for empty strings, pointer otherwise
func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// parseCSV parses a CSV file into rows keyed by the header labels
func (h *ImportHandler) parseCSV(file io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	for i := range headers {
		headers[i] = normalizeHeader(headers[i])
	}

	var rows []map[string]string
	lineNum := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading line %d: %w", lineNum+1, err)
		}

		row := make(map[string]string)
		for i, value := range record {
			if i < len(headers) {
				row[headers[i]] = strings.TrimSpace(value)
			}
		}
		row["_row"] = strconv.Itoa(lineNum + 1) // Track row number for error reporting
		rows = append(rows, row)
		lineNum++
	}

	return rows, nil
}

// parseXLSX parses an Excel file into rows
func (h *ImportHandler) parseXLSX(file io.Reader) ([]map[string]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	sheetName := sheets[0]
	for _, name := range sheets {
		if strings.EqualFold(name, "Products") {
			sheetName = name
			break
		}
	}

	excelRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(excelRows) < 2 {
		return nil, fmt.Errorf("file must have a header row and at least one data row")
	}

	headers := excelRows[0]
	for i := range headers {
		headers[i] = normalizeHeader(headers[i])
	}

	var rows []map[string]string
	for rowIdx, excelRow := range excelRows[1:] {
		row := make(map[string]string)
		for i, value := range excelRow {
			if i < len(headers) {
				row[headers[i]] = strings.TrimSpace(value)
			}
		}
		row["_row"] = strconv.Itoa(rowIdx + 2) // 1-indexed, +1 for header
		rows = append(rows, row)
	}

	return rows, nil
}

// normalizeHeader lowercases a header label and drops the required marker
// the XLSX template adds.
func normalizeHeader(header string) string {
	header = strings.TrimSpace(strings.ToLower(header))
	return strings.TrimSuffix(header, " *")
}
