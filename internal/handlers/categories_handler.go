package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"catalog-service/internal/catalog"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
)

// categoryMetaColumns is the fixed column order of the category
// metadata spreadsheet.
var categoryMetaColumns = []string{"name", "parent_name", "image_url", "link"}

type CategoriesHandler struct {
	repo    *repository.CategoriesRepository
	catalog *catalog.Service
	log     *logrus.Logger
}

func NewCategoriesHandler(repo *repository.CategoriesRepository, catalogService *catalog.Service, log *logrus.Logger) *CategoriesHandler {
	return &CategoriesHandler{
		repo:    repo,
		catalog: catalogService,
		log:     log,
	}
}

// GetCategoryTree returns the merged category tree
// @Summary Get category tree
// @Description Get the category tree derived from products, decorated with category metadata, sorted alphabetically
// @Tags Categories
// @Accept json
// @Produce json
// @Success 200 {object} models.CategoryTreeResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /categories/tree [get]
func (h *CategoriesHandler) GetCategoryTree(c *gin.Context) {
	snap, cached, err := h.catalog.LoadSnapshot(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("failed to build category tree")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to build category tree",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.CategoryTreeResponse{
		Success: true,
		Data:    snap.Categories,
		Cached:  cached,
	})
}

// GetCategoryMeta lists all category metadata rows
// @Summary Get category metadata
// @Description Get every category metadata row, including rows for categories no product references
// @Tags Categories
// @Accept json
// @Produce json
// @Success 200 {object} models.CategoryMetaListResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /categories/meta [get]
func (h *CategoriesHandler) GetCategoryMeta(c *gin.Context) {
	meta, err := h.repo.GetAllMeta()
	if err != nil {
		h.log.WithError(err).Error("failed to list category metadata")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to retrieve category metadata",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.CategoryMetaListResponse{Success: true, Data: meta})
}

// UpsertCategoryMeta creates or updates a metadata row
// @Summary Upsert category metadata
// @Description Create or update presentation metadata for a category or subcategory, keyed by (name, parent_name)
// @Tags Categories
// @Accept json
// @Produce json
// @Param meta body models.UpsertCategoryMetaRequest true "Category metadata"
// @Success 200 {object} models.CategoryMetaResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /categories/meta [put]
func (h *CategoriesHandler) UpsertCategoryMeta(c *gin.Context) {
	var req models.UpsertCategoryMetaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	meta := models.CategoryMeta{
		Name:       req.Name,
		ParentName: req.ParentName,
		ImageURL:   req.ImageURL,
		Link:       req.Link,
	}
	if err := h.repo.UpsertMeta(&meta); err != nil {
		h.log.WithError(err).Error("failed to upsert category metadata")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to save category metadata",
			},
		})
		return
	}

	h.catalog.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, models.CategoryMetaResponse{Success: true, Data: &meta})
}

// DeleteCategoryMeta removes a metadata row
// @Summary Delete category metadata
// @Description Delete a category metadata row by ID. Categories referenced by products remain in the tree without decoration.
// @Tags Categories
// @Accept json
// @Produce json
// @Param id path string true "Metadata row ID"
// @Success 200 {object} models.CategoryMetaResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /categories/meta/{id} [delete]
func (h *CategoriesHandler) DeleteCategoryMeta(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.repo.DeleteMeta(id); err != nil {
		if err == repository.ErrCategoryMetaNotFound {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "NOT_FOUND",
					Message: "Category metadata not found",
				},
			})
			return
		}
		h.log.WithError(err).Error("failed to delete category metadata")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to delete category metadata",
			},
		})
		return
	}

	h.catalog.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, models.CategoryMetaResponse{Success: true})
}

// ExportCategoryMeta exports all metadata rows as a spreadsheet
// @Summary Export category metadata
// @Description Export every category metadata row as XLSX with columns name, parent_name, image_url, link
// @Tags Categories
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Failure 500 {object} models.ErrorResponse
// @Router /categories/meta/export [get]
func (h *CategoriesHandler) ExportCategoryMeta(c *gin.Context) {
	meta, err := h.repo.GetAllMeta()
	if err != nil {
		h.log.WithError(err).Error("failed to load category metadata for export")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to load category metadata",
			},
		})
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Categories"
	f.SetSheetName("Sheet1", sheetName)

	for i, col := range categoryMetaColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col)
	}
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	for rowIdx, m := range meta {
		values := []string{m.Name, deref(m.ParentName), deref(m.ImageURL), deref(m.Link)}
		for colIdx, value := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}
	for i := range categoryMetaColumns {
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 24)
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=categories_export.xlsx")
	f.Write(c.Writer)
}

// ImportCategoryMeta upserts metadata rows from a spreadsheet
// @Summary Import category metadata
// @Description Upsert category metadata rows from an uploaded XLSX file. Rows with an empty name are skipped.
// @Tags Categories
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "XLSX file with columns name, parent_name, image_url, link"
// @Success 200 {object} models.CategoryMetaListResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /categories/meta/import [post]
func (h *CategoriesHandler) ImportCategoryMeta(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FILE_REQUIRED",
				Message: "Please upload an Excel file",
			},
		})
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".xlsx") {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_FORMAT",
				Message: "Only XLSX files are supported",
			},
		})
		return
	}

	rows, err := parseMetaXLSX(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "PARSE_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	var upserts []*models.CategoryMeta
	for _, row := range rows {
		name := strings.TrimSpace(row["name"])
		if name == "" {
			continue
		}
		upserts = append(upserts, &models.CategoryMeta{
			Name:       name,
			ParentName: optionalString(strings.TrimSpace(row["parent_name"])),
			ImageURL:   optionalString(strings.TrimSpace(row["image_url"])),
			Link:       optionalString(strings.TrimSpace(row["link"])),
		})
	}
	if len(upserts) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "EMPTY_FILE",
				Message: "The file contains no usable rows",
			},
		})
		return
	}

	if err := h.repo.UpsertMetaBatch(upserts); err != nil {
		h.log.WithError(err).Error("failed to upsert imported category metadata")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to save category metadata",
			},
		})
		return
	}

	h.catalog.Invalidate(c.Request.Context())

	saved := make([]models.CategoryMeta, len(upserts))
	for i, m := range upserts {
		saved[i] = *m
	}
	c.JSON(http.StatusOK, models.CategoryMetaListResponse{Success: true, Data: saved})
}

// parseMetaXLSX reads the first sheet into header-keyed rows.
func parseMetaXLSX(file io.Reader) ([]map[string]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	excelRows, err := f.GetRows(sheets[0])
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
	for _, excelRow := range excelRows[1:] {
		row := make(map[string]string)
		for i, value := range excelRow {
			if i < len(headers) {
				row[headers[i]] = strings.TrimSpace(value)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
