package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"catalog-service/internal/catalog"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"catalog-service/internal/storage"
)

// maxUploadBytes bounds product image uploads.
const maxUploadBytes = 10 << 20

type ProductsHandler struct {
	repo    *repository.ProductsRepository
	catalog *catalog.Service
	store   storage.Client
	log     *logrus.Logger
}

func NewProductsHandler(repo *repository.ProductsRepository, catalogService *catalog.Service, store storage.Client, log *logrus.Logger) *ProductsHandler {
	return &ProductsHandler{
		repo:    repo,
		catalog: catalogService,
		store:   store,
		log:     log,
	}
}

// GetProducts lists products
// @Summary Get products
// @Description Get products with optional category, subcategory and name filters, paginated
// @Tags Products
// @Accept json
// @Produce json
// @Param category query string false "Category filter"
// @Param subcategory query string false "Subcategory filter"
// @Param search query string false "Case-insensitive name search"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(50)
// @Success 200 {object} models.ProductListResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /products [get]
func (h *ProductsHandler) GetProducts(c *gin.Context) {
	var filters models.ProductFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.Limit < 1 || filters.Limit > 200 {
		filters.Limit = 50
	}

	products, total, err := h.repo.GetProducts(&filters)
	if err != nil {
		h.log.WithError(err).Error("failed to list products")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to retrieve products",
			},
		})
		return
	}

	totalPages := int((total + int64(filters.Limit) - 1) / int64(filters.Limit))
	c.JSON(http.StatusOK, models.ProductListResponse{
		Success: true,
		Data:    products,
		Pagination: &models.PaginationInfo{
			Page:        filters.Page,
			Limit:       filters.Limit,
			Total:       total,
			TotalPages:  totalPages,
			HasNext:     filters.Page < totalPages,
			HasPrevious: filters.Page > 1,
		},
	})
}

// GetProduct retrieves a single product
// @Summary Get product
// @Description Get a product by ID
// @Tags Products
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} models.ProductResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /products/{id} [get]
func (h *ProductsHandler) GetProduct(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	product, err := h.repo.GetProductByID(id)
	if err != nil {
		if err == repository.ErrProductNotFound {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "NOT_FOUND",
					Message: "Product not found",
				},
			})
			return
		}
		h.log.WithError(err).Error("failed to get product")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to retrieve product",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.ProductResponse{Success: true, Data: product})
}

// CreateProduct creates a new product
// @Summary Create product
// @Description Create a new product
// @Tags Products
// @Accept json
// @Produce json
// @Param product body models.CreateProductRequest true "Product data"
// @Success 201 {object} models.ProductResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /products [post]
func (h *ProductsHandler) CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
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
	if verr := req.Validate(); verr != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Error: *verr})
		return
	}

	imageURL := req.ImageURL
	if imageURL == "" {
		imageURL = models.PlaceholderImageURL
	}

	product := models.Product{
		Name:        req.Name,
		Category:    req.Category,
		Subcategory: req.Subcategory,
		ImageURL:    imageURL,
		Price:       req.Price,
		Size:        req.Size,
	}

	if err := h.repo.CreateProduct(&product); err != nil {
		h.log.WithError(err).Error("failed to create product")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to create product",
			},
		})
		return
	}

	h.catalog.Invalidate(c.Request.Context())
	c.JSON(http.StatusCreated, models.ProductResponse{Success: true, Data: &product})
}

// UpdateProduct updates an existing product
// @Summary Update product
// @Description Update an existing product; omitted fields are left unchanged
// @Tags Products
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param product body models.UpdateProductRequest true "Product data"
// @Success 200 {object} models.ProductResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /products/{id} [put]
func (h *ProductsHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateProductRequest
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

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Subcategory != nil {
		updates["subcategory"] = *req.Subcategory
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Size != nil {
		updates["size"] = *req.Size
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: "No fields to update",
			},
		})
		return
	}

	if err := h.repo.UpdateProduct(id, updates); err != nil {
		if err == repository.ErrProductNotFound {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "NOT_FOUND",
					Message: "Product not found",
				},
			})
			return
		}
		h.log.WithError(err).Error("failed to update product")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to update product",
			},
		})
		return
	}

	h.catalog.Invalidate(c.Request.Context())

	product, err := h.repo.GetProductByID(id)
	if err != nil {
		h.log.WithError(err).Error("failed to reload product after update")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to retrieve updated product",
			},
		})
		return
	}
	c.JSON(http.StatusOK, models.ProductResponse{Success: true, Data: product})
}

// DeleteProduct removes a product
// @Summary Delete product
// @Description Delete a product by ID
// @Tags Products
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} models.ProductResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /products/{id} [delete]
func (h *ProductsHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.repo.DeleteProduct(id); err != nil {
		if err == repository.ErrProductNotFound {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "NOT_FOUND",
					Message: "Product not found",
				},
			})
			return
		}
		h.log.WithError(err).Error("failed to delete product")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to delete product",
			},
		})
		return
	}

	h.catalog.Invalidate(c.Request.Context())
	msg := "Product deleted"
	c.JSON(http.StatusOK, models.ProductResponse{Success: true, Message: &msg})
}

// UploadImage stores a product image and returns its public URL
// @Summary Upload product image
// @Description Upload an image to object storage and return its public URL for use as a product image_url
// @Tags Products
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image file"
// @Success 201 {object} models.UploadResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /products/images [post]
func (h *ProductsHandler) UploadImage(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: "file form field is required",
				Field:   "file",
			},
		})
		return
	}
	defer file.Close()

	if header.Size > maxUploadBytes {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: "File exceeds the 10 MB upload limit",
				Field:   "file",
			},
		})
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		h.log.WithError(err).Error("failed to read uploaded file")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to read uploaded file",
			},
		})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	url, err := h.store.Upload(c.Request.Context(), header.Filename, contentType, data)
	if err != nil {
		h.log.WithError(err).Error("failed to upload image")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "UPLOAD_FAILED",
				Message: "Failed to store the uploaded image",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, models.UploadResponse{Success: true, URL: url})
}

// parseUUIDParam parses a UUID path parameter, writing the 400 response
// itself on failure.
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: "Invalid ID format",
				Field:   name,
			},
		})
		return uuid.Nil, false
	}
	return id, true
}
