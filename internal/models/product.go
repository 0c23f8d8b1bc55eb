package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Product represents a catalogue product. Category and subcategory are
// free-text labels, not foreign keys; category is required, subcategory
// optional.
type Product struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name        string    `json:"name" gorm:"not null"`
	Category    string    `json:"category" gorm:"not null;index"`
	Subcategory *string   `json:"subcategory,omitempty" gorm:"index"`
	ImageURL    string    `json:"image_url"`
	Price       *float64  `json:"price,omitempty"`
	Size        *string   `json:"size,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// SubcategoryName returns the subcategory label or "" when unset.
func (p *Product) SubcategoryName() string {
	if p.Subcategory == nil {
		return ""
	}
	return *p.Subcategory
}

// CategoryMeta is admin-authored presentation data (image, custom link)
// for a category or subcategory, independent of product existence.
// ParentName == nil denotes a top-level category. At most one row exists
// per (name, parent_name) pair; the index must treat NULL parents as
// equal or the upsert conflict target never fires for top-level rows.
type CategoryMeta struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name       string    `json:"name" gorm:"not null;uniqueIndex:idx_name_parent"`
	ParentName *string   `json:"parent_name" gorm:"uniqueIndex:idx_name_parent,option:NULLS NOT DISTINCT"`
	ImageURL   *string   `json:"image_url"`
	Link       *string   `json:"link"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName returns the table name for the CategoryMeta model
func (CategoryMeta) TableName() string {
	return "categories"
}

// ParentLabel returns the parent category label or "" for top-level rows.
func (m *CategoryMeta) ParentLabel() string {
	if m.ParentName == nil {
		return ""
	}
	return *m.ParentName
}

// Profile represents an application user visible in the admin area.
type Profile struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Email        string     `json:"email" gorm:"not null;uniqueIndex"`
	FullName     *string    `json:"full_name"`
	IsApproved   bool       `json:"is_approved" gorm:"default:false"`
	AccessExpiry *time.Time `json:"access_expiry"`
	CreatedAt    time.Time  `json:"created_at"`
}

// TableName returns the table name for the Profile model
func (Profile) TableName() string {
	return "profiles"
}

// MergedCategory is the derived, renderable category tree node: product
// membership defines the structure, CategoryMeta decorates it. HasMeta is
// false when the category exists only because products reference it.
type MergedCategory struct {
	Name          string           `json:"name"`
	ParentName    *string          `json:"parent_name"`
	ImageURL      *string          `json:"image_url"`
	Link          *string          `json:"link"`
	Subcategories []MergedCategory `json:"subcategories"`
	HasMeta       bool             `json:"hasMeta"`
}

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	Name        string   `json:"name" binding:"required"`
	Category    string   `json:"category" binding:"required"`
	Subcategory *string  `json:"subcategory,omitempty"`
	ImageURL    string   `json:"image_url"`
	Price       *float64 `json:"price,omitempty"`
	Size        *string  `json:"size,omitempty"`
}

// Validate rejects records missing required fields at the boundary.
func (r *CreateProductRequest) Validate() *Error {
	if strings.TrimSpace(r.Name) == "" {
		return &Error{Code: "VALIDATION_ERROR", Message: "Product name is required", Field: "name"}
	}
	if strings.TrimSpace(r.Category) == "" {
		return &Error{Code: "VALIDATION_ERROR", Message: "Product category is required", Field: "category"}
	}
	return nil
}

// UpdateProductRequest represents a request to update a product.
// Nil fields are left unchanged.
type UpdateProductRequest struct {
	Name        *string  `json:"name,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Subcategory *string  `json:"subcategory,omitempty"`
	ImageURL    *string  `json:"image_url,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Size        *string  `json:"size,omitempty"`
}

// UpsertCategoryMetaRequest upserts presentation metadata for a category
// or subcategory, keyed by (name, parent_name).
type UpsertCategoryMetaRequest struct {
	Name       string  `json:"name" binding:"required"`
	ParentName *string `json:"parent_name"`
	ImageURL   *string `json:"image_url"`
	Link       *string `json:"link"`
}

// UpdateProfileRequest updates admin-managed profile fields. A present
// but null access_expiry clears the expiry.
type UpdateProfileRequest struct {
	IsApproved   *bool      `json:"is_approved,omitempty"`
	AccessExpiry *time.Time `json:"access_expiry"`
	ClearExpiry  bool       `json:"clear_expiry,omitempty"`
}

// ProductFilters represents filters for product list queries
type ProductFilters struct {
	Category    string `form:"category"`
	Subcategory string `form:"subcategory"`
	Search      string `form:"search"`
	Page        int    `form:"page,default=1"`
	Limit       int    `form:"limit,default=50"`
}

// PaginationInfo represents pagination information
type PaginationInfo struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	HasNext     bool  `json:"hasNext"`
	HasPrevious bool  `json:"hasPrevious"`
}

// ProductResponse represents a single product response
type ProductResponse struct {
	Success bool     `json:"success"`
	Data    *Product `json:"data"`
	Message *string  `json:"message,omitempty"`
}

// ProductListResponse represents a list of products response
type ProductListResponse struct {
	Success    bool            `json:"success"`
	Data       []Product       `json:"data"`
	Pagination *PaginationInfo `json:"pagination"`
}

// CategoryTreeResponse represents the merged category tree response
type CategoryTreeResponse struct {
	Success bool             `json:"success"`
	Data    []MergedCategory `json:"data"`
	Cached  bool             `json:"cached"`
}

// CategoryMetaResponse represents a single category metadata response
type CategoryMetaResponse struct {
	Success bool          `json:"success"`
	Data    *CategoryMeta `json:"data"`
}

// CategoryMetaListResponse represents a list of category metadata rows
type CategoryMetaListResponse struct {
	Success bool           `json:"success"`
	Data    []CategoryMeta `json:"data"`
}

// ProfileListResponse represents a list of profiles response
type ProfileListResponse struct {
	Success bool      `json:"success"`
	Data    []Profile `json:"data"`
}

// ProfileResponse represents a single profile response
type ProfileResponse struct {
	Success bool     `json:"success"`
	Data    *Profile `json:"data"`
}

// CategoryCount is a per-label product tally for the dashboard.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// DashboardStats aggregates catalogue and user counts for the admin
// dashboard landing page.
type DashboardStats struct {
	TotalProducts    int64           `json:"total_products"`
	TotalUsers       int64           `json:"total_users"`
	PendingUsers     int64           `json:"pending_users"`
	CategoryCounts   []CategoryCount `json:"category_counts"`
	SubcategoryCount []CategoryCount `json:"subcategory_counts"`
}

// StatsResponse represents the dashboard stats response
type StatsResponse struct {
	Success bool            `json:"success"`
	Data    *DashboardStats `json:"data"`
}

// UploadResponse is returned after a successful image upload.
type UploadResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool  `json:"success"`
	Error   Error `json:"error"`
}

// Error represents error details
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}
