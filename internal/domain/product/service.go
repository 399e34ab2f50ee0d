// internal/domain/product/service.go
package product

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/electrostore/ecommerce-backend/internal/pkg/apperrors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service handles product business logic
type Service struct {
	db *gorm.DB
}

// NewService creates a new product service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ProductListRequest represents product list query parameters
type ProductListRequest struct {
	Page       int    `form:"page,default=1"`
	Limit      int    `form:"limit,default=20"`
	CategoryID uint   `form:"category_id"`
	Search     string `form:"search"`
	SortBy     string `form:"sort_by,default=created_at"`
	SortOrder  string `form:"sort_order,default=desc"`
	OnSale     *bool  `form:"on_sale"`
	IsFeatured *bool  `form:"is_featured"`
	// IncludeInactive is only honored for admins
	IncludeInactive bool `form:"include_inactive"`
}

// ProductCreateRequest represents product creation data
type ProductCreateRequest struct {
	Name           string  `json:"name" binding:"required"`
	Brand          string  `json:"brand"`
	Description    string  `json:"description"`
	ImageURL       string  `json:"image_url"`
	CategoryID     *uint   `json:"category_id"`
	PurchasePrice  int64   `json:"purchase_price" binding:"required,min=1"`
	MarginPercent  float64 `json:"margin_percent" binding:"min=0"`
	IsOnSale       bool    `json:"is_on_sale"`
	SalePercentage float64 `json:"sale_percentage" binding:"min=0,max=100"`
	Stock          int     `json:"stock" binding:"min=0"`
	IsActive       *bool   `json:"is_active"`
	IsFeatured     bool    `json:"is_featured"`
}

// ProductUpdateRequest represents product update data
type ProductUpdateRequest struct {
	Name           *string  `json:"name"`
	Brand          *string  `json:"brand"`
	Description    *string  `json:"description"`
	ImageURL       *string  `json:"image_url"`
	CategoryID     *uint    `json:"category_id"`
	PurchasePrice  *int64   `json:"purchase_price" binding:"omitempty,min=1"`
	MarginPercent  *float64 `json:"margin_percent" binding:"omitempty,min=0"`
	IsOnSale       *bool    `json:"is_on_sale"`
	SalePercentage *float64 `json:"sale_percentage" binding:"omitempty,min=0,max=100"`
	Stock          *int     `json:"stock" binding:"omitempty,min=0"`
	IsActive       *bool    `json:"is_active"`
	IsFeatured     *bool    `json:"is_featured"`
}

// ProductResponse represents product response with pagination
type ProductResponse struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// NewPagination computes pagination info
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// NormalizePage clamps page and limit to sane bounds
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// GetProducts retrieves products with filtering and pagination
func (s *Service) GetProducts(ctx context.Context, req *ProductListRequest) (*ProductResponse, error) {
	var products []Product
	var total int64

	req.Page, req.Limit = NormalizePage(req.Page, req.Limit)

	query := s.db.WithContext(ctx).Model(&Product{}).Preload("Category")

	if !req.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}

	if req.CategoryID > 0 {
		query = query.Where("category_id = ?", req.CategoryID)
	}

	if req.Search != "" {
		search := "%" + strings.ToLower(req.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(brand) LIKE ? OR LOWER(description) LIKE ?", search, search, search)
	}

	if req.OnSale != nil {
		query = query.Where("is_on_sale = ?", *req.OnSale)
	}

	if req.IsFeatured != nil {
		query = query.Where("is_featured = ?", *req.IsFeatured)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	offset := (req.Page - 1) * req.Limit
	if err := query.Order(buildOrderClause(req.SortBy, req.SortOrder)).
		Offset(offset).Limit(req.Limit).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}

	return &ProductResponse{
		Products:   products,
		Pagination: NewPagination(req.Page, req.Limit, total),
	}, nil
}

// GetProduct retrieves a single product by ID
func (s *Service) GetProduct(ctx context.Context, id uint) (*Product, error) {
	var product Product
	err := s.db.WithContext(ctx).Preload("Category").Where("id = ?", id).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("product not found")
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}

	return &product, nil
}

// CreateProduct creates a new product with derived prices
func (s *Service) CreateProduct(ctx context.Context, req *ProductCreateRequest) (*Product, error) {
	if req.CategoryID != nil {
		if err := s.ensureCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
	}

	product := Product{
		Name:           strings.TrimSpace(req.Name),
		Slug:           generateSlug(req.Name),
		Brand:          req.Brand,
		Description:    req.Description,
		ImageURL:       req.ImageURL,
		CategoryID:     req.CategoryID,
		PurchasePrice:  req.PurchasePrice,
		MarginPercent:  req.MarginPercent,
		IsOnSale:       req.IsOnSale,
		SalePercentage: req.SalePercentage,
		Stock:          req.Stock,
		IsActive:       true,
		IsFeatured:     req.IsFeatured,
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	RecomputePrices(&product)

	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return s.GetProduct(ctx, product.ID)
}

// UpdateProduct updates an existing product and re-derives its prices
func (s *Service) UpdateProduct(ctx context.Context, id uint, req *ProductUpdateRequest) (*Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
		product.Slug = generateSlug(*req.Name)
	}
	if req.Brand != nil {
		product.Brand = *req.Brand
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.ImageURL != nil {
		product.ImageURL = *req.ImageURL
	}
	if req.CategoryID != nil {
		if err := s.ensureCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = req.CategoryID
	}
	if req.PurchasePrice != nil {
		product.PurchasePrice = *req.PurchasePrice
	}
	if req.MarginPercent != nil {
		product.MarginPercent = *req.MarginPercent
	}
	if req.IsOnSale != nil {
		product.IsOnSale = *req.IsOnSale
	}
	if req.SalePercentage != nil {
		product.SalePercentage = *req.SalePercentage
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if req.IsFeatured != nil {
		product.IsFeatured = *req.IsFeatured
	}

	RecomputePrices(product)

	updates := map[string]interface{}{
		"name":            product.Name,
		"slug":            product.Slug,
		"brand":           product.Brand,
		"description":     product.Description,
		"image_url":       product.ImageURL,
		"category_id":     product.CategoryID,
		"purchase_price":  product.PurchasePrice,
		"margin_percent":  product.MarginPercent,
		"list_price":      product.ListPrice,
		"is_on_sale":      product.IsOnSale,
		"sale_percentage": product.SalePercentage,
		"sale_price":      product.SalePrice,
		"stock":           product.Stock,
		"is_active":       product.IsActive,
		"is_featured":     product.IsFeatured,
	}

	if err := s.db.WithContext(ctx).Model(&Product{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return s.GetProduct(ctx, id)
}

// DeleteProduct soft deletes a product
func (s *Service) DeleteProduct(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Product{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("product not found")
	}
	return nil
}

func (s *Service) ensureCategory(ctx context.Context, categoryID uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Category{}).Where("id = ?", categoryID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check category: %w", err)
	}
	if count == 0 {
		return apperrors.NotFound("category not found")
	}
	return nil
}

// buildOrderClause builds ORDER BY clause for sorting
func buildOrderClause(sortBy, sortOrder string) string {
	validSortFields := map[string]bool{
		"name":       true,
		"list_price": true,
		"created_at": true,
		"stock":      true,
	}

	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	return fmt.Sprintf("%s %s, id %s", sortBy, sortOrder, sortOrder)
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// generateSlug generates URL-friendly slug from name with a short random suffix
func generateSlug(name string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "item"
	}
	return slug + "-" + uuid.NewString()[:8]
}
