// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/electrostore/ecommerce-backend/internal/domain/product"
	"github.com/electrostore/ecommerce-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service handles cart business logic
type Service struct {
	db *gorm.DB
}

// NewService creates a new cart service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CartItemResponse represents a cart item with product details
type CartItemResponse struct {
	ProductID uint             `json:"product_id"`
	Quantity  int              `json:"quantity"`
	UnitPrice int64            `json:"unit_price"`
	LineTotal int64            `json:"line_total"`
	Product   *product.Product `json:"product,omitempty"`
}

// CartResponse represents a shopping cart with items and summary
type CartResponse struct {
	ID     uint               `json:"id"`
	UserID uint               `json:"user_id"`
	Items  []CartItemResponse `json:"items"`
	Totals CartTotals         `json:"totals"`
}

// AddToCartRequest represents add to cart request
type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

// UpdateCartItemRequest represents update cart item request
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"min=0"`
}

// CreateForUser creates the empty cart of a new user inside the caller's transaction
func CreateForUser(tx *gorm.DB, userID uint) error {
	cart := Cart{UserID: userID}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&cart).Error; err != nil {
		return fmt.Errorf("failed to create cart: %w", err)
	}
	return nil
}

// Load returns the user's cart with its lines and products, creating an empty one if absent.
// It runs on whatever handle it is given, so it can be used inside a transaction.
func Load(db *gorm.DB, userID uint) (*Cart, error) {
	if err := CreateForUser(db, userID); err != nil {
		return nil, err
	}

	var cart Cart
	err := db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).Preload("Items.Product").Where("user_id = ?", userID).First(&cart).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	return &cart, nil
}

// ClearTx removes every line of the user's cart inside the caller's transaction
func ClearTx(tx *gorm.DB, userID uint) error {
	err := tx.Where("cart_id IN (?)", tx.Model(&Cart{}).Select("id").Where("user_id = ?", userID)).
		Delete(&CartItem{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// GetCart retrieves the user's cart priced at current effective prices
func (s *Service) GetCart(ctx context.Context, userID uint) (*CartResponse, error) {
	cart, err := Load(s.db.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}

	items := make([]CartItemResponse, 0, len(cart.Items))
	for _, item := range cart.Items {
		resp := CartItemResponse{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Product:   item.Product,
		}
		if item.Product != nil {
			resp.UnitPrice = item.Product.EffectivePrice()
			resp.LineTotal = resp.UnitPrice * int64(item.Quantity)
		}
		items = append(items, resp)
	}

	return &CartResponse{
		ID:     cart.ID,
		UserID: cart.UserID,
		Items:  items,
		Totals: calculateTotals(items),
	}, nil
}

// AddToCart adds quantity of a product to the cart, merging with an existing line
func (s *Service) AddToCart(ctx context.Context, userID uint, req *AddToCartRequest) (*CartResponse, error) {
	if req.Quantity < 1 {
		return nil, apperrors.Validation("quantity must be at least 1")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prod, err := activeProduct(tx, req.ProductID)
		if err != nil {
			return err
		}

		cart, err := Load(tx, userID)
		if err != nil {
			return err
		}

		current := 0
		for _, item := range cart.Items {
			if item.ProductID == req.ProductID {
				current = item.Quantity
			}
		}

		if current+req.Quantity > prod.Stock {
			return apperrors.Validation("insufficient stock, available: %d", prod.Stock)
		}

		item := CartItem{CartID: cart.ID, ProductID: req.ProductID, Quantity: req.Quantity}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Set{
				{Column: clause.Column{Name: "quantity"}, Value: gorm.Expr("cart_items.quantity + excluded.quantity")},
				{Column: clause.Column{Name: "updated_at"}, Value: gorm.Expr("excluded.updated_at")},
			},
		}).Create(&item).Error
	})
	if err != nil {
		return nil, err
	}

	return s.GetCart(ctx, userID)
}

// UpdateCartItem sets the quantity of a line. Zero removes the line.
func (s *Service) UpdateCartItem(ctx context.Context, userID, productID uint, req *UpdateCartItemRequest) (*CartResponse, error) {
	if req.Quantity < 0 {
		return nil, apperrors.Validation("quantity cannot be negative")
	}
	if req.Quantity == 0 {
		return s.RemoveFromCart(ctx, userID, productID)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prod, err := activeProduct(tx, productID)
		if err != nil {
			return err
		}
		if req.Quantity > prod.Stock {
			return apperrors.Validation("insufficient stock, available: %d", prod.Stock)
		}

		cart, err := Load(tx, userID)
		if err != nil {
			return err
		}

		result := tx.Model(&CartItem{}).
			Where("cart_id = ? AND product_id = ?", cart.ID, productID).
			Update("quantity", req.Quantity)
		if result.Error != nil {
			return fmt.Errorf("failed to update cart item: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.NotFound("product is not in the cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetCart(ctx, userID)
}

// RemoveFromCart removes a product line from the cart
func (s *Service) RemoveFromCart(ctx context.Context, userID, productID uint) (*CartResponse, error) {
	db := s.db.WithContext(ctx)
	result := db.Where("product_id = ? AND cart_id IN (?)", productID,
		db.Model(&Cart{}).Select("id").Where("user_id = ?", userID)).
		Delete(&CartItem{})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to remove cart item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.NotFound("product is not in the cart")
	}

	return s.GetCart(ctx, userID)
}

// ClearCart removes all items from the cart
func (s *Service) ClearCart(ctx context.Context, userID uint) error {
	return ClearTx(s.db.WithContext(ctx), userID)
}

func activeProduct(db *gorm.DB, productID uint) (*product.Product, error) {
	var prod product.Product
	err := db.Where("id = ? AND is_active = ?", productID, true).First(&prod).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("product not found or inactive")
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return &prod, nil
}

func calculateTotals(items []CartItemResponse) CartTotals {
	totals := CartTotals{ItemCount: len(items)}
	for _, item := range items {
		totals.TotalQuantity += item.Quantity
		totals.SubTotal += item.LineTotal
	}
	return totals
}
