// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/electrostore/ecommerce-backend/internal/domain/cart"
	"github.com/electrostore/ecommerce-backend/internal/domain/product"
	"github.com/electrostore/ecommerce-backend/internal/domain/user"
	"github.com/electrostore/ecommerce-backend/internal/pkg/apperrors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const maxCodeAttempts = 4

// AddressLookup resolves an address owned by a user
type AddressLookup interface {
	GetAddress(ctx context.Context, userID, addressID uint) (*user.Address, error)
}

// Service handles order business logic
type Service struct {
	db        *gorm.DB
	addresses AddressLookup
	prefix    string
	log       logrus.FieldLogger
	newID     func() string
	now       func() time.Time
}

// NewService creates a new order service
func NewService(db *gorm.DB, addresses AddressLookup, codePrefix string, log logrus.FieldLogger) *Service {
	return &Service{
		db:        db,
		addresses: addresses,
		prefix:    codePrefix,
		log:       log.WithField("service", "order"),
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// CreateOrderRequest represents order creation data
type CreateOrderRequest struct {
	DeliveryMode DeliveryMode `json:"delivery_mode" binding:"required,oneof=pickup delivery"`
	AddressID    *uint        `json:"address_id"`
}

// OrderListRequest represents order list query parameters
type OrderListRequest struct {
	Page   int    `form:"page,default=1"`
	Limit  int    `form:"limit,default=20"`
	State  State  `form:"state"`
	UserID uint   `form:"user_id"`
	Code   string `form:"code"`
}

// OrderResponse represents order response with pagination
type OrderResponse struct {
	Orders     []Order            `json:"orders"`
	Pagination product.Pagination `json:"pagination"`
}

// CreateOrderFromCart snapshots the user's cart into a new pending_payment order.
// The cart is left untouched; it is cleared when payment is confirmed.
func (s *Service) CreateOrderFromCart(ctx context.Context, userID uint, req *CreateOrderRequest) (*Order, error) {
	var addressID *uint

	switch req.DeliveryMode {
	case DeliveryHome:
		if req.AddressID == nil {
			return nil, apperrors.Validation("an address is required for delivery")
		}
		address, err := s.addresses.GetAddress(ctx, userID, *req.AddressID)
		if err != nil {
			return nil, err
		}
		if !address.InDeliveryZone {
			return nil, apperrors.Policy("address is outside the delivery zone")
		}
		addressID = &address.ID
	case DeliveryPickup:
		if req.AddressID != nil {
			address, err := s.addresses.GetAddress(ctx, userID, *req.AddressID)
			if err != nil {
				return nil, err
			}
			addressID = &address.ID
		}
	default:
		return nil, apperrors.Validation("delivery mode must be pickup or delivery")
	}

	userCart, err := cart.Load(s.db.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}

	if len(userCart.Items) == 0 {
		return nil, apperrors.Validation("cart is empty")
	}

	order := Order{
		UserID:       userID,
		AddressID:    addressID,
		DeliveryMode: req.DeliveryMode,
		State:        StatePendingPayment,
	}

	for _, line := range userCart.Items {
		if line.Product == nil || !line.Product.IsActive {
			return nil, apperrors.Validation("product %d is no longer available", line.ProductID)
		}
		unitPrice := line.Product.EffectivePrice()
		order.Items = append(order.Items, OrderItem{
			ProductID:   line.ProductID,
			ProductName: line.Product.Name,
			Quantity:    line.Quantity,
			UnitPrice:   unitPrice,
			UnitCost:    line.Product.PurchasePrice,
			LineTotal:   unitPrice * int64(line.Quantity),
		})
	}
	order.Total = order.CalculateTotal()

	if err := s.insertWithUniqueCode(ctx, &order); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"order_id": order.ID,
		"code":     order.Code,
		"user_id":  userID,
		"total":    order.Total,
	}).Info("order created")

	return &order, nil
}

// insertWithUniqueCode persists the order, lengthening the code suffix taken
// from the same id whenever the code collides with an existing order.
func (s *Service) insertWithUniqueCode(ctx context.Context, order *Order) error {
	order.ID = s.newID()

	var lastErr error
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		order.Code = CodeFor(s.prefix, order.ID, defaultCodeSuffixLen+2*attempt)
		for i := range order.Items {
			order.Items[i].ID = 0
			order.Items[i].OrderID = order.ID
		}

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return tx.Create(order).Error
		})
		if err == nil {
			return nil
		}
		if !isDuplicateKey(err) {
			return fmt.Errorf("failed to create order: %w", err)
		}

		s.log.WithField("code", order.Code).Warn("order code collision, retrying with longer suffix")
		lastErr = err
	}

	return fmt.Errorf("failed to allocate a unique order code: %w", lastErr)
}

// GetOrder retrieves a single order by ID
func (s *Service) GetOrder(ctx context.Context, id string) (*Order, error) {
	var order Order
	err := s.db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("order not found")
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}

	return &order, nil
}

// GetForUser retrieves an order owned by the user
func (s *Service) GetForUser(ctx context.Context, id string, userID uint) (*Order, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperrors.NotFound("order not found")
	}
	return order, nil
}

// GetOrders retrieves orders with filtering and pagination
func (s *Service) GetOrders(ctx context.Context, req *OrderListRequest) (*OrderResponse, error) {
	var orders []Order
	var total int64

	req.Page, req.Limit = product.NormalizePage(req.Page, req.Limit)

	query := s.db.WithContext(ctx).Model(&Order{})

	if req.State != "" {
		query = query.Where("state = ?", req.State)
	}

	if req.UserID > 0 {
		query = query.Where("user_id = ?", req.UserID)
	}

	if req.Code != "" {
		query = query.Where("code = ?", strings.ToUpper(req.Code))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	offset := (req.Page - 1) * req.Limit
	if err := query.Preload("Items").Order("created_at DESC, id DESC").
		Offset(offset).Limit(req.Limit).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	return &OrderResponse{
		Orders:     orders,
		Pagination: product.NewPagination(req.Page, req.Limit, total),
	}, nil
}

// GetUserOrders retrieves orders for a specific user
func (s *Service) GetUserOrders(ctx context.Context, userID uint, page, limit int) (*OrderResponse, error) {
	return s.GetOrders(ctx, &OrderListRequest{Page: page, Limit: limit, UserID: userID})
}

// SetPreferenceID stores the payment intent id on the order
func (s *Service) SetPreferenceID(ctx context.Context, orderID, preferenceID string) error {
	result := s.db.WithContext(ctx).Model(&Order{}).
		Where("id = ?", orderID).
		Update("preference_id", preferenceID)
	if result.Error != nil {
		return fmt.Errorf("failed to store preference id: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("order not found")
	}
	return nil
}

// MarkPaid moves a pending_payment order to paid, stamping payment id, paid time and
// margin, and clears the owner's cart in the same transaction. It reports whether the
// transition was applied; an order already out of pending_payment is left untouched.
func (s *Service) MarkPaid(ctx context.Context, orderID, paymentID string, paidAt time.Time) (bool, error) {
	applied := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order Order
		if err := tx.Preload("Items").Where("id = ?", orderID).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("order not found")
			}
			return fmt.Errorf("failed to load order: %w", err)
		}

		result := tx.Model(&Order{}).
			Where("id = ? AND state = ?", orderID, StatePendingPayment).
			Updates(map[string]interface{}{
				"state":        StatePaid,
				"payment_id":   paymentID,
				"paid_at":      paidAt.UTC(),
				"total_margin": order.CalculateMargin(),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to mark order paid: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil
		}

		applied = true
		return cart.ClearTx(tx, order.UserID)
	})
	if err != nil {
		return false, err
	}

	return applied, nil
}

// MarkPaymentPending refreshes the payment id of an order still awaiting payment
func (s *Service) MarkPaymentPending(ctx context.Context, orderID, paymentID string) (bool, error) {
	return s.conditionalUpdate(ctx, orderID, StatePendingPayment, map[string]interface{}{
		"payment_id": paymentID,
	})
}

// MarkPaymentRejected moves a pending_payment order to payment_rejected
func (s *Service) MarkPaymentRejected(ctx context.Context, orderID, paymentID string) (bool, error) {
	return s.conditionalUpdate(ctx, orderID, StatePendingPayment, map[string]interface{}{
		"state":      StatePaymentRejected,
		"payment_id": paymentID,
	})
}

// adminTransitions lists the administrative state changes
var adminTransitions = map[State][]State{
	StatePendingPayment: {StatePending, StateCancelled},
	StatePending:        {StatePendingPayment, StateCancelled},
	StatePaid:           {StateShipped},
	StateShipped:        {StateDelivered},
}

// CanTransition reports whether an admin may move an order from one state to another
func CanTransition(from, to State) bool {
	for _, allowed := range adminTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// UpdateStatus applies an administrative state change, conditional on the current state
func (s *Service) UpdateStatus(ctx context.Context, orderID string, to State) (*Order, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !CanTransition(order.State, to) {
		return nil, apperrors.Policy("invalid status transition from %s to %s", order.State, to)
	}

	updates := map[string]interface{}{"state": to}

	now := s.now().UTC()
	switch to {
	case StateShipped:
		updates["shipped_at"] = now
	case StateDelivered:
		updates["delivered_at"] = now
	case StateCancelled:
		updates["cancelled_at"] = now
	}

	applied, err := s.conditionalUpdate(ctx, orderID, order.State, updates)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, apperrors.Conflict("order state changed, reload and retry")
	}

	s.log.WithFields(logrus.Fields{
		"order_id": orderID,
		"from":     order.State,
		"to":       to,
	}).Info("order status updated")

	return s.GetOrder(ctx, orderID)
}

func (s *Service) conditionalUpdate(ctx context.Context, orderID string, expected State, updates map[string]interface{}) (bool, error) {
	result := s.db.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND state = ?", orderID, expected).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update order: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
