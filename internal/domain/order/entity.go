// internal/domain/order/entity.go
package order

import (
	"time"
)

// State represents the order lifecycle state
type State string

const (
	StatePendingPayment  State = "pending_payment"
	StatePaid            State = "paid"
	StatePaymentRejected State = "payment_rejected"
	StatePending         State = "pending"
	StateShipped         State = "shipped"
	StateDelivered       State = "delivered"
	StateCancelled       State = "cancelled"
)

// DeliveryMode is how the customer receives the order
type DeliveryMode string

const (
	DeliveryPickup DeliveryMode = "pickup"
	DeliveryHome   DeliveryMode = "delivery"
)

// Order represents the order entity. Amounts are in cents.
type Order struct {
	ID           string       `gorm:"primaryKey;size:36" json:"id"`
	Code         string       `gorm:"uniqueIndex;not null;size:20" json:"code"`
	UserID       uint         `gorm:"not null;index" json:"user_id"`
	AddressID    *uint        `gorm:"index" json:"address_id"`
	DeliveryMode DeliveryMode `gorm:"size:20;not null" json:"delivery_mode"`
	State        State        `gorm:"size:30;not null;index" json:"state"`

	Total       int64 `gorm:"not null" json:"total"`
	TotalMargin int64 `gorm:"not null;default:0" json:"total_margin"`

	PreferenceID *string `gorm:"size:100" json:"preference_id"`
	PaymentID    *string `gorm:"size:100;index" json:"payment_id"`

	PaidAt      *time.Time `gorm:"index" json:"paid_at"`
	ShippedAt   *time.Time `json:"shipped_at"`
	DeliveredAt *time.Time `json:"delivered_at"`
	CancelledAt *time.Time `json:"cancelled_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
}

// OrderItem is the price snapshot of one cart line taken at order creation
type OrderItem struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	OrderID     string `gorm:"not null;size:36;index" json:"order_id"`
	ProductID   uint   `gorm:"not null;index" json:"product_id"`
	ProductName string `gorm:"not null;size:255" json:"product_name"`
	Quantity    int    `gorm:"not null" json:"quantity"`
	UnitPrice   int64  `gorm:"not null" json:"unit_price"`
	// UnitCost is the product purchase price at creation, used for margin
	UnitCost  int64     `gorm:"not null" json:"-"`
	LineTotal int64     `gorm:"not null" json:"line_total"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides
func (Order) TableName() string     { return "orders" }
func (OrderItem) TableName() string { return "order_items" }

// CalculateTotal returns Σ quantity × unitPrice over the items
func (o *Order) CalculateTotal() int64 {
	var total int64
	for _, item := range o.Items {
		total += int64(item.Quantity) * item.UnitPrice
	}
	return total
}

// CalculateMargin returns Σ quantity × (unitPrice − unitCost) over the items
func (o *Order) CalculateMargin() int64 {
	var margin int64
	for _, item := range o.Items {
		margin += int64(item.Quantity) * (item.UnitPrice - item.UnitCost)
	}
	return margin
}

// IsPaid reports whether payment was confirmed for the order
func (o *Order) IsPaid() bool {
	switch o.State {
	case StatePaid, StateShipped, StateDelivered:
		return true
	}
	return false
}
