// internal/domain/payment/entity.go
package payment

import "time"

// Provider payment statuses the reconciler acts on
const (
	StatusApproved   = "approved"
	StatusPending    = "pending"
	StatusInProcess  = "in_process"
	StatusAuthorized = "authorized"
	StatusRejected   = "rejected"
	StatusCancelled  = "cancelled"
)

// Notification topics
const (
	TopicPayment       = "payment"
	TopicMerchantOrder = "merchant_order"
)

// PaymentRecord is the local audit copy of a provider payment, one row per
// external payment id. Amount is in cents.
type PaymentRecord struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	ExternalPaymentID string     `gorm:"uniqueIndex;not null;size:64" json:"external_payment_id"`
	OrderID           string     `gorm:"size:36;index" json:"order_id"`
	UserID            *uint      `gorm:"index" json:"user_id"`
	Status            string     `gorm:"size:30;not null" json:"status"`
	StatusDetail      string     `gorm:"size:100" json:"status_detail"`
	Amount            int64      `gorm:"not null" json:"amount"`
	Method            string     `gorm:"size:50" json:"method"`
	PaymentType       string     `gorm:"size:50" json:"payment_type"`
	PayerEmail        string     `gorm:"size:255" json:"payer_email"`
	CreatedAtProvider *time.Time `json:"created_at_provider"`
	ApprovedAt        *time.Time `json:"approved_at"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// TableName overrides
func (PaymentRecord) TableName() string { return "payment_records" }
