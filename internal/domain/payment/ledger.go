// internal/domain/payment/ledger.go
package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/electrostore/ecommerce-backend/internal/domain/product"
	"github.com/electrostore/ecommerce-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger stores payment records keyed by external payment id
type Ledger struct {
	db *gorm.DB
}

// NewLedger creates a new payment ledger
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// lateInFlight is true when a stored approved payment is reported as still in flight
const lateInFlight = "payment_records.status = 'approved' AND excluded.status IN ('pending', 'in_process', 'authorized')"

// Upsert inserts the record, or merges status, status detail and approval time
// into the existing row with the same external payment id. An empty status detail
// or a missing approval time keeps the stored value, and an approved record is
// never moved back to an in-flight status.
func (l *Ledger) Upsert(ctx context.Context, rec *PaymentRecord) error {
	if rec.ExternalPaymentID == "" {
		return apperrors.Validation("external payment id is required")
	}

	rec.UpdatedAt = time.Now().UTC()

	err := l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "external_payment_id"}},
		DoUpdates: clause.Set{
			{Column: clause.Column{Name: "status"}, Value: gorm.Expr("CASE WHEN " + lateInFlight + " THEN payment_records.status ELSE excluded.status END")},
			{Column: clause.Column{Name: "status_detail"}, Value: gorm.Expr("CASE WHEN " + lateInFlight + " THEN payment_records.status_detail ELSE COALESCE(NULLIF(excluded.status_detail, ''), payment_records.status_detail) END")},
			{Column: clause.Column{Name: "approved_at"}, Value: gorm.Expr("COALESCE(excluded.approved_at, payment_records.approved_at)")},
			{Column: clause.Column{Name: "updated_at"}, Value: gorm.Expr("excluded.updated_at")},
		},
	}).Create(rec).Error
	if err != nil {
		return fmt.Errorf("failed to upsert payment %s: %w", rec.ExternalPaymentID, err)
	}

	return nil
}

// GetByExternalID returns the record for an external payment id
func (l *Ledger) GetByExternalID(ctx context.Context, externalID string) (*PaymentRecord, error) {
	var rec PaymentRecord
	err := l.db.WithContext(ctx).Where("external_payment_id = ?", externalID).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("payment not found")
		}
		return nil, fmt.Errorf("failed to retrieve payment: %w", err)
	}
	return &rec, nil
}

// ListRequest represents ledger list query parameters
type ListRequest struct {
	Page    int    `form:"page,default=1"`
	Limit   int    `form:"limit,default=20"`
	Status  string `form:"status"`
	OrderID string `form:"order_id"`
}

// ListResponse represents ledger records with pagination
type ListResponse struct {
	Payments   []PaymentRecord    `json:"payments"`
	Pagination product.Pagination `json:"pagination"`
}

// List returns records newest first
func (l *Ledger) List(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	var records []PaymentRecord
	var total int64

	req.Page, req.Limit = product.NormalizePage(req.Page, req.Limit)

	query := l.db.WithContext(ctx).Model(&PaymentRecord{})
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.OrderID != "" {
		query = query.Where("order_id = ?", req.OrderID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count payments: %w", err)
	}

	offset := (req.Page - 1) * req.Limit
	if err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(req.Limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve payments: %w", err)
	}

	return &ListResponse{
		Payments:   records,
		Pagination: product.NewPagination(req.Page, req.Limit, total),
	}, nil
}
