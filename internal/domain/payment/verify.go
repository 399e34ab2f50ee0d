// internal/domain/payment/verify.go
package payment

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/electrostore/ecommerce-backend/internal/pkg/apperrors"
)

// PaymentStatus is the live provider view of one payment
type PaymentStatus struct {
	ID           string     `json:"id"`
	Status       string     `json:"status"`
	StatusDetail string     `json:"status_detail"`
	Amount       int64      `json:"amount"`
	OrderID      string     `json:"order_id,omitempty"`
	ApprovedAt   *time.Time `json:"approved_at"`
}

// VerifyPayment looks a payment up at the provider. Payments tagged with another
// user's id are reported as missing unless the caller is an admin.
func (s *IntentService) VerifyPayment(ctx context.Context, paymentID string, userID uint, isAdmin bool) (*PaymentStatus, error) {
	if paymentID == "" {
		return nil, apperrors.Validation("payment id is required")
	}
	if !ValidExternalID(paymentID) {
		return nil, apperrors.Validation("invalid payment id")
	}

	p, err := s.provider.GetPayment(ctx, paymentID)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			return nil, apperrors.NotFound("payment not found")
		}
		return nil, apperrors.Upstream(err, "payment provider unavailable")
	}

	if owner := p.MetadataString("user_id"); owner != "" && !isAdmin && owner != strconv.FormatUint(uint64(userID), 10) {
		return nil, apperrors.NotFound("payment not found")
	}

	orderID := p.MetadataString("order_id")
	if orderID == "" {
		orderID = p.ExternalReference
	}

	return &PaymentStatus{
		ID:           string(p.ID),
		Status:       p.Status,
		StatusDetail: p.StatusDetail,
		Amount:       p.AmountCents(),
		OrderID:      orderID,
		ApprovedAt:   p.DateApproved,
	}, nil
}
