// internal/domain/payment/intent.go
package payment

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"

	"github.com/electrostore/ecommerce-backend/internal/config"
	"github.com/electrostore/ecommerce-backend/internal/domain/order"
	"github.com/electrostore/ecommerce-backend/internal/pkg/apperrors"
	"github.com/sirupsen/logrus"
)

const currencyID = "PEN"

// OrderStore is the slice of the order service the intent flow needs
type OrderStore interface {
	GetForUser(ctx context.Context, orderID string, userID uint) (*order.Order, error)
	SetPreferenceID(ctx context.Context, orderID, preferenceID string) error
}

// LineItem is a caller-supplied checkout line. UnitPrice is in cents.
type LineItem struct {
	ID        string `json:"id"`
	Title     string `json:"title" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
	UnitPrice int64  `json:"unit_price" binding:"required,min=1"`
}

// CallbackURLs override the default provider redirect targets
type CallbackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

// CreateIntentRequest represents a payment intent request
type CreateIntentRequest struct {
	OrderID      string        `json:"order_id" binding:"required"`
	PayerEmail   string        `json:"payer_email"`
	LineItems    []LineItem    `json:"line_items" binding:"omitempty,dive"`
	CallbackURLs *CallbackURLs `json:"callback_urls"`
}

// IntentResponse is returned to the client to start checkout
type IntentResponse struct {
	IntentID    string `json:"intent_id"`
	RedirectURL string `json:"redirect_url"`
}

// IntentService creates provider checkout preferences for orders
type IntentService struct {
	orders     OrderStore
	provider   Provider
	checkout   config.CheckoutConfig
	descriptor string
	log        logrus.FieldLogger
}

// NewIntentService creates a new payment intent service
func NewIntentService(orders OrderStore, provider Provider, cfg *config.Config, log logrus.FieldLogger) *IntentService {
	return &IntentService{
		orders:     orders,
		provider:   provider,
		checkout:   cfg.Checkout,
		descriptor: cfg.MercadoPago.StatementDescriptor,
		log:        log.WithField("service", "payment_intent"),
	}
}

// CreateIntent creates a checkout preference for a pending_payment order owned by the user
func (s *IntentService) CreateIntent(ctx context.Context, userID uint, req *CreateIntentRequest) (*IntentResponse, error) {
	email := strings.TrimSpace(req.PayerEmail)
	if email == "" {
		return nil, apperrors.Validation("payer email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperrors.Validation("payer email is invalid")
	}
	if strings.TrimSpace(req.OrderID) == "" {
		return nil, apperrors.Validation("order id is required")
	}

	ord, err := s.orders.GetForUser(ctx, req.OrderID, userID)
	if err != nil {
		return nil, err
	}

	if ord.State != order.StatePendingPayment {
		return nil, apperrors.Policy("order %s is not awaiting payment", ord.Code)
	}
	if ord.Total <= 0 {
		return nil, apperrors.Validation("order amount must be greater than zero")
	}

	items, err := s.buildItems(ord, req.LineItems)
	if err != nil {
		return nil, err
	}

	pref, err := s.provider.CreatePreference(ctx, &PreferenceRequest{
		Items:               items,
		Payer:               Payer{Email: email},
		BackURLs:            s.backURLs(req.CallbackURLs),
		AutoReturn:          "approved",
		NotificationURL:     s.checkout.BackendURL + "/api/v1/payments/webhook",
		ExternalReference:   ord.ID,
		StatementDescriptor: s.descriptor,
		Metadata: map[string]string{
			"order_id": ord.ID,
			"user_id":  strconv.FormatUint(uint64(ord.UserID), 10),
		},
	})
	if err != nil {
		s.log.WithError(err).WithField("order_id", ord.ID).Error("failed to create payment preference")
		return nil, apperrors.Upstream(err, "%s", upstreamDetail(err))
	}

	if pref.ID == "" || pref.RedirectURL() == "" {
		s.log.WithField("order_id", ord.ID).Error("payment preference response missing id or checkout url")
		return nil, apperrors.Upstream(nil, "payment provider returned an incomplete response")
	}

	if err := s.orders.SetPreferenceID(ctx, ord.ID, pref.ID); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"order_id":      ord.ID,
			"preference_id": pref.ID,
		}).Warn("failed to store preference id on order")
	}

	s.log.WithFields(logrus.Fields{
		"order_id":      ord.ID,
		"preference_id": pref.ID,
	}).Info("payment intent created")

	return &IntentResponse{IntentID: pref.ID, RedirectURL: pref.RedirectURL()}, nil
}

// buildItems maps supplied lines one to one, or charges the order total as a single line.
// Supplied lines must add up to the order total.
func (s *IntentService) buildItems(ord *order.Order, lines []LineItem) ([]PreferenceItem, error) {
	if len(lines) == 0 {
		return []PreferenceItem{{
			ID:         ord.ID,
			Title:      "Order " + ord.Code,
			Quantity:   1,
			UnitPrice:  FromCents(ord.Total),
			CurrencyID: currencyID,
		}}, nil
	}

	items := make([]PreferenceItem, 0, len(lines))
	var sum int64
	for _, line := range lines {
		if line.Quantity < 1 || line.UnitPrice <= 0 {
			return nil, apperrors.Validation("line items need a positive quantity and unit price")
		}
		sum += int64(line.Quantity) * line.UnitPrice
		items = append(items, PreferenceItem{
			ID:         line.ID,
			Title:      line.Title,
			Quantity:   line.Quantity,
			UnitPrice:  FromCents(line.UnitPrice),
			CurrencyID: currencyID,
		})
	}

	if sum != ord.Total {
		return nil, apperrors.Validation("line items total %d does not match order total %d", sum, ord.Total)
	}

	return items, nil
}

func (s *IntentService) backURLs(override *CallbackURLs) BackURLs {
	base := s.checkout.BackendURL + "/api/v1/payments"
	urls := BackURLs{
		Success: base + "/success",
		Failure: base + "/failure",
		Pending: base + "/pending",
	}
	if override == nil {
		return urls
	}
	if override.Success != "" {
		urls.Success = override.Success
	}
	if override.Failure != "" {
		urls.Failure = override.Failure
	}
	if override.Pending != "" {
		urls.Pending = override.Pending
	}
	return urls
}

func upstreamDetail(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("payment provider error: %s", apiErr.Detail())
	}
	return "payment provider unavailable"
}
