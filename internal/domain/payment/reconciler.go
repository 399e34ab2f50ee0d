// internal/domain/payment/reconciler.go
package payment

import (
	"context"
	"strings"
	"time"

	"github.com/electrostore/ecommerce-backend/internal/domain/order"
	"github.com/electrostore/ecommerce-backend/internal/pkg/apperrors"
	"github.com/sirupsen/logrus"
)

// OrderTransitions is the slice of the order service the reconciler drives
type OrderTransitions interface {
	GetOrder(ctx context.Context, orderID string) (*order.Order, error)
	MarkPaid(ctx context.Context, orderID, paymentID string, paidAt time.Time) (bool, error)
	MarkPaymentPending(ctx context.Context, orderID, paymentID string) (bool, error)
	MarkPaymentRejected(ctx context.Context, orderID, paymentID string) (bool, error)
}

// PaymentLedger persists provider payments
type PaymentLedger interface {
	Upsert(ctx context.Context, rec *PaymentRecord) error
}

// Notification is an inbound provider event
type Notification struct {
	Type   string
	DataID string
}

// Outcome is what happened to one payment of a notification
type Outcome string

const (
	OutcomeApplied       Outcome = "applied"
	OutcomeNoop          Outcome = "noop"
	OutcomeUnresolved    Outcome = "unresolved"
	OutcomeFetchFailed   Outcome = "fetch_failed"
	OutcomeUnknownStatus Outcome = "unknown_status"
	OutcomeFailed        Outcome = "failed"
	OutcomeIgnored       Outcome = "ignored"
)

// Result reports the handling of one payment
type Result struct {
	PaymentID string
	OrderID   string
	Status    string
	Outcome   Outcome
}

// Reconciler applies provider notifications to orders and the ledger
type Reconciler struct {
	provider Provider
	orders   OrderTransitions
	ledger   PaymentLedger
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewReconciler creates a new reconciler
func NewReconciler(provider Provider, orders OrderTransitions, ledger PaymentLedger, log logrus.FieldLogger) *Reconciler {
	return &Reconciler{
		provider: provider,
		orders:   orders,
		ledger:   ledger,
		log:      log.WithField("service", "reconciler"),
		now:      time.Now,
	}
}

// HandleNotification processes a notification. It never fails: every problem is
// logged and the notification is considered acknowledged.
func (r *Reconciler) HandleNotification(ctx context.Context, n Notification) []Result {
	topic := strings.ToLower(strings.TrimSpace(n.Type))
	id := strings.TrimSpace(n.DataID)

	log := r.log.WithFields(logrus.Fields{"topic": topic, "data_id": id})

	if id == "" {
		log.Warn("notification without data id ignored")
		return []Result{{Outcome: OutcomeIgnored}}
	}
	if !ValidExternalID(id) {
		log.Warn("notification with malformed data id ignored")
		return []Result{{Outcome: OutcomeIgnored}}
	}

	switch topic {
	case TopicPayment:
		return []Result{r.reconcilePayment(ctx, id)}

	case TopicMerchantOrder:
		mo, err := r.provider.GetMerchantOrder(ctx, id)
		if err != nil {
			log.WithError(err).Error("failed to fetch merchant order")
			return []Result{{Outcome: OutcomeFetchFailed}}
		}

		results := make([]Result, 0, len(mo.Payments))
		for _, p := range mo.Payments {
			if !ValidExternalID(p.ID.String()) {
				log.WithField("payment_id", p.ID.String()).Warn("merchant order payment with malformed id skipped")
				continue
			}
			results = append(results, r.reconcilePayment(ctx, p.ID.String()))
		}
		if len(results) == 0 {
			log.Info("merchant order has no payments yet")
		}
		return results

	default:
		log.Info("notification topic ignored")
		return []Result{{Outcome: OutcomeIgnored}}
	}
}

func (r *Reconciler) reconcilePayment(ctx context.Context, paymentID string) Result {
	res := Result{PaymentID: paymentID}
	log := r.log.WithField("payment_id", paymentID)

	p, err := r.provider.GetPayment(ctx, paymentID)
	if err != nil {
		log.WithError(err).Error("failed to fetch payment")
		res.Outcome = OutcomeFetchFailed
		return res
	}

	res.Status = p.Status
	log = log.WithField("status", p.Status)

	orderID := p.MetadataString("order_id")
	if orderID == "" {
		orderID = strings.TrimSpace(p.ExternalReference)
	}
	if orderID == "" {
		log.Warn("payment carries no order reference")
		res.Outcome = OutcomeUnresolved
		return res
	}

	res.OrderID = orderID
	log = log.WithField("order_id", orderID)

	ord, err := r.orders.GetOrder(ctx, orderID)
	if err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			log.Warn("payment references an unknown order")
			res.Outcome = OutcomeUnresolved
		} else {
			log.WithError(err).Error("failed to load order")
			res.Outcome = OutcomeFailed
		}
		return res
	}

	if err := r.ledger.Upsert(ctx, recordFrom(p, paymentID, ord)); err != nil {
		log.WithError(err).Error("failed to record payment")
	}

	var applied bool
	switch p.Status {
	case StatusApproved:
		if p.AmountCents() < ord.Total {
			log.WithFields(logrus.Fields{"amount": p.AmountCents(), "total": ord.Total}).Warn("approved amount is below the order total")
		}
		paidAt := r.now()
		if p.DateApproved != nil {
			paidAt = *p.DateApproved
		}
		applied, err = r.orders.MarkPaid(ctx, ord.ID, paymentID, paidAt)
	case StatusPending, StatusInProcess, StatusAuthorized:
		applied, err = r.orders.MarkPaymentPending(ctx, ord.ID, paymentID)
	case StatusRejected, StatusCancelled:
		applied, err = r.orders.MarkPaymentRejected(ctx, ord.ID, paymentID)
	default:
		log.Warn("unhandled payment status, no transition")
		res.Outcome = OutcomeUnknownStatus
		return res
	}

	if err != nil {
		log.WithError(err).Error("failed to apply order transition")
		res.Outcome = OutcomeFailed
		return res
	}

	if applied {
		res.Outcome = OutcomeApplied
		log.Info("order transition applied")
	} else {
		res.Outcome = OutcomeNoop
		log.WithField("order_state", ord.State).Info("order not awaiting payment, transition skipped")
	}
	return res
}

func recordFrom(p *ProviderPayment, paymentID string, ord *order.Order) *PaymentRecord {
	rec := &PaymentRecord{
		ExternalPaymentID: paymentID,
		OrderID:           ord.ID,
		Status:            p.Status,
		StatusDetail:      p.StatusDetail,
		Amount:            p.AmountCents(),
		Method:            p.PaymentMethodID,
		PaymentType:       p.PaymentTypeID,
		PayerEmail:        p.Payer.Email,
		CreatedAtProvider: p.DateCreated,
		ApprovedAt:        p.DateApproved,
	}

	userID := ord.UserID
	rec.UserID = &userID

	return rec
}
