package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/electrostore/ecommerce-backend/internal/config"
	"github.com/electrostore/ecommerce-backend/internal/domain/cart"
	"github.com/electrostore/ecommerce-backend/internal/domain/order"
	"github.com/electrostore/ecommerce-backend/internal/domain/product"
	"github.com/electrostore/ecommerce-backend/internal/domain/user"
	"github.com/electrostore/ecommerce-backend/internal/pkg/testdb"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type ReconcilerSuite struct {
	suite.Suite
	ctx        context.Context
	db         *gorm.DB
	orders     *order.Service
	carts      *cart.Service
	ledger     *Ledger
	provider   *mockProvider
	reconciler *Reconciler
	hook       *test.Hook
	order      *order.Order
}

func TestReconcilerSuite(t *testing.T) {
	suite.Run(t, new(ReconcilerSuite))
}

func (s *ReconcilerSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = testdb.New(s.T(),
		&product.Category{}, &product.Product{},
		&cart.Cart{}, &cart.CartItem{},
		&user.Address{},
		&order.Order{}, &order.OrderItem{},
		&PaymentRecord{},
	)

	log, hook := test.NewNullLogger()
	s.hook = hook
	s.carts = cart.NewService(s.db)
	s.orders = order.NewService(s.db, user.NewAddressService(s.db, config.CheckoutConfig{}), "PED", log)
	s.ledger = NewLedger(s.db)
	s.provider = new(mockProvider)
	s.reconciler = NewReconciler(s.provider, s.orders, s.ledger, log)

	p, err := product.NewService(s.db).CreateProduct(s.ctx, &product.ProductCreateRequest{
		Name: "Parlante", PurchasePrice: 1500, MarginPercent: 0, Stock: 10,
	})
	s.Require().NoError(err)
	// list 1900, cost 1500
	s.Require().NoError(s.db.Model(&product.Product{}).Where("id = ?", p.ID).Update("list_price", 1900).Error)

	_, err = s.carts.AddToCart(s.ctx, 7, &cart.AddToCartRequest{ProductID: p.ID, Quantity: 2})
	s.Require().NoError(err)

	s.order, err = s.orders.CreateOrderFromCart(s.ctx, 7, &order.CreateOrderRequest{DeliveryMode: order.DeliveryPickup})
	s.Require().NoError(err)
	s.Require().Equal(int64(3800), s.order.Total)
}

func (s *ReconcilerSuite) payment(id, status string, approvedAt *time.Time) *ProviderPayment {
	return &ProviderPayment{
		ID:                ExternalID(id),
		Status:            status,
		StatusDetail:      status + "_detail",
		TransactionAmount: 38,
		PaymentMethodID:   "visa",
		PaymentTypeID:     "credit_card",
		Payer:             Payer{Email: "ana@example.com"},
		Metadata:          map[string]interface{}{"order_id": s.order.ID, "user_id": float64(7)},
		DateApproved:      approvedAt,
	}
}

func (s *ReconcilerSuite) reload() *order.Order {
	o, err := s.orders.GetOrder(s.ctx, s.order.ID)
	s.Require().NoError(err)
	return o
}

func (s *ReconcilerSuite) ledgerCount() int64 {
	var n int64
	s.Require().NoError(s.db.Model(&PaymentRecord{}).Count(&n).Error)
	return n
}

func (s *ReconcilerSuite) TestApprovedPaymentMarksOrderPaid() {
	approvedAt := time.Date(2025, 3, 10, 15, 1, 0, 0, time.UTC)
	s.provider.On("GetPayment", mock.Anything, "1001").Return(s.payment("1001", StatusApproved, &approvedAt), nil)

	results := s.reconciler.HandleNotification(s.ctx, Notification{Type: "payment", DataID: "1001"})
	s.Require().Len(results, 1)
	s.Equal(OutcomeApplied, results[0].Outcome)

	o := s.reload()
	s.Equal(order.StatePaid, o.State)
	s.Equal("1001", *o.PaymentID)
	s.True(approvedAt.Equal(*o.PaidAt))
	s.Equal(int64(800), o.TotalMargin)

	rec, err := s.ledger.GetByExternalID(s.ctx, "1001")
	s.Require().NoError(err)
	s.Equal(StatusApproved, rec.Status)
	s.Equal(int64(3800), rec.Amount)
	s.Equal(s.order.ID, rec.OrderID)

	c, err := s.carts.GetCart(s.ctx, 7)
	s.Require().NoError(err)
	s.Empty(c.Items)
}

func (s *ReconcilerSuite) TestDuplicateDeliveryIsNoop() {
	approvedAt := time.Now().UTC().Truncate(time.Second)
	s.provider.On("GetPayment", mock.Anything, "1001").Return(s.payment("1001", StatusApproved, &approvedAt), nil)

	first := s.reconciler.HandleNotification(s.ctx, Notification{Type: "payment", DataID: "1001"})
	second := s.reconciler.HandleNotification(s.ctx, Notification{Type: "payment", DataID: "1001"})

	s.Equal(OutcomeApplied, first[0].Outcome)
	s.Equal(OutcomeNoop, second[0].Outcome)
	s.Equal(int64(1), s.ledgerCount())
	s.Equal(order.StatePaid, s.reload().State)
}

func (s *ReconcilerSuite) TestLatePendingDoesNotRegress() {
	approvedAt := time.Now().UTC()
	s.provider.On("GetPayment", mock.Anything, "1001").Return(s.payment("1001", StatusApproved, &approvedAt), nil)
	s.provider.On("GetPayment", mock.Anything, "1000").Return(s.payment("1000", StatusPending, nil), nil)

	s.reconciler.HandleNotification(s.ctx, Notification{Type: "payment", DataID: "1001"})
	late := s.reconciler.HandleNotification(s.ctx, Notification{Type: "payment", DataID: "1000"})

	s.Equal(OutcomeNoop, late[0].Outcome)
	o := s.reload()
	s.Equal(order.StatePaid, o.State)
	s.Equal("1001", *o.PaymentID)
}

func (s *ReconcilerSuite) TestPendingRefreshesPaymentID() {
	s.provider.On("GetPayment", mock.Anything, "1000").Return(s.payment("1000", StatusInProcess, nil), nil)

	res := s.reconciler.HandleNotification(s.ctx, Notification{Type: "payment", DataID: "1000"})
	s.Equal(OutcomeApplied, res[0].Outcome)

	o := s.reload()
	s.Equal(order.StatePendingPayment, o.State)
	s.Equal("1000", *o.PaymentID)
}

func (s *ReconcilerSuite) TestRejectedPayment() {
	s.provider.On("GetPayment", mock.Anything, "1002").Return(s.payment("1002", StatusRejected, nil), nil)

	res := s.reconciler.HandleNotification(s.ctx, Notification{Type: "payment", DataID: "1002"})
	s.Equal(OutcomeApplied, res[0].Outcome)
	s.Equal(order.StatePaymentRejected, s.reload().State)

	c, err := s.carts.GetCart(s.ctx, 7)
	s.Require().NoError(err)
	s.Len(c.Items, 1, "cart kept after rejection")
}

func (s *ReconcilerSuite) TestUnknownPaymentIDMutatesNothing() {
	s.provider.On("GetPayment", mock.Anything, "999999").Return(nil, ErrPaymentNotFound)

	res := s.reconciler.HandleNotification(s.ctx, Notification{Type: "payment", DataID: "999999"})
	s.Equal(OutcomeFetchFailed, res[0].Outcome)
	s.Equal(int64(0), s.ledgerCount())
	s.Equal(order.StatePendingPayment, s.reload().State)
}

func (s *ReconcilerSuite) TestUnresolvableOrderMutatesNothing() {
	orphan := s.payment("1003", StatusApproved, nil)
	orphan.Metadata = nil
	orphan.ExternalReference = "does-not-exist"
	s.provider.On("GetPayment", mock.Anything, "1003").Return(orphan, nil)

	noRef := s.payment("1004", StatusApproved, nil)
	noRef.Metadata = map[string]interface{}{}
	s.provider.On("GetPayment", mock.Anything, "1004").Return(noRef, nil)

	s.Equal(OutcomeUnresolved, s.reconciler.HandleNotification(s.ctx, Notification{Type: "payment", DataID: "1003"})[0].Outcome)
	s.Equal(OutcomeUnresolved, s.reconciler.HandleNotification(s.ctx, Notification{Type: "payment", DataID: "1004"})[0].Outcome)
	s.Equal(int64(0), s.ledgerCount())
	s.Equal(order.StatePendingPayment, s.reload().State)
}

func (s *ReconcilerSuite) TestResolvesOrderByExternalReference() {
	p := s.payment("1005", StatusApproved, nil)
	p.Metadata = nil
	p.ExternalReference = s.order.ID
	s.provider.On("GetPayment", mock.Anything, "1005").Return(p, nil)

	res := s.reconciler.HandleNotification(s.ctx, Notification{Type: "payment", DataID: "1005"})
	s.Equal(OutcomeApplied, res[0].Outcome)
	s.NotNil(s.reload().PaidAt, "paid time falls back to now without an approval date")
}

func (s *ReconcilerSuite) TestMerchantOrderFansOut() {
	mo := &MerchantOrder{ID: "2001"}
	mo.Payments = append(mo.Payments,
		struct {
			ID     ExternalID `json:"id"`
			Status string     `json:"status"`
		}{ID: "1002", Status: StatusRejected},
		struct {
			ID     ExternalID `json:"id"`
			Status string     `json:"status"`
		}{ID: "1001", Status: StatusApproved},
	)
	s.provider.On("GetMerchantOrder", mock.Anything, "2001").Return(mo, nil)
	s.provider.On("GetPayment", mock.Anything, "1001").Return(s.payment("1001", StatusApproved, nil), nil)
	s.provider.On("GetPayment", mock.Anything, "1002").Return(s.payment("1002", StatusPending, nil), nil)

	res := s.reconciler.HandleNotification(s.ctx, Notification{Type: "merchant_order", DataID: "2001"})
	s.Require().Len(res, 2)
	s.Equal(int64(2), s.ledgerCount())
	s.Equal(order.StatePaid, s.reload().State)
	s.provider.AssertExpectations(s.T())
}

func (s *ReconcilerSuite) TestMerchantOrderFetchFailure() {
	s.provider.On("GetMerchantOrder", mock.Anything, "2002").Return(nil, errors.New("timeout"))

	res := s.reconciler.HandleNotification(s.ctx, Notification{Type: "merchant_order", DataID: "2002"})
	s.Equal(OutcomeFetchFailed, res[0].Outcome)
	s.provider.AssertNotCalled(s.T(), "GetPayment", mock.Anything, mock.Anything)
}

func (s *ReconcilerSuite) TestUnknownStatusAndTopic() {
	s.provider.On("GetPayment", mock.Anything, "1006").Return(s.payment("1006", "charged_back", nil), nil)

	res := s.reconciler.HandleNotification(s.ctx, Notification{Type: "payment", DataID: "1006"})
	s.Equal(OutcomeUnknownStatus, res[0].Outcome)
	s.Equal(order.StatePendingPayment, s.reload().State)
	s.Equal(int64(1), s.ledgerCount(), "the ledger still records the payment")

	s.Equal(OutcomeIgnored, s.reconciler.HandleNotification(s.ctx, Notification{Type: "plan", DataID: "1"})[0].Outcome)
	s.Equal(OutcomeIgnored, s.reconciler.HandleNotification(s.ctx, Notification{Type: "payment"})[0].Outcome)
}

func (s *ReconcilerSuite) TestMalformedIDIsIgnoredWithoutFetch() {
	for _, id := range []string{"1/../../../users/me?x=1", "abc", "123456789012345678901"} {
		res := s.reconciler.HandleNotification(s.ctx, Notification{Type: "payment", DataID: id})
		s.Equal(OutcomeIgnored, res[0].Outcome, id)

		res = s.reconciler.HandleNotification(s.ctx, Notification{Type: "merchant_order", DataID: id})
		s.Equal(OutcomeIgnored, res[0].Outcome, id)
	}

	s.provider.AssertNotCalled(s.T(), "GetPayment", mock.Anything, mock.Anything)
	s.provider.AssertNotCalled(s.T(), "GetMerchantOrder", mock.Anything, mock.Anything)
	s.Equal(order.StatePendingPayment, s.reload().State)
}
