package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/electrostore/ecommerce-backend/internal/config"
	"github.com/electrostore/ecommerce-backend/internal/domain/order"
	"github.com/electrostore/ecommerce-backend/internal/pkg/apperrors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func intentConfig() *config.Config {
	return &config.Config{
		MercadoPago: config.MercadoPagoConfig{StatementDescriptor: "ELECTROSTORE"},
		Checkout:    config.CheckoutConfig{BackendURL: "https://api.electrostore.pe"},
	}
}

func pendingOrder() *order.Order {
	return &order.Order{ID: "O1", Code: "PED-BEEF", UserID: 7, State: order.StatePendingPayment, Total: 3800}
}

func TestIntentService_CreateIntent_AggregateItem(t *testing.T) {
	orders := new(mockOrderStore)
	provider := new(mockProvider)
	log, hook := test.NewNullLogger()
	svc := NewIntentService(orders, provider, intentConfig(), log)

	orders.On("GetForUser", mock.Anything, "O1", uint(7)).Return(pendingOrder(), nil)
	provider.On("CreatePreference", mock.Anything, mock.MatchedBy(func(req *PreferenceRequest) bool {
		return len(req.Items) == 1 &&
			req.Items[0].Quantity == 1 &&
			req.Items[0].UnitPrice == 38.0 &&
			req.ExternalReference == "O1" &&
			req.Metadata["order_id"] == "O1" &&
			req.Metadata["user_id"] == "7" &&
			req.NotificationURL == "https://api.electrostore.pe/api/v1/payments/webhook" &&
			req.BackURLs.Success == "https://api.electrostore.pe/api/v1/payments/success" &&
			req.StatementDescriptor == "ELECTROSTORE"
	})).Return(&Preference{ID: "pref-1", InitPoint: "https://mp/checkout/pref-1"}, nil)
	orders.On("SetPreferenceID", mock.Anything, "O1", "pref-1").Return(nil)

	res, err := svc.CreateIntent(context.Background(), 7, &CreateIntentRequest{OrderID: "O1", PayerEmail: "ana@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "pref-1", res.IntentID)
	assert.Equal(t, "https://mp/checkout/pref-1", res.RedirectURL)

	orders.AssertExpectations(t)
	provider.AssertExpectations(t)
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
}

func TestIntentService_CreateIntent_SuppliedLinesAndCallbacks(t *testing.T) {
	orders := new(mockOrderStore)
	provider := new(mockProvider)
	log, _ := test.NewNullLogger()
	svc := NewIntentService(orders, provider, intentConfig(), log)

	orders.On("GetForUser", mock.Anything, "O1", uint(7)).Return(pendingOrder(), nil)
	provider.On("CreatePreference", mock.Anything, mock.MatchedBy(func(req *PreferenceRequest) bool {
		return len(req.Items) == 2 &&
			req.Items[0].UnitPrice == 9.0 &&
			req.BackURLs.Success == "electrostore://payment/success" &&
			req.BackURLs.Failure == "https://api.electrostore.pe/api/v1/payments/failure"
	})).Return(&Preference{ID: "pref-2", SandboxInitPoint: "https://sandbox/pref-2"}, nil)
	orders.On("SetPreferenceID", mock.Anything, "O1", "pref-2").Return(nil)

	res, err := svc.CreateIntent(context.Background(), 7, &CreateIntentRequest{
		OrderID:    "O1",
		PayerEmail: "ana@example.com",
		LineItems: []LineItem{
			{Title: "Audífonos", Quantity: 2, UnitPrice: 900},
			{Title: "Parlante", Quantity: 1, UnitPrice: 2000},
		},
		CallbackURLs: &CallbackURLs{Success: "electrostore://payment/success"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://sandbox/pref-2", res.RedirectURL)
}

func TestIntentService_CreateIntent_Validation(t *testing.T) {
	orders := new(mockOrderStore)
	provider := new(mockProvider)
	log, _ := test.NewNullLogger()
	svc := NewIntentService(orders, provider, intentConfig(), log)
	ctx := context.Background()

	_, err := svc.CreateIntent(ctx, 7, &CreateIntentRequest{OrderID: "O1"})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	orders.On("GetForUser", mock.Anything, "404404", uint(7)).Return(nil, apperrors.NotFound("order not found"))
	_, err = svc.CreateIntent(ctx, 7, &CreateIntentRequest{OrderID: "404404", PayerEmail: "a@b.pe"})
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	paid := pendingOrder()
	paid.ID = "paid"
	paid.State = order.StatePaid
	orders.On("GetForUser", mock.Anything, "paid", uint(7)).Return(paid, nil)
	_, err = svc.CreateIntent(ctx, 7, &CreateIntentRequest{OrderID: "paid", PayerEmail: "a@b.pe"})
	assert.Equal(t, apperrors.KindPolicy, apperrors.KindOf(err))

	orders.On("GetForUser", mock.Anything, "O1", uint(7)).Return(pendingOrder(), nil)
	_, err = svc.CreateIntent(ctx, 7, &CreateIntentRequest{
		OrderID:    "O1",
		PayerEmail: "a@b.pe",
		LineItems:  []LineItem{{Title: "cheap", Quantity: 1, UnitPrice: 1}},
	})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err), "lines must add up to the order total")

	provider.AssertNotCalled(t, "CreatePreference", mock.Anything, mock.Anything)
}

func TestIntentService_CreateIntent_UpstreamFailures(t *testing.T) {
	orders := new(mockOrderStore)
	provider := new(mockProvider)
	log, _ := test.NewNullLogger()
	svc := NewIntentService(orders, provider, intentConfig(), log)
	ctx := context.Background()

	orders.On("GetForUser", mock.Anything, "O1", uint(7)).Return(pendingOrder(), nil)

	apiErr := &APIError{StatusCode: 400, Message: "bad request", Cause: []APICause{{Code: "4", Description: "invalid payer email"}}}
	provider.On("CreatePreference", mock.Anything, mock.Anything).Return(nil, apiErr).Once()

	_, err := svc.CreateIntent(ctx, 7, &CreateIntentRequest{OrderID: "O1", PayerEmail: "a@b.pe"})
	assert.Equal(t, apperrors.KindUpstream, apperrors.KindOf(err))
	assert.Equal(t, "payment provider error: invalid payer email", apperrors.PublicMessage(err))

	provider.On("CreatePreference", mock.Anything, mock.Anything).Return(&Preference{ID: "pref-x"}, nil).Once()
	_, err = svc.CreateIntent(ctx, 7, &CreateIntentRequest{OrderID: "O1", PayerEmail: "a@b.pe"})
	assert.Equal(t, apperrors.KindUpstream, apperrors.KindOf(err), "missing redirect url")

	orders.AssertNotCalled(t, "SetPreferenceID", mock.Anything, mock.Anything, mock.Anything)
}

func TestIntentService_CreateIntent_PersistFailureIsLoggedNotReturned(t *testing.T) {
	orders := new(mockOrderStore)
	provider := new(mockProvider)
	log, hook := test.NewNullLogger()
	svc := NewIntentService(orders, provider, intentConfig(), log)

	orders.On("GetForUser", mock.Anything, "O1", uint(7)).Return(pendingOrder(), nil)
	provider.On("CreatePreference", mock.Anything, mock.Anything).Return(&Preference{ID: "pref-1", InitPoint: "https://mp/pref-1"}, nil)
	orders.On("SetPreferenceID", mock.Anything, "O1", "pref-1").Return(errors.New("connection reset"))

	res, err := svc.CreateIntent(context.Background(), 7, &CreateIntentRequest{OrderID: "O1", PayerEmail: "a@b.pe"})
	require.NoError(t, err)
	assert.Equal(t, "pref-1", res.IntentID)

	var warned bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && entry.Data["preference_id"] == "pref-1" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestIntentService_VerifyPayment(t *testing.T) {
	provider := new(mockProvider)
	log, _ := test.NewNullLogger()
	svc := NewIntentService(new(mockOrderStore), provider, intentConfig(), log)
	ctx := context.Background()

	p := &ProviderPayment{
		ID:                "1001",
		Status:            StatusApproved,
		StatusDetail:      "accredited",
		TransactionAmount: 38,
		Metadata:          map[string]interface{}{"order_id": "O1", "user_id": "7"},
	}
	provider.On("GetPayment", mock.Anything, "1001").Return(p, nil)
	provider.On("GetPayment", mock.Anything, "404404").Return(nil, ErrPaymentNotFound)
	provider.On("GetPayment", mock.Anything, "503503").Return(nil, errors.New("circuit breaker is open"))

	status, err := svc.VerifyPayment(ctx, "1001", 7, false)
	require.NoError(t, err)
	assert.Equal(t, &PaymentStatus{ID: "1001", Status: StatusApproved, StatusDetail: "accredited", Amount: 3800, OrderID: "O1"}, status)

	_, err = svc.VerifyPayment(ctx, "1001", 8, false)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound), "other users cannot see the payment")

	_, err = svc.VerifyPayment(ctx, "1001", 1, true)
	assert.NoError(t, err)

	_, err = svc.VerifyPayment(ctx, "404404", 7, false)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	_, err = svc.VerifyPayment(ctx, "503503", 7, false)
	assert.True(t, apperrors.Is(err, apperrors.KindUpstream))

	_, err = svc.VerifyPayment(ctx, "1/../users/me", 7, false)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	provider.AssertNotCalled(t, "GetPayment", mock.Anything, "1/../users/me")
}
