package payment

import (
	"context"

	"github.com/electrostore/ecommerce-backend/internal/domain/order"
	"github.com/stretchr/testify/mock"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) CreatePreference(ctx context.Context, req *PreferenceRequest) (*Preference, error) {
	args := m.Called(ctx, req)
	if p := args.Get(0); p != nil {
		return p.(*Preference), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProvider) GetPayment(ctx context.Context, paymentID string) (*ProviderPayment, error) {
	args := m.Called(ctx, paymentID)
	if p := args.Get(0); p != nil {
		return p.(*ProviderPayment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProvider) GetMerchantOrder(ctx context.Context, merchantOrderID string) (*MerchantOrder, error) {
	args := m.Called(ctx, merchantOrderID)
	if mo := args.Get(0); mo != nil {
		return mo.(*MerchantOrder), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockOrderStore struct {
	mock.Mock
}

func (m *mockOrderStore) GetForUser(ctx context.Context, orderID string, userID uint) (*order.Order, error) {
	args := m.Called(ctx, orderID, userID)
	if o := args.Get(0); o != nil {
		return o.(*order.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockOrderStore) SetPreferenceID(ctx context.Context, orderID, preferenceID string) error {
	return m.Called(ctx, orderID, preferenceID).Error(0)
}
