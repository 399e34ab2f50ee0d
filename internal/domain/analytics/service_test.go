package analytics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/electrostore/ecommerce-backend/internal/domain/order"
	"github.com/electrostore/ecommerce-backend/internal/domain/product"
	"github.com/electrostore/ecommerce-backend/internal/pkg/apperrors"
	"github.com/electrostore/ecommerce-backend/internal/pkg/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedOrder(t *testing.T, db *gorm.DB, n int, state order.State, margin int64, paidAt *time.Time) {
	t.Helper()
	o := order.Order{
		ID:           fmt.Sprintf("00000000-0000-0000-0000-%012d", n),
		Code:         fmt.Sprintf("PED-%04d", n),
		UserID:       1,
		DeliveryMode: order.DeliveryPickup,
		State:        state,
		Total:        margin * 5,
		TotalMargin:  margin,
		PaidAt:       paidAt,
	}
	require.NoError(t, db.Create(&o).Error)
}

func at(s string) *time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return &t
}

func newService(t *testing.T) (*Service, *gorm.DB) {
	db := testdb.New(t, &order.Order{}, &order.OrderItem{})
	svc := NewService(db, time.UTC)
	svc.now = func() time.Time { return time.Date(2025, 3, 12, 18, 0, 0, 0, time.UTC) }
	return svc, db
}

func TestGetSummary(t *testing.T) {
	svc, db := newService(t)

	seedOrder(t, db, 1, order.StatePaid, 800, at("2025-03-12 09:00"))
	seedOrder(t, db, 2, order.StateDelivered, 200, at("2025-03-10 09:00"))
	seedOrder(t, db, 3, order.StatePaid, 500, at("2025-03-02 09:00"))
	seedOrder(t, db, 4, order.StatePaid, 900, at("2025-02-27 09:00"))
	seedOrder(t, db, 5, order.StatePendingPayment, 300, nil)
	seedOrder(t, db, 6, order.StateCancelled, 700, at("2025-03-12 10:00"))

	summary, err := svc.GetSummary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, PeriodEarnings{Margin: 800, Orders: 1}, summary.Today)
	assert.Equal(t, PeriodEarnings{Margin: 1000, Orders: 2}, summary.Last7)
	assert.Equal(t, PeriodEarnings{Margin: 1500, Orders: 3}, summary.ThisMonth)
}

func TestGetReport_GroupsAndSorts(t *testing.T) {
	svc, db := newService(t)

	seedOrder(t, db, 1, order.StatePaid, 800, at("2025-03-12 23:59"))
	seedOrder(t, db, 2, order.StateShipped, 200, at("2025-03-01 00:00"))
	seedOrder(t, db, 3, order.StatePaid, 100, at("2025-03-01 12:00"))
	seedOrder(t, db, 4, order.StatePaid, 900, at("2025-02-27 09:00"))
	seedOrder(t, db, 5, order.StatePaid, 50, at("2025-03-13 00:00"))

	report, err := svc.GetReport(context.Background(), &ReportRequest{From: "2025-02-27", To: "2025-03-12"})
	require.NoError(t, err)

	assert.Equal(t, GroupByDay, report.GroupBy)
	assert.Equal(t, int64(2000), report.TotalMargin)
	assert.Equal(t, int64(4), report.TotalOrders)
	assert.Equal(t, []SeriesPoint{
		{Key: "2025-02-27", Margin: 900, Orders: 1},
		{Key: "2025-03-01", Margin: 300, Orders: 2},
		{Key: "2025-03-12", Margin: 800, Orders: 1},
	}, report.Series)

	monthly, err := svc.GetReport(context.Background(), &ReportRequest{From: "2025-01-01", To: "2025-03-31", GroupBy: GroupByMonth})
	require.NoError(t, err)
	assert.Equal(t, []SeriesPoint{
		{Key: "2025-02", Margin: 900, Orders: 1},
		{Key: "2025-03", Margin: 1150, Orders: 4},
	}, monthly.Series)
}

func TestGetReport_EmptyRange(t *testing.T) {
	svc, _ := newService(t)

	report, err := svc.GetReport(context.Background(), &ReportRequest{From: "2024-01-01", To: "2024-01-31"})
	require.NoError(t, err)
	assert.Zero(t, report.TotalMargin)
	assert.Empty(t, report.Series)
}

func TestGetReport_Validation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	cases := []*ReportRequest{
		{To: "2025-03-01"},
		{From: "2025-03-01"},
		{From: "03/01/2025", To: "2025-03-10"},
		{From: "2025-03-10", To: "2025-03-01"},
		{From: "2025-03-01", To: "2025-03-10", GroupBy: "week"},
	}
	for _, req := range cases {
		_, err := svc.GetReport(ctx, req)
		assert.True(t, apperrors.Is(err, apperrors.KindValidation), "%+v", req)
	}
}

func TestDashboardSummary(t *testing.T) {
	db := testdb.New(t, &order.Order{}, &order.OrderItem{}, &product.Category{}, &product.Product{})
	svc := NewService(db, time.UTC)

	products := []product.Product{
		{Name: "Parlante", Slug: "parlante", PurchasePrice: 1000, ListPrice: 1200, IsActive: true},
		{Name: "Mouse", Slug: "mouse", PurchasePrice: 500, ListPrice: 800, IsActive: true, IsOnSale: true, SalePercentage: 10},
		{Name: "Cable", Slug: "cable", PurchasePrice: 100, ListPrice: 200, IsActive: true, IsOnSale: true},
		{Name: "Radio", Slug: "radio", PurchasePrice: 900, ListPrice: 1000, IsOnSale: true, SalePercentage: 20},
	}
	require.NoError(t, db.Create(&products).Error)

	seedOrder(t, db, 1, order.StatePaid, 100, at("2025-03-12 09:00"))
	seedOrder(t, db, 2, order.StateShipped, 100, at("2025-03-11 09:00"))
	seedOrder(t, db, 3, order.StatePendingPayment, 100, nil)
	seedOrder(t, db, 4, order.StatePaymentRejected, 100, nil)

	d, err := svc.DashboardSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Dashboard{ActiveProducts: 3, ProductsOnSale: 1, PaidOrders: 2}, d)
}
