package payment

import (
	"context"
	"testing"
	"time"

	"github.com/electrostore/ecommerce-backend/internal/pkg/apperrors"
	"github.com/electrostore/ecommerce-backend/internal/pkg/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_UpsertMergesOnlyMutableFields(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(testdb.New(t, &PaymentRecord{}))

	require.NoError(t, ledger.Upsert(ctx, &PaymentRecord{
		ExternalPaymentID: "P1",
		OrderID:           "O1",
		Status:            StatusPending,
		StatusDetail:      "pending_contingency",
		Amount:            3800,
		PayerEmail:        "ana@example.com",
	}))

	approvedAt := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	require.NoError(t, ledger.Upsert(ctx, &PaymentRecord{
		ExternalPaymentID: "P1",
		OrderID:           "other",
		Status:            StatusApproved,
		Amount:            1,
		ApprovedAt:        &approvedAt,
	}))

	rec, err := ledger.GetByExternalID(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, rec.Status)
	assert.Equal(t, "pending_contingency", rec.StatusDetail, "empty detail keeps the stored one")
	assert.Equal(t, "O1", rec.OrderID)
	assert.Equal(t, int64(3800), rec.Amount)
	require.NotNil(t, rec.ApprovedAt)
	assert.True(t, approvedAt.Equal(*rec.ApprovedAt))

	require.NoError(t, ledger.Upsert(ctx, &PaymentRecord{ExternalPaymentID: "P1", Status: StatusApproved, StatusDetail: "accredited"}))
	rec, err = ledger.GetByExternalID(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, "accredited", rec.StatusDetail)
	require.NotNil(t, rec.ApprovedAt, "missing approval time keeps the stored one")

	res, err := ledger.List(ctx, &ListRequest{})
	require.NoError(t, err)
	assert.Len(t, res.Payments, 1)
}

func TestLedger_ApprovedIsNotDowngraded(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(testdb.New(t, &PaymentRecord{}))

	require.NoError(t, ledger.Upsert(ctx, &PaymentRecord{ExternalPaymentID: "1001", OrderID: "O1", Status: StatusApproved, StatusDetail: "accredited", Amount: 3800}))
	require.NoError(t, ledger.Upsert(ctx, &PaymentRecord{ExternalPaymentID: "1001", OrderID: "O1", Status: StatusPending, StatusDetail: "pending_contingency", Amount: 3800}))
	require.NoError(t, ledger.Upsert(ctx, &PaymentRecord{ExternalPaymentID: "1001", OrderID: "O1", Status: StatusInProcess, Amount: 3800}))

	rec, err := ledger.GetByExternalID(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, rec.Status)
	assert.Equal(t, "accredited", rec.StatusDetail)

	require.NoError(t, ledger.Upsert(ctx, &PaymentRecord{ExternalPaymentID: "1001", OrderID: "O1", Status: "refunded", StatusDetail: "refunded", Amount: 3800}))
	rec, err = ledger.GetByExternalID(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, "refunded", rec.Status, "terminal provider updates still apply")
}

func TestLedger_RequiresExternalID(t *testing.T) {
	ledger := NewLedger(testdb.New(t, &PaymentRecord{}))
	err := ledger.Upsert(context.Background(), &PaymentRecord{Status: StatusApproved})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = ledger.GetByExternalID(context.Background(), "nope")
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}
