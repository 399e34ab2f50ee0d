package cart

import (
	"context"
	"testing"

	"github.com/electrostore/ecommerce-backend/internal/domain/product"
	"github.com/electrostore/ecommerce-backend/internal/pkg/apperrors"
	"github.com/electrostore/ecommerce-backend/internal/pkg/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedProduct(t *testing.T, db *gorm.DB, name string, purchase int64, stock int) product.Product {
	t.Helper()
	p := product.Product{Name: name, Slug: name, PurchasePrice: purchase, Stock: stock, IsActive: true}
	product.RecomputePrices(&p)
	require.NoError(t, db.Create(&p).Error)
	return p
}

func setup(t *testing.T) (*Service, *gorm.DB) {
	db := testdb.New(t, &product.Category{}, &product.Product{}, &Cart{}, &CartItem{})
	return NewService(db), db
}

func TestService_GetCart_CreatesLazily(t *testing.T) {
	svc, db := setup(t)

	res, err := svc.GetCart(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, res.Items)

	res2, err := svc.GetCart(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, res.ID, res2.ID)

	var count int64
	require.NoError(t, db.Model(&Cart{}).Where("user_id = ?", 5).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestService_AddToCart_MergesLines(t *testing.T) {
	ctx := context.Background()
	svc, db := setup(t)
	p := seedProduct(t, db, "mouse", 1000, 10)

	_, err := svc.AddToCart(ctx, 1, &AddToCartRequest{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)
	res, err := svc.AddToCart(ctx, 1, &AddToCartRequest{ProductID: p.ID, Quantity: 3})
	require.NoError(t, err)

	require.Len(t, res.Items, 1)
	assert.Equal(t, 5, res.Items[0].Quantity)
	assert.Equal(t, int64(5000), res.Totals.SubTotal)

	_, err = svc.AddToCart(ctx, 1, &AddToCartRequest{ProductID: p.ID, Quantity: 6})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestService_UpdateAndRemove(t *testing.T) {
	ctx := context.Background()
	svc, db := setup(t)
	p := seedProduct(t, db, "teclado", 2000, 10)

	_, err := svc.UpdateCartItem(ctx, 1, p.ID, &UpdateCartItemRequest{Quantity: 2})
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	_, err = svc.AddToCart(ctx, 1, &AddToCartRequest{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)

	res, err := svc.UpdateCartItem(ctx, 1, p.ID, &UpdateCartItemRequest{Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Items[0].Quantity)

	res, err = svc.UpdateCartItem(ctx, 1, p.ID, &UpdateCartItemRequest{Quantity: 0})
	require.NoError(t, err)
	assert.Empty(t, res.Items)

	_, err = svc.RemoveFromCart(ctx, 1, p.ID)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestService_ClearCart_KeepsCart(t *testing.T) {
	ctx := context.Background()
	svc, db := setup(t)
	p := seedProduct(t, db, "monitor", 5000, 10)

	before, err := svc.AddToCart(ctx, 9, &AddToCartRequest{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, svc.ClearCart(ctx, 9))

	after, err := svc.GetCart(ctx, 9)
	require.NoError(t, err)
	assert.Empty(t, after.Items)
	assert.Equal(t, before.ID, after.ID)
}

func TestService_AddToCart_RejectsInactiveProduct(t *testing.T) {
	ctx := context.Background()
	svc, db := setup(t)
	p := seedProduct(t, db, "retirado", 100, 10)
	require.NoError(t, db.Model(&product.Product{}).Where("id = ?", p.ID).Update("is_active", false).Error)

	_, err := svc.AddToCart(ctx, 1, &AddToCartRequest{ProductID: p.ID, Quantity: 1})
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}
