package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v int64) *int64 { return &v }

func TestEffectivePrice(t *testing.T) {
	tests := []struct {
		name      string
		list      int64
		onSale    bool
		pct       float64
		salePrice *int64
		want      int64
	}{
		{"not on sale", 1000, false, 10, ptr(900), 1000},
		{"on sale", 1000, true, 10, ptr(900), 900},
		{"on sale with zero percentage", 1000, true, 0, ptr(900), 1000},
		{"on sale without sale price", 1000, true, 10, nil, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EffectivePrice(tt.list, tt.onSale, tt.pct, tt.salePrice))
		})
	}
}

func TestRecomputePrices(t *testing.T) {
	p := &Product{PurchasePrice: 800, MarginPercent: 25}
	RecomputePrices(p)
	assert.Equal(t, int64(1000), p.ListPrice)
	assert.Nil(t, p.SalePrice)

	p.IsOnSale = true
	p.SalePercentage = 10
	RecomputePrices(p)
	require.NotNil(t, p.SalePrice)
	assert.Equal(t, int64(900), *p.SalePrice)
	assert.Equal(t, int64(900), p.EffectivePrice())

	p.IsOnSale = false
	RecomputePrices(p)
	assert.Nil(t, p.SalePrice)
	assert.Equal(t, int64(1000), p.EffectivePrice())
}

func TestListPriceFor_Rounds(t *testing.T) {
	// 333 * 1.15 = 382.95
	assert.Equal(t, int64(383), ListPriceFor(333, 15))
	assert.Equal(t, int64(1999), SalePriceFor(2221, 10)) // 1998.9
}
