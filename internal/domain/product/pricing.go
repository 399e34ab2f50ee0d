// internal/domain/product/pricing.go
package product

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// EffectivePrice resolves the unit price: the sale price when the product is
// on sale with a positive percentage and a sale price is set, else the list price.
func EffectivePrice(listPrice int64, isOnSale bool, salePercentage float64, salePrice *int64) int64 {
	if isOnSale && salePercentage > 0 && salePrice != nil {
		return *salePrice
	}
	return listPrice
}

// ListPriceFor returns purchase + purchase*margin/100, rounded to the cent
func ListPriceFor(purchasePrice int64, marginPercent float64) int64 {
	purchase := decimal.NewFromInt(purchasePrice)
	markup := purchase.Mul(decimal.NewFromFloat(marginPercent)).Div(hundred)
	return purchase.Add(markup).Round(0).IntPart()
}

// SalePriceFor returns list - list*pct/100, rounded to the cent
func SalePriceFor(listPrice int64, salePercentage float64) int64 {
	list := decimal.NewFromInt(listPrice)
	discount := list.Mul(decimal.NewFromFloat(salePercentage)).Div(hundred)
	return list.Sub(discount).Round(0).IntPart()
}

// RecomputePrices derives ListPrice and SalePrice from the purchase price,
// margin and sale settings. It must be called whenever any of them change.
func RecomputePrices(p *Product) {
	p.ListPrice = ListPriceFor(p.PurchasePrice, p.MarginPercent)

	if p.IsOnSale && p.SalePercentage > 0 {
		sale := SalePriceFor(p.ListPrice, p.SalePercentage)
		p.SalePrice = &sale
		return
	}
	p.SalePrice = nil
}
