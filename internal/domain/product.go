package domain

import "github.com/shopspring/decimal"

// Product is a nomenclature (catalog) entry.
type Product struct {
	ID       ID              `json:"id"`
	Name     string          `json:"name"`
	Code     string          `json:"code,omitempty"`
	Unit     *int            `json:"unit,omitempty"`
	UnitName string          `json:"unitName,omitempty"`
	Type     string          `json:"type,omitempty"`
	Prices   []ProductPrice  `json:"prices"`
	Balances []StockBalance  `json:"balances"`
	Stock    decimal.Decimal `json:"stock"`
}

type ProductPrice struct {
	Price     decimal.Decimal `json:"price"`
	PriceType string          `json:"priceType"`
}

type StockBalance struct {
	WarehouseName string          `json:"warehouseName"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
}

// FirstPrice is the price used when the product is added to an order.
// The selected price type does not influence it.
func (p Product) FirstPrice() decimal.Decimal {
	if len(p.Prices) == 0 {
		return decimal.Zero
	}
	return p.Prices[0].Price
}
