package entity

import "github.com/shopspring/decimal"

type Product struct {
	ID            int64
	Name          string
	UnitPrice     decimal.Decimal
	StockQuantity int
}

func (p Product) InStock() bool {
	return p.StockQuantity > 0
}

// CartLine is one product/quantity pairing in the cart. UnitPrice is the
// price observed when the product was first added.
type CartLine struct {
	ProductID int64
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
