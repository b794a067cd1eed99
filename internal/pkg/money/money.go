// Package money carries decimal amounts over JSON as bare numbers, the way
// the order-processing API expects them, without touching decimal's
// package-level serialization settings.
package money

import "github.com/shopspring/decimal"

// Amount is a decimal that marshals as a JSON number. Decoding accepts both
// numbers and numeric strings.
type Amount struct {
	decimal.Decimal
}

func Of(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}
