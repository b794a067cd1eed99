package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending  OrderStatus = "PENDING"
	StatusPaid     OrderStatus = "PAID"
	StatusFailed   OrderStatus = "FAILED"
	StatusRefunded OrderStatus = "REFUNDED"
)

// Terminal reports whether no further server-side transition is possible.
func (s OrderStatus) Terminal() bool {
	return s == StatusFailed || s == StatusRefunded
}

type Order struct {
	ID          int64
	OwnerUserID string
	Status      OrderStatus
	Total       decimal.Decimal
	CreatedAt   time.Time
	// Items is only populated when the order is fetched by identifier.
	Items []OrderLine
}

// OrderLine is the server's settled copy of a line item.
type OrderLine struct {
	ProductID   int64
	ProductName string
	Qty         int
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

// CheckoutItem is what the client sends for each cart line: never a price.
type CheckoutItem struct {
	ProductID int64
	Qty       int
}

type CheckoutRequest struct {
	UserID string
	Items  []CheckoutItem
}

type CheckoutResult struct {
	OrderID int64
	Status  OrderStatus
	Total   decimal.Decimal
}

type RevenueMetrics struct {
	TotalRevenue   decimal.Decimal
	RefundedAmount decimal.Decimal
	NetRevenue     decimal.Decimal
	PaidOrders     int
	RefundedOrders int
	FailedOrders   int
}
