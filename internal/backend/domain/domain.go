// Package domain holds the reference backend's entities. They mirror the
// wire contract the storefront client speaks.
package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrOutOfStock        = errors.New("out of stock")
	ErrPaymentDeclined   = errors.New("payment declined")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("conflict")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidInput      = errors.New("invalid input")
)

type Role string

const (
	RoleClient Role = "CLIENT"
	RoleOwner  Role = "OWNER"
)

func (r Role) Valid() bool {
	return r == RoleClient || r == RoleOwner
}

type User struct {
	ID           int64
	Username     string
	PasswordHash []byte
	Role         Role
}

type Product struct {
	ID    int64
	Name  string
	Price decimal.Decimal
	Stock int
}

type StockItem struct {
	ProductID int64
	Quantity  int
}

type OrderStatus string

const (
	StatusPending  OrderStatus = "PENDING"
	StatusPaid     OrderStatus = "PAID"
	StatusFailed   OrderStatus = "FAILED"
	StatusRefunded OrderStatus = "REFUNDED"
)

type Order struct {
	ID        int64
	UserID    string
	Status    OrderStatus
	Total     decimal.Decimal
	CreatedAt time.Time
	Items     []OrderItem
}

type OrderItem struct {
	ProductID   int64
	ProductName string
	Qty         int
	Price       decimal.Decimal
	LineTotal   decimal.Decimal
}

// StockItems returns the reservation shape of the order's lines.
func (o Order) StockItems() []StockItem {
	items := make([]StockItem, len(o.Items))
	for i, it := range o.Items {
		items[i] = StockItem{ProductID: it.ProductID, Quantity: it.Qty}
	}
	return items
}
