package ports

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
)

// ErrNotFound is matched by adapter errors for a resource the backend does not have.
var ErrNotFound = errors.New("not found")

// Navigator performs screen navigation. It is the only way the core moves the user.
type Navigator interface {
	Navigate(ctx context.Context, to entity.Route) error
}

// Credentials is what the auth endpoints hand back on success.
type Credentials struct {
	AccessToken string
	User        entity.User
}

type AuthAPI interface {
	Login(ctx context.Context, username, password string) (*Credentials, error)
	Register(ctx context.Context, username, password string, role entity.Role) (*Credentials, error)
}

type CatalogAPI interface {
	ListProducts(ctx context.Context) ([]entity.Product, error)
	AddProduct(ctx context.Context, name string, price decimal.Decimal, stock int) error
	UpdatePrice(ctx context.Context, productID int64, price decimal.Decimal) error
	RefillStock(ctx context.Context, productID int64, qty int) error
}

type CheckoutAPI interface {
	Checkout(ctx context.Context, req entity.CheckoutRequest) (*entity.CheckoutResult, error)
}

type OrderAPI interface {
	ListOrders(ctx context.Context, userID string) ([]entity.Order, error)
	ListAllOrders(ctx context.Context) ([]entity.Order, error)
	GetOrder(ctx context.Context, orderID int64) (*entity.Order, error)
	Refund(ctx context.Context, orderID int64) error
}
