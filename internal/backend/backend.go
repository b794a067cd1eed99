// Package backend assembles the reference order-processing backend the
// storefront client talks to during development and end-to-end tests.
package backend

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/storefront/internal/backend/auth"
	"github.com/jcmexdev/storefront/internal/backend/domain"
	"github.com/jcmexdev/storefront/internal/backend/httpx"
	"github.com/jcmexdev/storefront/internal/backend/inventory"
	"github.com/jcmexdev/storefront/internal/backend/metrics"
	"github.com/jcmexdev/storefront/internal/backend/orders"
	"github.com/jcmexdev/storefront/internal/backend/payment"
	"github.com/jcmexdev/storefront/internal/backend/saga/sagalog"
	"github.com/jcmexdev/storefront/internal/backend/settlement"
)

type Options struct {
	JWTSecret []byte
	TokenTTL  time.Duration
	// BcryptCost zero means the bcrypt default.
	BcryptCost int
	// PaymentLimit declines charges above it; zero disables declines.
	PaymentLimit decimal.Decimal
	// Products seeds the catalog; nil means the default catalog.
	Products []domain.Product
	SagaLog  sagalog.Repository
	Metrics  *metrics.Metrics
}

type Server struct {
	Handler    http.Handler
	Auth       *auth.Service
	Inventory  *inventory.Service
	Payment    *payment.Service
	Orders     *orders.Repository
	Settlement *settlement.Service
}

func New(opts Options) *Server {
	products := opts.Products
	if products == nil {
		products = inventory.DefaultProducts()
	}

	s := &Server{
		Auth:      auth.NewService(auth.Config{Secret: opts.JWTSecret, TTL: opts.TokenTTL, Cost: opts.BcryptCost}),
		Inventory: inventory.NewService(products...),
		Payment:   payment.NewService(opts.PaymentLimit),
		Orders:    orders.NewRepository(),
	}

	var observe settlement.Observer
	if opts.Metrics != nil {
		observe = func(status domain.OrderStatus, total decimal.Decimal) {
			opts.Metrics.ObserveOrder(string(status), total)
		}
	}
	s.Settlement = settlement.NewService(s.Inventory, s.Payment, s.Orders, opts.SagaLog, observe)
	s.Handler = httpx.NewRouter(httpx.NewHandler(s.Auth, s.Inventory, s.Orders, s.Settlement), opts.Metrics)
	return s
}
