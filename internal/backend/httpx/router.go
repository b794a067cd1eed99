package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/storefront/internal/backend/domain"
	"github.com/jcmexdev/storefront/internal/backend/metrics"
	"github.com/jcmexdev/storefront/internal/pkg/requestmeta"
)

// NewRouter mounts every route. m may be nil, which leaves /metrics unmounted.
func NewRouter(h *Handler, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestmeta.AttachRequestMetadata)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if m != nil {
		r.Use(m.Instrument)
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Get("/health", h.Health)
	r.Post("/api/auth/register", h.Register)
	r.Post("/api/auth/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(h.auth))

		r.Get("/api/inventory/products", h.ListProducts)
		r.Post("/orders/checkout", h.Checkout)
		r.Get("/orders/{userID}", h.ListUserOrders)
		r.Get("/api/orders/by-id/{id}", h.GetOrder)
		r.Post("/api/orders/refund/{id}", h.Refund)

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(domain.RoleOwner))

			r.Post("/api/inventory/products", h.AddProduct)
			r.Put("/api/inventory/products/{id}", h.UpdatePrice)
			r.Post("/api/inventory/refill/{id}", h.Refill)
			r.Get("/orders/all", h.ListAllOrders)
			r.Get("/api/orders/all", h.ListAllOrders)
		})
	})
	return r
}
