package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrument_UsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Instrument)
	r.Get("/orders/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, path := range []string{"/orders/1", "/orders/2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/orders/{id}", "418")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))
}

func TestObserveOrder(t *testing.T) {
	m := New()
	m.ObserveOrder("PAID", decimal.RequireFromString("25.50"))
	m.ObserveOrder("PAID", decimal.RequireFromString("4.50"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.checkouts.WithLabelValues("PAID")))
	assert.InDelta(t, 30.0, testutil.ToFloat64(m.revenue.WithLabelValues("PAID")), 1e-9)
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveOrder("FAILED", decimal.NewFromInt(900))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `storefront_orders_settled_total{status="FAILED"} 1`)
}
