package app

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jcmexdev/storefront/internal/backend"
	"github.com/jcmexdev/storefront/internal/pkg/config"
	"github.com/jcmexdev/storefront/internal/pkg/kvstore"
	"github.com/jcmexdev/storefront/internal/storefront/checkout"
	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/storefront/internal/storefront/journal"
	"github.com/jcmexdev/storefront/internal/storefront/session"
)

type harness struct {
	app     *App
	store   *kvstore.Memory
	journal *journal.Memory
	server  *backend.Server
}

func newHarness(t *testing.T, limit int64) *harness {
	t.Helper()
	srv := backend.New(backend.Options{
		JWTSecret:    []byte("test"),
		BcryptCost:   bcrypt.MinCost,
		PaymentLimit: decimal.NewFromInt(limit),
	})
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)

	h := &harness{store: kvstore.NewMemory(), journal: &journal.Memory{}, server: srv}
	cfg := &config.Client{APIBaseURL: ts.URL, StateBackend: kvstore.BackendMemory, HTTPTimeout: 5 * time.Second}

	a, err := NewWithDeps(context.Background(), cfg, Deps{Store: h.store, Journal: h.journal})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	h.app = a
	return h
}

func (h *harness) fillCart(t *testing.T, qty int) {
	t.Helper()
	ctx := context.Background()
	products, err := h.app.Catalog.List(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, products)
	p := products[0]
	require.NoError(t, h.app.Cart.Add(ctx, p.ID, p.Name, p.UnitPrice, qty))
}

func TestSignUpAndSignIn_LandOnRoleScreen(t *testing.T) {
	h := newHarness(t, 0)
	ctx := context.Background()

	require.NoError(t, h.app.SignUp(ctx, "olga", "pw", entity.RoleOwner))
	assert.Equal(t, entity.RouteInventory, h.app.Router.Current())
	require.NoError(t, h.app.Logout(ctx))
	assert.Equal(t, entity.RouteLogin, h.app.Router.Current())

	require.NoError(t, h.app.SignUp(ctx, "alice", "pw", entity.RoleClient))
	assert.Equal(t, entity.RouteProducts, h.app.Router.Current())
	require.NoError(t, h.app.Logout(ctx))

	require.NoError(t, h.app.SignIn(ctx, "olga", "pw"))
	assert.Equal(t, entity.RouteInventory, h.app.Router.Current())
	assert.Equal(t, entity.RoleOwner, h.app.Sessions.User().Role)
}

func TestSignIn_Rejected(t *testing.T) {
	h := newHarness(t, 0)
	ctx := context.Background()
	before := h.app.Router.Current()

	err := h.app.SignIn(ctx, "nobody", "pw")
	require.Error(t, err)
	assert.True(t, AuthFailure(err))
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, before, h.app.Router.Current())
	assert.False(t, h.app.Sessions.Current().Authenticated())

	assert.ErrorIs(t, h.app.SignIn(ctx, " ", "pw"), ErrMissingCredentials)
	assert.Error(t, h.app.SignUp(ctx, "x", "pw", "ADMIN"))
}

func TestOpen_GuardsRoutes(t *testing.T) {
	h := newHarness(t, 0)
	ctx := context.Background()

	landed, err := h.app.Open(ctx, entity.RouteCart)
	require.NoError(t, err)
	assert.Equal(t, entity.RouteLogin, landed)

	require.NoError(t, h.app.SignUp(ctx, "alice", "pw", entity.RoleClient))
	landed, err = h.app.Open(ctx, entity.RouteInventory)
	require.NoError(t, err)
	assert.Equal(t, entity.RouteProducts, landed)

	landed, err = h.app.Open(ctx, entity.RouteCart)
	require.NoError(t, err)
	assert.Equal(t, entity.RouteCart, landed)
}

func TestCheckout_PaidEndToEnd(t *testing.T) {
	h := newHarness(t, 0)
	ctx := context.Background()
	require.NoError(t, h.app.SignUp(ctx, "alice", "pw", entity.RoleClient))
	h.fillCart(t, 2)

	res, err := h.app.Checkout.Submit(ctx)
	require.NoError(t, err)

	assert.NotZero(t, res.OrderID)
	assert.Equal(t, entity.ReceiptRoute(res.OrderID), h.app.Router.Current())
	assert.True(t, h.app.Cart.Empty())
	_, found, _ := h.store.Get(ctx, session.KeyCart)
	assert.False(t, found)

	order, err := h.app.Orders.Get(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPaid, order.Status)
	assert.True(t, order.Total.Equal(res.Total))
	require.Len(t, order.Items, 1)

	mine, err := h.app.Orders.ListMine(ctx, h.app.Sessions.User().ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	entries := h.journal.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, journal.StatusStarted, entries[0].Status)
	assert.Equal(t, journal.StatusPaid, entries[1].Status)
	assert.Equal(t, res.OrderID, entries[1].OrderID)

	require.NoError(t, h.app.Orders.Refund(ctx, res.OrderID))
	order, err = h.app.Orders.Get(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusRefunded, order.Status)
}

func TestCheckout_DeclinedKeepsCart(t *testing.T) {
	h := newHarness(t, 10)
	ctx := context.Background()
	require.NoError(t, h.app.SignUp(ctx, "alice", "pw", entity.RoleClient))
	h.fillCart(t, 2)
	screen := h.app.Router.Current()

	_, err := h.app.Checkout.Submit(ctx)

	var payErr *checkout.PaymentError
	require.ErrorAs(t, err, &payErr)
	assert.Contains(t, err.Error(), "no charge was made")
	assert.Equal(t, 1, h.app.Cart.Len())
	assert.Equal(t, screen, h.app.Router.Current())
	assert.False(t, h.app.Checkout.InFlight())
}

func TestLogout_ClearsDurableState(t *testing.T) {
	h := newHarness(t, 0)
	ctx := context.Background()
	require.NoError(t, h.app.SignUp(ctx, "alice", "pw", entity.RoleClient))
	h.fillCart(t, 1)

	require.NoError(t, h.app.Logout(ctx))

	assert.Empty(t, h.store.Keys())
	assert.True(t, h.app.Cart.Empty())
	assert.Equal(t, entity.RouteLogin, h.app.Router.Current())
	assert.False(t, h.app.Sessions.Current().Authenticated())
}

func TestNewWithDeps_RestoresSession(t *testing.T) {
	h := newHarness(t, 0)
	ctx := context.Background()
	require.NoError(t, h.app.SignUp(ctx, "alice", "pw", entity.RoleClient))
	h.fillCart(t, 3)

	again, err := NewWithDeps(ctx, &config.Client{APIBaseURL: "http://unused", HTTPTimeout: time.Second}, Deps{Store: h.store})
	require.NoError(t, err)

	assert.True(t, again.Sessions.Current().Authenticated())
	assert.Equal(t, h.app.Sessions.User().ID, again.Sessions.User().ID)
	assert.Equal(t, 1, again.Cart.Len())
	assert.Nil(t, again.Journal())
}

func TestNewWithDeps_RequiresStore(t *testing.T) {
	_, err := NewWithDeps(context.Background(), &config.Client{}, Deps{})
	assert.Error(t, err)
}
