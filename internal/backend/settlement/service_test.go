package settlement

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront/internal/backend/domain"
	"github.com/jcmexdev/storefront/internal/backend/inventory"
	"github.com/jcmexdev/storefront/internal/backend/orders"
	"github.com/jcmexdev/storefront/internal/backend/payment"
	"github.com/jcmexdev/storefront/internal/backend/saga/sagalog"
)

type fixture struct {
	inv      *inventory.Service
	pay      *payment.Service
	repo     *orders.Repository
	svc      *Service
	observed []domain.OrderStatus
}

func newFixture(limit int64) *fixture {
	f := &fixture{
		inv: inventory.NewService(
			domain.Product{Name: "A", Price: decimal.RequireFromString("10.00"), Stock: 5},
			domain.Product{Name: "B", Price: decimal.RequireFromString("5.00"), Stock: 1},
		),
		pay:  payment.NewService(decimal.NewFromInt(limit)),
		repo: orders.NewRepository(),
	}
	f.svc = NewService(f.inv, f.pay, f.repo, nil, func(s domain.OrderStatus, _ decimal.Decimal) {
		f.observed = append(f.observed, s)
	})
	return f
}

func (f *fixture) stock(t *testing.T, id int64) int {
	t.Helper()
	p, err := f.inv.Get(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func TestCheckout_Paid(t *testing.T) {
	f := newFixture(500)
	ctx := context.Background()

	res, err := f.svc.Checkout(ctx, "key-1", Request{UserID: "7", Items: []domain.StockItem{
		{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1},
	}})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPaid, res.Status)
	assert.Equal(t, "25.00", res.Total.StringFixed(2))
	assert.Equal(t, 3, f.stock(t, 1))
	assert.Equal(t, 0, f.stock(t, 2))
	assert.True(t, f.pay.Charged(paymentRef(res.OrderID)))
	assert.False(t, f.pay.Charged("key-1"))

	order, err := f.repo.Get(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "7", order.UserID)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "A", order.Items[0].ProductName)
	assert.Equal(t, "20", order.Items[0].LineTotal.String())
	assert.Equal(t, []domain.OrderStatus{domain.StatusPaid}, f.observed)
}

func TestCheckout_DeclinedYieldsFailedOrder(t *testing.T) {
	f := newFixture(15)
	ctx := context.Background()

	res, err := f.svc.Checkout(ctx, "key-1", Request{UserID: "7", Items: []domain.StockItem{{ProductID: 1, Quantity: 2}}})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusFailed, res.Status)
	assert.NotZero(t, res.OrderID)
	assert.Equal(t, 5, f.stock(t, 1))
	assert.False(t, f.pay.Charged("key-1"))

	order, err := f.repo.Get(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, order.Status)
	assert.Empty(t, order.Items)
}

func TestCheckout_Errors(t *testing.T) {
	f := newFixture(0)
	ctx := context.Background()

	_, err := f.svc.Checkout(ctx, "", Request{UserID: "7", Items: []domain.StockItem{{ProductID: 2, Quantity: 2}}})
	assert.ErrorIs(t, err, domain.ErrOutOfStock)
	assert.Equal(t, 1, f.stock(t, 2))

	_, err = f.svc.Checkout(ctx, "", Request{UserID: "7", Items: []domain.StockItem{{ProductID: 99, Quantity: 1}}})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Checkout(ctx, "", Request{UserID: "7"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.Checkout(ctx, "", Request{UserID: "7", Items: []domain.StockItem{{ProductID: 1, Quantity: 0}}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.Empty(t, f.repo.ListAll(ctx))
	assert.Empty(t, f.observed)
}

func TestCheckout_ReplaysIdempotencyKey(t *testing.T) {
	f := newFixture(0)
	ctx := context.Background()
	req := Request{UserID: "7", Items: []domain.StockItem{{ProductID: 1, Quantity: 1}}}

	first, err := f.svc.Checkout(ctx, "key-1", req)
	require.NoError(t, err)
	again, err := f.svc.Checkout(ctx, "key-1", req)
	require.NoError(t, err)

	assert.Equal(t, first, again)
	assert.Equal(t, 4, f.stock(t, 1))
	assert.Len(t, f.repo.ListAll(ctx), 1)

	other, err := f.svc.Checkout(ctx, "key-2", req)
	require.NoError(t, err)
	assert.NotEqual(t, first.OrderID, other.OrderID)
}

// gatedLog holds the first STARTED entry until release is closed.
type gatedLog struct {
	mu      sync.Mutex
	started int
	entered chan struct{}
	release chan struct{}
}

func (g *gatedLog) Save(_ context.Context, e *sagalog.SagaLog) error {
	if e.Status != sagalog.StatusStarted {
		return nil
	}
	g.mu.Lock()
	g.started++
	first := g.started == 1
	g.mu.Unlock()
	if first {
		close(g.entered)
		<-g.release
	}
	return nil
}

func (g *gatedLog) startedCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.started
}

func TestCheckout_ConcurrentSameKeySettlesOnce(t *testing.T) {
	f := newFixture(0)
	log := &gatedLog{entered: make(chan struct{}), release: make(chan struct{})}
	f.svc = NewService(f.inv, f.pay, f.repo, log, nil)
	ctx := context.Background()
	req := Request{UserID: "7", Items: []domain.StockItem{{ProductID: 1, Quantity: 2}}}

	type outcome struct {
		res Result
		err error
	}
	results := make(chan outcome, 2)
	checkout := func() {
		res, err := f.svc.Checkout(ctx, "key-1", req)
		results <- outcome{res, err}
	}

	go checkout()
	<-log.entered
	go checkout()
	assert.Never(t, func() bool { return log.startedCount() > 1 || len(results) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
	close(log.release)

	first, second := <-results, <-results
	require.NoError(t, first.err)
	require.NoError(t, second.err)
	assert.Equal(t, first.res, second.res)
	assert.Equal(t, domain.StatusPaid, first.res.Status)
	assert.Equal(t, 1, log.startedCount())
	assert.Len(t, f.repo.ListAll(ctx), 1)
	assert.Equal(t, 3, f.stock(t, 1))
}

func TestCheckout_ErroredKeyCanRetry(t *testing.T) {
	f := newFixture(0)
	ctx := context.Background()

	_, err := f.svc.Checkout(ctx, "key-1", Request{UserID: "7", Items: []domain.StockItem{{ProductID: 99, Quantity: 1}}})
	require.Error(t, err)

	res, err := f.svc.Checkout(ctx, "key-1", Request{UserID: "7", Items: []domain.StockItem{{ProductID: 1, Quantity: 1}}})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, res.Status)
}

func TestRefund(t *testing.T) {
	f := newFixture(0)
	ctx := context.Background()
	res, err := f.svc.Checkout(ctx, "key-1", Request{UserID: "7", Items: []domain.StockItem{{ProductID: 1, Quantity: 3}}})
	require.NoError(t, err)
	require.Equal(t, 2, f.stock(t, 1))

	order, err := f.svc.Refund(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRefunded, order.Status)
	assert.Equal(t, 5, f.stock(t, 1))
	assert.False(t, f.pay.Charged(paymentRef(res.OrderID)))

	_, err = f.svc.Refund(ctx, res.OrderID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, 5, f.stock(t, 1))

	_, err = f.svc.Refund(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, []domain.OrderStatus{domain.StatusPaid, domain.StatusRefunded}, f.observed)
}
