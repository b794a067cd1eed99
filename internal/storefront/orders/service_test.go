package orders

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/storefront/internal/storefront/core/ports"
)

type fakeAPI struct {
	orders    []entity.Order
	order     *entity.Order
	err       error
	refundErr error
	refund    func(ctx context.Context, id int64) error
	userIDs   []string
}

func (f *fakeAPI) ListOrders(_ context.Context, userID string) ([]entity.Order, error) {
	f.userIDs = append(f.userIDs, userID)
	return f.orders, f.err
}

func (f *fakeAPI) ListAllOrders(context.Context) ([]entity.Order, error) {
	return f.orders, f.err
}

func (f *fakeAPI) GetOrder(context.Context, int64) (*entity.Order, error) {
	return f.order, f.err
}

func (f *fakeAPI) Refund(ctx context.Context, id int64) error {
	if f.refund != nil {
		return f.refund(ctx, id)
	}
	return f.refundErr
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestListMine(t *testing.T) {
	api := &fakeAPI{orders: []entity.Order{{ID: 1, Status: entity.StatusPaid}}}
	s := NewService(api)

	list, err := s.ListMine(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, []string{"u-1"}, api.userIDs)

	cause := errors.New("token expired")
	api.err = cause
	_, err = s.ListAll(context.Background())
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "token expired")
}

func TestGet(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		s := NewService(&fakeAPI{order: &entity.Order{ID: 77, Items: []entity.OrderLine{{Qty: 2}, {Qty: 1}}}})
		o, err := s.Get(ctx, 77)
		require.NoError(t, err)
		assert.Equal(t, int64(77), o.ID)
		assert.Equal(t, 3, TotalItems(*o))
	})

	t.Run("body without identifier", func(t *testing.T) {
		s := NewService(&fakeAPI{order: &entity.Order{}})
		_, err := s.Get(ctx, 77)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("not found", func(t *testing.T) {
		s := NewService(&fakeAPI{err: fmt.Errorf("order 77: %w", ports.ErrNotFound)})
		_, err := s.Get(ctx, 77)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("server error", func(t *testing.T) {
		s := NewService(&fakeAPI{err: errors.New("boom")})
		_, err := s.Get(ctx, 77)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("invalid id", func(t *testing.T) {
		s := NewService(&fakeAPI{})
		_, err := s.Get(ctx, 0)
		assert.ErrorIs(t, err, ErrInvalidOrderID)
	})
}

func TestRefund_ProcessingFlag(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	api := &fakeAPI{refund: func(context.Context, int64) error {
		close(entered)
		<-release
		return nil
	}}
	s := NewService(api)

	done := make(chan error, 1)
	go func() { done <- s.Refund(context.Background(), 5) }()
	<-entered

	assert.True(t, s.Processing(5))
	assert.ErrorIs(t, s.Refund(context.Background(), 5), ErrRefundInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, s.Processing(5))
}

func TestRefund_FailureReleasesFlag(t *testing.T) {
	api := &fakeAPI{refundErr: errors.New("Only PAID orders can be refunded")}
	s := NewService(api)

	err := s.Refund(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Only PAID orders can be refunded")
	assert.False(t, s.Processing(5))

	api.refundErr = nil
	assert.NoError(t, s.Refund(context.Background(), 5))
	assert.ErrorIs(t, s.Refund(context.Background(), -1), ErrInvalidOrderID)
}

func TestRefund_TransportError(t *testing.T) {
	cause := errors.New("connection reset")
	s := NewService(&fakeAPI{refundErr: cause})
	assert.ErrorIs(t, s.Refund(context.Background(), 9), cause)
}

func TestSummarize(t *testing.T) {
	m := Summarize([]entity.Order{
		{ID: 1, Status: entity.StatusPaid, Total: money("25.00")},
		{ID: 2, Status: entity.StatusPaid, Total: money("10.50")},
		{ID: 3, Status: entity.StatusRefunded, Total: money("5.25")},
		{ID: 4, Status: entity.StatusFailed, Total: money("900")},
		{ID: 5, Status: entity.StatusPending, Total: money("1")},
	})

	assert.Equal(t, "35.50", m.TotalRevenue.StringFixed(2))
	assert.Equal(t, "5.25", m.RefundedAmount.StringFixed(2))
	assert.Equal(t, "30.25", m.NetRevenue.StringFixed(2))
	assert.Equal(t, 2, m.PaidOrders)
	assert.Equal(t, 1, m.RefundedOrders)
	assert.Equal(t, 1, m.FailedOrders)

	empty := Summarize(nil)
	assert.True(t, empty.NetRevenue.IsZero())
}

func TestRefundable(t *testing.T) {
	assert.True(t, Refundable(entity.Order{Status: entity.StatusPaid}))
	assert.False(t, Refundable(entity.Order{Status: entity.StatusRefunded}))
	assert.False(t, Refundable(entity.Order{Status: entity.StatusFailed}))
}
