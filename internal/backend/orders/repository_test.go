package orders

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront/internal/backend/domain"
)

func TestCreateAndQuery(t *testing.T) {
	r := NewRepository()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }
	ctx := context.Background()

	a := r.Create(ctx, domain.Order{UserID: "1", Status: domain.StatusPaid, Total: decimal.NewFromInt(25),
		Items: []domain.OrderItem{{ProductID: 1, Qty: 2}}})
	b := r.Create(ctx, domain.Order{UserID: "2", Status: domain.StatusFailed})
	c := r.Create(ctx, domain.Order{UserID: "1", Status: domain.StatusFailed})

	assert.Equal(t, []int64{1, 2, 3}, []int64{a.ID, b.ID, c.ID})
	assert.Equal(t, fixed, a.CreatedAt)

	mine := r.ListByUser(ctx, "1")
	require.Len(t, mine, 2)
	assert.Equal(t, int64(1), mine[0].ID)
	assert.Equal(t, int64(3), mine[1].ID)
	assert.Len(t, r.ListAll(ctx), 3)

	got, err := r.Get(ctx, 1)
	require.NoError(t, err)
	got.Items[0].Qty = 99
	again, _ := r.Get(ctx, 1)
	assert.Equal(t, 2, again.Items[0].Qty)

	_, err = r.Get(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransition(t *testing.T) {
	r := NewRepository()
	ctx := context.Background()
	o := r.Create(ctx, domain.Order{UserID: "1", Status: domain.StatusPaid})

	updated, err := r.Transition(ctx, o.ID, domain.StatusPaid, domain.StatusRefunded)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRefunded, updated.Status)

	_, err = r.Transition(ctx, o.ID, domain.StatusPaid, domain.StatusRefunded)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = r.Transition(ctx, 7, domain.StatusPaid, domain.StatusRefunded)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
