// Package orders stores settled orders in memory and enforces the status
// transitions the backend allows.
package orders

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jcmexdev/storefront/internal/backend/domain"
)

type Repository struct {
	mu     sync.RWMutex
	orders map[int64]*domain.Order
	nextID int64
	now    func() time.Time
}

func NewRepository() *Repository {
	return &Repository{orders: make(map[int64]*domain.Order), now: time.Now}
}

// Create stores o under a new sequential id and returns the stored copy.
func (r *Repository) Create(_ context.Context, o domain.Order) domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	o.ID = r.nextID
	o.CreatedAt = r.now().UTC()
	o.Items = slices.Clone(o.Items)
	r.orders[o.ID] = &o
	return clone(&o)
}

func (r *Repository) Get(_ context.Context, id int64) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.Order{}, fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
	}
	return clone(o), nil
}

// ListByUser returns the user's orders, oldest first.
func (r *Repository) ListByUser(_ context.Context, userID string) []domain.Order {
	return r.list(func(o *domain.Order) bool { return o.UserID == userID })
}

func (r *Repository) ListAll(context.Context) []domain.Order {
	return r.list(func(*domain.Order) bool { return true })
}

// Transition moves order id from one status to another. Any other current
// status yields ErrInvalidTransition.
func (r *Repository) Transition(_ context.Context, id int64, from, to domain.OrderStatus) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.Order{}, fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
	}
	if o.Status != from {
		return domain.Order{}, fmt.Errorf("order %d is %s, not %s: %w", id, o.Status, from, domain.ErrInvalidTransition)
	}
	o.Status = to
	return clone(o), nil
}

func (r *Repository) list(keep func(*domain.Order) bool) []domain.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if keep(o) {
			out = append(out, clone(o))
		}
	}
	slices.SortFunc(out, func(a, b domain.Order) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func clone(o *domain.Order) domain.Order {
	c := *o
	c.Items = slices.Clone(o.Items)
	return c
}
