// Package inventory is the backend's product catalog and stock keeper.
// Reservations are all-or-nothing and keyed by the saga that made them.
package inventory

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/storefront/internal/backend/domain"
)

type Service struct {
	mu           sync.Mutex
	products     map[int64]*domain.Product
	nextID       int64
	reservations map[string][]domain.StockItem
}

func NewService(seed ...domain.Product) *Service {
	s := &Service{
		products:     make(map[int64]*domain.Product),
		reservations: make(map[string][]domain.StockItem),
	}
	for _, p := range seed {
		if p.ID == 0 {
			s.nextID++
			p.ID = s.nextID
		} else if p.ID > s.nextID {
			s.nextID = p.ID
		}
		s.products[p.ID] = &p
	}
	return s
}

// DefaultProducts is the catalog a fresh backend starts with.
func DefaultProducts() []domain.Product {
	return []domain.Product{
		{Name: "Espresso Beans 1kg", Price: decimal.RequireFromString("24.90"), Stock: 15},
		{Name: "Ceramic Mug", Price: decimal.RequireFromString("10.00"), Stock: 40},
		{Name: "Pour-over Kettle", Price: decimal.RequireFromString("59.00"), Stock: 5},
		{Name: "Paper Filters (100)", Price: decimal.RequireFromString("5.00"), Stock: 0},
	}
}

// List returns every product ordered by id.
func (s *Service) List(context.Context) []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b domain.Product) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (s *Service) Get(_ context.Context, id int64) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}
	return *p, nil
}

func (s *Service) Add(ctx context.Context, name string, price decimal.Decimal, stock int) (domain.Product, error) {
	if name == "" || price.IsNegative() || stock < 0 {
		return domain.Product{}, fmt.Errorf("%w: name, price and stock must be valid", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p := &domain.Product{ID: s.nextID, Name: name, Price: price, Stock: stock}
	s.products[p.ID] = p
	slog.InfoContext(ctx, "product added", "product_id", p.ID, "name", name)
	return *p, nil
}

func (s *Service) UpdatePrice(ctx context.Context, id int64, price decimal.Decimal) (domain.Product, error) {
	if price.IsNegative() {
		return domain.Product{}, fmt.Errorf("%w: negative price", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}
	p.Price = price
	slog.InfoContext(ctx, "price updated", "product_id", id, "price", price.String())
	return *p, nil
}

func (s *Service) Refill(ctx context.Context, id int64, qty int) (domain.Product, error) {
	if qty <= 0 {
		return domain.Product{}, fmt.Errorf("%w: qty must be positive", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}
	p.Stock += qty
	slog.InfoContext(ctx, "stock refilled", "product_id", id, "qty", qty, "stock", p.Stock)
	return *p, nil
}

// Reserve takes stock for every item or for none. The reservation is
// remembered under key so Release can undo it.
func (s *Service) Reserve(ctx context.Context, key string, items []domain.StockItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.reservations[key]; dup {
		return fmt.Errorf("reservation %s: %w", key, domain.ErrConflict)
	}

	need := make(map[int64]int, len(items))
	for _, it := range items {
		need[it.ProductID] += it.Quantity
	}
	for id, qty := range need {
		p, ok := s.products[id]
		if !ok {
			return fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
		}
		if p.Stock < qty {
			slog.WarnContext(ctx, "insufficient stock", "product_id", id, "available", p.Stock, "requested", qty)
			return fmt.Errorf("product %d: %w", id, domain.ErrOutOfStock)
		}
	}

	for id, qty := range need {
		s.products[id].Stock -= qty
	}
	s.reservations[key] = slices.Clone(items)
	slog.InfoContext(ctx, "stock reserved", "reservation", key, "items", len(items))
	return nil
}

// Release returns the stock held under key. Releasing an unknown key is a no-op.
func (s *Service) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, ok := s.reservations[key]
	if !ok {
		slog.WarnContext(ctx, "no reservation to release", "reservation", key)
		return nil
	}
	s.restock(items)
	delete(s.reservations, key)
	slog.InfoContext(ctx, "stock released", "reservation", key)
	return nil
}

// Commit forgets the reservation under key; the stock stays taken.
func (s *Service) Commit(_ context.Context, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reservations, key)
}

// Restock puts items back on the shelf, e.g. after a refund.
func (s *Service) Restock(ctx context.Context, items []domain.StockItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restock(items)
	slog.InfoContext(ctx, "stock restored", "items", len(items))
}

func (s *Service) restock(items []domain.StockItem) {
	for _, it := range items {
		if p, ok := s.products[it.ProductID]; ok {
			p.Stock += it.Quantity
		}
	}
}
