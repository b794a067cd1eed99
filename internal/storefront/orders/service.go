// Package orders fetches order lists and receipts and issues refunds. It
// holds no order state: statuses are only ever what the server last said.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/storefront/internal/storefront/core/ports"
)

var (
	ErrOrderNotFound    = errors.New("orders: order not found")
	ErrRefundInProgress = errors.New("orders: a refund is already being processed")
	ErrInvalidOrderID   = errors.New("orders: invalid order id")
)

type Service struct {
	api ports.OrderAPI

	mu         sync.Mutex
	processing map[int64]bool
}

func NewService(api ports.OrderAPI) *Service {
	return &Service{api: api, processing: make(map[int64]bool)}
}

// ListMine returns the user's orders without line items.
func (s *Service) ListMine(ctx context.Context, userID string) ([]entity.Order, error) {
	list, err := s.api.ListOrders(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("orders: list for user %s: %w", userID, err)
	}
	return list, nil
}

// ListAll returns every order. Callers restrict this to owners.
func (s *Service) ListAll(ctx context.Context) ([]entity.Order, error) {
	list, err := s.api.ListAllOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("orders: list all: %w", err)
	}
	return list, nil
}

// Get returns an order with its lines. ports.ErrNotFound, an empty body, or
// a body without a valid identifier all mean ErrOrderNotFound.
func (s *Service) Get(ctx context.Context, orderID int64) (*entity.Order, error) {
	if orderID <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOrderID, orderID)
	}

	order, err := s.api.GetOrder(ctx, orderID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrOrderNotFound, orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("orders: get %d: %w", orderID, err)
	}
	if order == nil || order.ID <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrOrderNotFound, orderID)
	}
	return order, nil
}

// Refund asks the server to refund orderID. While a refund for the same
// order is outstanding further calls return ErrRefundInProgress. Nothing is
// changed locally; re-fetch to observe the new status.
func (s *Service) Refund(ctx context.Context, orderID int64) error {
	if orderID <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidOrderID, orderID)
	}
	if !s.begin(orderID) {
		return ErrRefundInProgress
	}
	defer s.end(orderID)

	if err := s.api.Refund(ctx, orderID); err != nil {
		slog.WarnContext(ctx, "refund failed", "order_id", orderID, "error", err)
		return fmt.Errorf("orders: refund %d: %w", orderID, err)
	}
	slog.InfoContext(ctx, "refund accepted", "order_id", orderID)
	return nil
}

// Processing reports whether a refund for orderID is outstanding.
func (s *Service) Processing(orderID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processing[orderID]
}

func (s *Service) begin(orderID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.processing[orderID] {
		return false
	}
	s.processing[orderID] = true
	return true
}

func (s *Service) end(orderID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.processing, orderID)
}

// Refundable reports whether the owner screen should offer a refund.
func Refundable(o entity.Order) bool {
	return o.Status == entity.StatusPaid
}

// Summarize computes the revenue breakdown shown on the all-orders screen.
func Summarize(list []entity.Order) entity.RevenueMetrics {
	m := entity.RevenueMetrics{
		TotalRevenue:   decimal.Zero,
		RefundedAmount: decimal.Zero,
	}
	for _, o := range list {
		switch o.Status {
		case entity.StatusPaid:
			m.PaidOrders++
			m.TotalRevenue = m.TotalRevenue.Add(o.Total)
		case entity.StatusRefunded:
			m.RefundedOrders++
			m.RefundedAmount = m.RefundedAmount.Add(o.Total)
		case entity.StatusFailed:
			m.FailedOrders++
		}
	}
	m.NetRevenue = m.TotalRevenue.Sub(m.RefundedAmount)
	return m
}

// TotalItems sums the line quantities of an order fetched by identifier.
func TotalItems(o entity.Order) int {
	n := 0
	for _, l := range o.Items {
		n += l.Qty
	}
	return n
}
