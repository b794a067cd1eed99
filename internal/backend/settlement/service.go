// Package settlement turns a checkout request into a PAID or FAILED order
// through a saga (reserve stock, charge, confirm) and reverses PAID orders
// on refund. Prices always come from the current catalog.
package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jcmexdev/storefront/internal/backend/domain"
	"github.com/jcmexdev/storefront/internal/backend/inventory"
	"github.com/jcmexdev/storefront/internal/backend/orders"
	"github.com/jcmexdev/storefront/internal/backend/payment"
	"github.com/jcmexdev/storefront/internal/backend/saga"
	"github.com/jcmexdev/storefront/internal/backend/saga/sagalog"
)

type Request struct {
	UserID string             `json:"user_id"`
	Items  []domain.StockItem `json:"items"`
}

type Result struct {
	OrderID int64
	Status  domain.OrderStatus
	Total   decimal.Decimal
}

// Observer is told about every settled checkout, e.g. to update metrics.
type Observer func(status domain.OrderStatus, total decimal.Decimal)

type Service struct {
	inventory *inventory.Service
	payment   *payment.Service
	orders    *orders.Repository
	sagaLog   sagalog.Repository
	observe   Observer

	mu   sync.Mutex
	seen map[string]*attempt
}

// attempt is a checkout claimed by an idempotency key. done is closed once
// res and err are final.
type attempt struct {
	done chan struct{}
	res  Result
	err  error
}

// NewService wires the saga collaborators. sagaLog and observe may be nil.
func NewService(inv *inventory.Service, pay *payment.Service, repo *orders.Repository, sagaLog sagalog.Repository, observe Observer) *Service {
	return &Service{
		inventory: inv,
		payment:   pay,
		orders:    repo,
		sagaLog:   sagaLog,
		observe:   observe,
		seen:      make(map[string]*attempt),
	}
}

// Checkout settles req. A declined payment is not an error: it yields a
// FAILED order with its stock released. Repeating a call with the same
// idempotency key returns the first result without settling again; a repeat
// that arrives while the first is still running waits for it. A key whose
// attempt errored is released for retry.
func (s *Service) Checkout(ctx context.Context, idempotencyKey string, req Request) (Result, error) {
	if req.UserID == "" || len(req.Items) == 0 {
		return Result{}, fmt.Errorf("%w: user_id and items are required", domain.ErrInvalidInput)
	}
	for _, it := range req.Items {
		if it.ProductID <= 0 || it.Quantity <= 0 {
			return Result{}, fmt.Errorf("%w: product_id and qty must be positive", domain.ErrInvalidInput)
		}
	}

	if idempotencyKey == "" {
		return s.settle(ctx, uuid.NewString(), req)
	}

	s.mu.Lock()
	if prev, ok := s.seen[idempotencyKey]; ok {
		s.mu.Unlock()
		select {
		case <-prev.done:
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
		if prev.err != nil {
			return Result{}, prev.err
		}
		slog.InfoContext(ctx, "replaying checkout", "idempotency_key", idempotencyKey, "order_id", prev.res.OrderID)
		return prev.res, nil
	}
	cur := &attempt{done: make(chan struct{})}
	s.seen[idempotencyKey] = cur
	s.mu.Unlock()

	cur.res, cur.err = s.settle(ctx, idempotencyKey, req)
	if cur.err != nil {
		s.mu.Lock()
		delete(s.seen, idempotencyKey)
		s.mu.Unlock()
	}
	close(cur.done)
	return cur.res, cur.err
}

func (s *Service) settle(ctx context.Context, sagaID string, req Request) (Result, error) {
	lines, total, err := s.price(ctx, req.Items)
	if err != nil {
		return Result{}, err
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return Result{}, fmt.Errorf("settlement: encode saga payload: %w", err)
	}

	confirm := &confirmStep{
		orders:    s.orders,
		inventory: s.inventory,
		payment:   s.payment,
		sagaID:    sagaID,
		userID:    req.UserID,
		items:     lines,
		total:     total,
	}
	steps := []saga.Step{
		&reserveStep{inventory: s.inventory, sagaID: sagaID, items: req.Items},
		&chargeStep{payment: s.payment, sagaID: sagaID, amount: total},
		confirm,
	}

	var res Result
	err = saga.NewOrchestrator(sagaID, string(payload), steps, s.sagaLog).Start(ctx)
	switch {
	case err == nil:
		res = Result{OrderID: confirm.order.ID, Status: domain.StatusPaid, Total: total}
	case errors.Is(err, domain.ErrPaymentDeclined):
		failed := s.orders.Create(ctx, domain.Order{UserID: req.UserID, Status: domain.StatusFailed, Total: total})
		res = Result{OrderID: failed.ID, Status: domain.StatusFailed, Total: total}
	default:
		return Result{}, err
	}

	slog.InfoContext(ctx, "checkout settled", "saga_id", sagaID, "order_id", res.OrderID, "status", res.Status, "total", total.StringFixed(2))
	if s.observe != nil {
		s.observe(res.Status, res.Total)
	}
	return res, nil
}

// Refund moves a PAID order to REFUNDED, returns the payment and puts the
// stock back.
func (s *Service) Refund(ctx context.Context, orderID int64) (domain.Order, error) {
	order, err := s.orders.Transition(ctx, orderID, domain.StatusPaid, domain.StatusRefunded)
	if err != nil {
		return domain.Order{}, err
	}
	if err := s.payment.Refund(ctx, paymentRef(orderID)); err != nil {
		slog.ErrorContext(ctx, "CRITICAL: order refunded but payment reversal failed", "order_id", orderID, "error", err)
		return domain.Order{}, err
	}
	s.inventory.Restock(ctx, order.StockItems())
	slog.InfoContext(ctx, "order refunded", "order_id", orderID, "total", order.Total.StringFixed(2))
	if s.observe != nil {
		s.observe(domain.StatusRefunded, order.Total)
	}
	return order, nil
}

func (s *Service) price(ctx context.Context, items []domain.StockItem) ([]domain.OrderItem, decimal.Decimal, error) {
	total := decimal.Zero
	lines := make([]domain.OrderItem, len(items))
	for i, it := range items {
		p, err := s.inventory.Get(ctx, it.ProductID)
		if err != nil {
			return nil, decimal.Zero, err
		}
		lineTotal := p.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		lines[i] = domain.OrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Qty:         it.Quantity,
			Price:       p.Price,
			LineTotal:   lineTotal,
		}
		total = total.Add(lineTotal)
	}
	return lines, total, nil
}
