// Package payment simulates the payment processor. Charges above the
// configured limit are declined; everything else succeeds.
package payment

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/storefront/internal/backend/domain"
)

type Service struct {
	limit decimal.Decimal

	mu       sync.Mutex
	payments map[string]decimal.Decimal
}

// NewService declines any charge strictly greater than limit. A zero limit
// disables declines.
func NewService(limit decimal.Decimal) *Service {
	return &Service{limit: limit, payments: make(map[string]decimal.Decimal)}
}

// Charge records a payment under ref, or returns ErrPaymentDeclined.
func (s *Service) Charge(ctx context.Context, ref string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slog.InfoContext(ctx, "processing charge", "payment_ref", ref, "amount", amount.StringFixed(2))

	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", domain.ErrInvalidInput)
	}
	if s.limit.IsPositive() && amount.GreaterThan(s.limit) {
		slog.WarnContext(ctx, "charge declined", "payment_ref", ref, "amount", amount.StringFixed(2), "limit", s.limit.StringFixed(2))
		return fmt.Errorf("amount %s exceeds limit: %w", amount.StringFixed(2), domain.ErrPaymentDeclined)
	}
	if _, dup := s.payments[ref]; dup {
		return fmt.Errorf("payment %s: %w", ref, domain.ErrConflict)
	}

	s.payments[ref] = amount
	return nil
}

// Refund reverses the payment under ref. Refunding an unknown ref succeeds.
func (s *Service) Refund(ctx context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	amount, ok := s.payments[ref]
	if !ok {
		slog.WarnContext(ctx, "no payment to refund", "payment_ref", ref)
		return nil
	}
	delete(s.payments, ref)
	slog.InfoContext(ctx, "payment refunded", "payment_ref", ref, "amount", amount.StringFixed(2))
	return nil
}

// Rekey moves a payment to a new reference once the order id is known.
func (s *Service) Rekey(oldRef, newRef string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if amount, ok := s.payments[oldRef]; ok {
		delete(s.payments, oldRef)
		s.payments[newRef] = amount
	}
}

// Charged reports whether a payment is held under ref.
func (s *Service) Charged(ref string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.payments[ref]
	return ok
}
