package settlement

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/storefront/internal/backend/domain"
	"github.com/jcmexdev/storefront/internal/backend/inventory"
	"github.com/jcmexdev/storefront/internal/backend/orders"
	"github.com/jcmexdev/storefront/internal/backend/payment"
)

// --- reserveStep ---

type reserveStep struct {
	inventory *inventory.Service
	sagaID    string
	items     []domain.StockItem
}

func (s *reserveStep) Name() string { return "reserve_stock" }

func (s *reserveStep) Execute(ctx context.Context) error {
	if err := s.inventory.Reserve(ctx, s.sagaID, s.items); err != nil {
		return fmt.Errorf("reserve stock: %w", err)
	}
	return nil
}

func (s *reserveStep) Compensate(ctx context.Context) error {
	return s.inventory.Release(ctx, s.sagaID)
}

// --- chargeStep ---

type chargeStep struct {
	payment *payment.Service
	sagaID  string
	amount  decimal.Decimal
}

func (s *chargeStep) Name() string { return "charge_payment" }

func (s *chargeStep) Execute(ctx context.Context) error {
	if err := s.payment.Charge(ctx, s.sagaID, s.amount); err != nil {
		return fmt.Errorf("charge payment: %w", err)
	}
	return nil
}

func (s *chargeStep) Compensate(ctx context.Context) error {
	return s.payment.Refund(ctx, s.sagaID)
}

// --- confirmStep ---

// confirmStep records the PAID order with its server-priced lines. It is the
// last step, so it has nothing to compensate.
type confirmStep struct {
	orders    *orders.Repository
	inventory *inventory.Service
	payment   *payment.Service
	sagaID    string
	userID    string
	items     []domain.OrderItem
	total     decimal.Decimal

	order domain.Order
}

func (s *confirmStep) Name() string { return "confirm_order" }

func (s *confirmStep) Execute(ctx context.Context) error {
	s.order = s.orders.Create(ctx, domain.Order{
		UserID: s.userID,
		Status: domain.StatusPaid,
		Total:  s.total,
		Items:  s.items,
	})
	s.inventory.Commit(ctx, s.sagaID)
	s.payment.Rekey(s.sagaID, paymentRef(s.order.ID))
	return nil
}

func (s *confirmStep) Compensate(context.Context) error {
	return nil
}

// paymentRef is the key a settled order's payment is kept under.
func paymentRef(orderID int64) string {
	return fmt.Sprintf("order-%d", orderID)
}
