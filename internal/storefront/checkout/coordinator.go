// Package checkout submits the cart for settlement. The cart is cleared if
// and only if the server reports the order PAID; every other outcome leaves
// it untouched and reports that no charge was made.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jcmexdev/storefront/internal/pkg/requestmeta"
	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/storefront/internal/storefront/core/ports"
	"github.com/jcmexdev/storefront/internal/storefront/journal"
)

var (
	ErrNotAuthenticated = errors.New("checkout: no authenticated user")
	ErrEmptyCart        = errors.New("checkout: cart is empty")
	ErrInFlight         = errors.New("checkout: a submission is already in progress")
)

// PaymentError reports a submission that did not end in PAID. Either Status
// holds the server's answer or Cause holds the transport/HTTP failure.
type PaymentError struct {
	OrderID int64
	Status  entity.OrderStatus
	Cause   error
}

func (e *PaymentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("payment could not be completed, no charge was made: %v", e.Cause)
	}
	return fmt.Sprintf("payment was not approved (status %s), no charge was made", e.Status)
}

func (e *PaymentError) Unwrap() error {
	return e.Cause
}

// Sessions is the part of the session manager checkout reads.
type Sessions interface {
	User() *entity.User
}

// Cart is the part of the cart store checkout reads and clears.
type Cart interface {
	Lines() []entity.CartLine
	Clear(ctx context.Context) error
}

// Result describes a PAID checkout.
type Result struct {
	AttemptID string
	OrderID   int64
	Total     decimal.Decimal
	Receipt   entity.Route
}

type Coordinator struct {
	sessions Sessions
	cart     Cart
	api      ports.CheckoutAPI
	nav      ports.Navigator
	journal  journal.Recorder

	inFlight atomic.Bool
}

// NewCoordinator wires a coordinator. rec may be nil.
func NewCoordinator(sessions Sessions, cart Cart, api ports.CheckoutAPI, nav ports.Navigator, rec journal.Recorder) *Coordinator {
	return &Coordinator{
		sessions: sessions,
		cart:     cart,
		api:      api,
		nav:      nav,
		journal:  rec,
	}
}

// InFlight reports whether a submission is outstanding.
func (c *Coordinator) InFlight() bool {
	return c.inFlight.Load()
}

// Submit sends the cart for settlement. A second call while one is
// outstanding returns ErrInFlight without contacting the server.
//
// On PAID the cart is cleared before navigating to the receipt. A failure to
// clear or navigate after PAID is returned together with a non-nil Result:
// the charge went through and the order identifier is still usable.
func (c *Coordinator) Submit(ctx context.Context) (*Result, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return nil, ErrInFlight
	}
	defer c.inFlight.Store(false)

	user := c.sessions.User()
	if user == nil {
		return nil, ErrNotAuthenticated
	}
	lines := c.cart.Lines()
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	attemptID := uuid.NewString()
	ctx = requestmeta.WithIdempotencyKey(ctx, attemptID)
	ctx, span := otel.Tracer("storefront/checkout").Start(ctx, "checkout.Submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("checkout.attempt_id", attemptID),
		attribute.String("user.id", user.ID),
		attribute.Int("checkout.lines", len(lines)),
	)

	req := entity.CheckoutRequest{UserID: user.ID, Items: make([]entity.CheckoutItem, len(lines))}
	cartTotal := decimal.Zero
	for i, l := range lines {
		req.Items[i] = entity.CheckoutItem{ProductID: l.ProductID, Qty: l.Quantity}
		cartTotal = cartTotal.Add(l.Subtotal())
	}

	c.record(ctx, attemptID, user.ID, journal.StatusStarted, func(e *journal.Entry) {
		e.Total = cartTotal.StringFixed(2)
		e.Lines = len(lines)
	})

	res, err := c.api.Checkout(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "checkout request failed")
		c.record(ctx, attemptID, user.ID, journal.StatusError, func(e *journal.Entry) {
			e.Error = err.Error()
		})
		slog.ErrorContext(ctx, "checkout request failed", "attempt_id", attemptID, "user_id", user.ID, "error", err)
		return nil, &PaymentError{Cause: err}
	}

	span.SetAttributes(attribute.Int64("order.id", res.OrderID), attribute.String("order.status", string(res.Status)))

	if res.Status != entity.StatusPaid {
		payErr := &PaymentError{OrderID: res.OrderID, Status: res.Status}
		span.SetStatus(codes.Error, "payment not approved")
		c.record(ctx, attemptID, user.ID, journal.StatusFailed, func(e *journal.Entry) {
			e.OrderID = res.OrderID
			e.Total = res.Total.StringFixed(2)
			e.Error = payErr.Error()
		})
		slog.WarnContext(ctx, "checkout not paid", "attempt_id", attemptID, "order_id", res.OrderID, "status", res.Status)
		return nil, payErr
	}

	c.record(ctx, attemptID, user.ID, journal.StatusPaid, func(e *journal.Entry) {
		e.OrderID = res.OrderID
		e.Total = res.Total.StringFixed(2)
	})
	slog.InfoContext(ctx, "checkout paid", "attempt_id", attemptID, "order_id", res.OrderID, "total", res.Total.StringFixed(2))

	result := &Result{AttemptID: attemptID, OrderID: res.OrderID, Total: res.Total, Receipt: entity.RouteOrders}
	if res.OrderID > 0 {
		result.Receipt = entity.ReceiptRoute(res.OrderID)
	}

	var errs []error
	if err := c.cart.Clear(ctx); err != nil {
		slog.ErrorContext(ctx, "clearing cart after payment", "order_id", res.OrderID, "error", err)
		errs = append(errs, fmt.Errorf("checkout: order %d paid but the cart could not be cleared: %w", res.OrderID, err))
	}
	if err := c.nav.Navigate(ctx, result.Receipt); err != nil {
		errs = append(errs, fmt.Errorf("checkout: order %d paid, open %s to view the receipt: %w", res.OrderID, result.Receipt, err))
	}
	return result, errors.Join(errs...)
}

// record appends a journal row. Journal failures are logged and otherwise
// ignored.
func (c *Coordinator) record(ctx context.Context, attemptID, userID string, status journal.Status, fill func(*journal.Entry)) {
	if c.journal == nil {
		return
	}
	e := journal.NewEntry(ctx, attemptID, userID, status)
	if fill != nil {
		fill(e)
	}
	if err := c.journal.Save(ctx, e); err != nil {
		slog.WarnContext(ctx, "journal write failed", "attempt_id", attemptID, "status", status, "error", err)
	}
}
