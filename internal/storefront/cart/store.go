// Package cart holds the line items the user has chosen. Every mutation is
// computed on a copy, written through to the durable store, and only then
// becomes the in-memory state.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/storefront/internal/pkg/kvstore"
	"github.com/jcmexdev/storefront/internal/pkg/money"
	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
)

var (
	ErrInvalidLine     = errors.New("cart: invalid line")
	ErrInvalidQuantity = errors.New("cart: quantity must be at least 1")
)

// Key is the durable store key. It is shared across users on one device;
// logout is what separates identities.
const Key = "cart"

type Store struct {
	kv kvstore.Store

	// writeMu serializes compute, persist and swap so a write cannot land
	// on top of a newer one.
	writeMu sync.Mutex

	mu      sync.RWMutex
	lines   []entity.CartLine
	subs    map[int]func([]entity.CartLine)
	nextSub int
}

// NewStore seeds the cart from the durable store.
func NewStore(ctx context.Context, kv kvstore.Store) (*Store, error) {
	s := &Store{kv: kv, subs: make(map[int]func([]entity.CartLine))}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces the in-memory lines with the persisted copy.
func (s *Store) Reload(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	raw, found, err := s.kv.Get(ctx, Key)
	if err != nil {
		return fmt.Errorf("cart: load: %w", err)
	}

	var lines []entity.CartLine
	if found && strings.TrimSpace(raw) != "" {
		if lines, err = decodeLines(raw); err != nil {
			return fmt.Errorf("cart: decode stored cart: %w", err)
		}
	}
	s.replace(lines)
	return nil
}

// Add merges quantity into the existing line for productID (keeping its
// original price) or appends a new line.
func (s *Store) Add(ctx context.Context, productID int64, name string, unitPrice decimal.Decimal, quantity int) error {
	if productID <= 0 || unitPrice.IsNegative() {
		return fmt.Errorf("%w: product %d", ErrInvalidLine, productID)
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	return s.mutate(ctx, func(lines []entity.CartLine) ([]entity.CartLine, bool) {
		if i := indexOf(lines, productID); i >= 0 {
			lines[i].Quantity += quantity
			return lines, true
		}
		return append(lines, entity.CartLine{
			ProductID: productID,
			Name:      name,
			UnitPrice: unitPrice,
			Quantity:  quantity,
		}), true
	})
}

// Increase adds one to the line's quantity. Unknown products are ignored.
func (s *Store) Increase(ctx context.Context, productID int64) error {
	return s.mutate(ctx, func(lines []entity.CartLine) ([]entity.CartLine, bool) {
		i := indexOf(lines, productID)
		if i < 0 {
			return lines, false
		}
		lines[i].Quantity++
		return lines, true
	})
}

// Decrease subtracts one; a line that would reach zero is removed.
func (s *Store) Decrease(ctx context.Context, productID int64) error {
	return s.mutate(ctx, func(lines []entity.CartLine) ([]entity.CartLine, bool) {
		i := indexOf(lines, productID)
		if i < 0 {
			return lines, false
		}
		if lines[i].Quantity <= 1 {
			return slices.Delete(lines, i, i+1), true
		}
		lines[i].Quantity--
		return lines, true
	})
}

func (s *Store) Remove(ctx context.Context, productID int64) error {
	return s.mutate(ctx, func(lines []entity.CartLine) ([]entity.CartLine, bool) {
		i := indexOf(lines, productID)
		if i < 0 {
			return lines, false
		}
		return slices.Delete(lines, i, i+1), true
	})
}

// Clear empties the cart and deletes the persisted copy.
func (s *Store) Clear(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.kv.Delete(ctx, Key); err != nil {
		return fmt.Errorf("cart: clear: %w", err)
	}
	s.replace(nil)
	return nil
}

// Forget drops the in-memory lines without touching the store. Used after
// logout has already removed the persisted cart.
func (s *Store) Forget(context.Context) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.replace(nil)
}

// Lines returns a copy of the current lines in insertion order.
func (s *Store) Lines() []entity.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.lines)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lines)
}

func (s *Store) Empty() bool {
	return s.Len() == 0
}

// Total is recomputed from the lines on every call.
func (s *Store) Total() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Total(s.lines)
}

func Total(lines []entity.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Subscribe registers fn to receive every new set of lines. fn runs
// synchronously and must not write to the cart.
func (s *Store) Subscribe(fn func([]entity.CartLine)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// mutate applies fn to a copy of the lines, persists the result and swaps it
// in. fn reports whether anything changed; unchanged carts are not written.
func (s *Store) mutate(ctx context.Context, fn func([]entity.CartLine) ([]entity.CartLine, bool)) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	next, changed := fn(slices.Clone(s.lines))
	s.mu.RUnlock()
	if !changed {
		return nil
	}

	raw, err := encodeLines(next)
	if err != nil {
		return fmt.Errorf("cart: encode: %w", err)
	}
	if err := s.kv.Set(ctx, Key, raw); err != nil {
		return fmt.Errorf("cart: persist: %w", err)
	}
	s.replace(next)
	return nil
}

func (s *Store) replace(lines []entity.CartLine) {
	s.mu.Lock()
	s.lines = lines
	snapshot := slices.Clone(lines)
	subs := make([]func([]entity.CartLine), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

// storedLine is the persisted shape of a cart line.
type storedLine struct {
	ID       int64        `json:"id"`
	Name     string       `json:"name"`
	Price    money.Amount `json:"price"`
	Quantity int          `json:"quantity"`
}

func encodeLines(lines []entity.CartLine) (string, error) {
	stored := make([]storedLine, len(lines))
	for i, l := range lines {
		stored[i] = storedLine{ID: l.ProductID, Name: l.Name, Price: money.Of(l.UnitPrice), Quantity: l.Quantity}
	}
	raw, err := json.Marshal(stored)
	return string(raw), err
}

func decodeLines(raw string) ([]entity.CartLine, error) {
	var stored []storedLine
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, err
	}
	lines := make([]entity.CartLine, len(stored))
	for i, l := range stored {
		lines[i] = entity.CartLine{ProductID: l.ID, Name: l.Name, UnitPrice: l.Price.Decimal, Quantity: l.Quantity}
	}
	return lines, nil
}

func indexOf(lines []entity.CartLine, productID int64) int {
	return slices.IndexFunc(lines, func(l entity.CartLine) bool { return l.ProductID == productID })
}
