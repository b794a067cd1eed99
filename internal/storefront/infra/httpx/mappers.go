package httpx

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
)

// decodeProducts maps a catalog payload onto Products. Numeric strings are
// coerced; any entry that still does not fit rejects the whole payload.
func decodeProducts(raw []byte) ([]entity.Product, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: products: invalid JSON", ErrMalformedPayload)
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsArray() {
		return nil, fmt.Errorf("%w: products: expected an array", ErrMalformedPayload)
	}

	items := doc.Array()
	products := make([]entity.Product, 0, len(items))
	for i, item := range items {
		p, err := productFromJSON(item)
		if err != nil {
			return nil, fmt.Errorf("%w: product %d: %v", ErrMalformedPayload, i, err)
		}
		products = append(products, p)
	}
	return products, nil
}

func productFromJSON(item gjson.Result) (entity.Product, error) {
	if !item.IsObject() {
		return entity.Product{}, errors.New("not an object")
	}

	id, err := intField(item.Get("id"))
	if err != nil || id <= 0 {
		return entity.Product{}, fmt.Errorf("id: expected a positive integer, got %q", item.Get("id").Raw)
	}

	name := item.Get("name")
	if name.Type != gjson.String || strings.TrimSpace(name.Str) == "" {
		return entity.Product{}, errors.New("name: expected a non-empty string")
	}

	price, err := decimalField(item.Get("price"))
	if err != nil {
		return entity.Product{}, fmt.Errorf("price: %w", err)
	}
	if price.IsNegative() {
		return entity.Product{}, errors.New("price: negative")
	}

	var stock int64
	if s := item.Get("stock"); s.Exists() && s.Type != gjson.Null {
		stock, err = intField(s)
		if err != nil {
			return entity.Product{}, fmt.Errorf("stock: %w", err)
		}
		if stock < 0 {
			return entity.Product{}, errors.New("stock: negative")
		}
	}

	return entity.Product{
		ID:            id,
		Name:          strings.TrimSpace(name.Str),
		UnitPrice:     price,
		StockQuantity: int(stock),
	}, nil
}

func intField(r gjson.Result) (int64, error) {
	switch r.Type {
	case gjson.Number:
		if n, err := strconv.ParseInt(r.Raw, 10, 64); err == nil {
			return n, nil
		}
		// Exponent or trailing-zero forms such as 1e3 or 2.0.
		d, err := decimal.NewFromString(r.Raw)
		if err != nil || !d.IsInteger() || !d.BigInt().IsInt64() {
			return 0, fmt.Errorf("not an int64: %s", r.Raw)
		}
		return d.IntPart(), nil
	case gjson.String:
		return strconv.ParseInt(strings.TrimSpace(r.Str), 10, 64)
	default:
		return 0, fmt.Errorf("unexpected value %q", r.Raw)
	}
}

func decimalField(r gjson.Result) (decimal.Decimal, error) {
	switch r.Type {
	case gjson.Number:
		return decimal.NewFromString(r.Raw)
	case gjson.String:
		return decimal.NewFromString(strings.TrimSpace(r.Str))
	default:
		return decimal.Decimal{}, fmt.Errorf("unexpected value %q", r.Raw)
	}
}

func mapOrder(o orderDTO) entity.Order {
	order := entity.Order{
		ID:          o.ID,
		OwnerUserID: string(o.UserID),
		Status:      entity.OrderStatus(o.Status),
		Total:       o.Total,
		CreatedAt:   parseTimestamp(o.CreatedAt),
	}
	if o.Items != nil {
		order.Items = make([]entity.OrderLine, len(o.Items))
		for i, it := range o.Items {
			order.Items[i] = entity.OrderLine{
				ProductID:   it.ProductID,
				ProductName: it.ProductName,
				Qty:         it.Qty,
				UnitPrice:   it.Price,
				LineTotal:   it.LineTotal,
			}
		}
	}
	return order
}

func mapOrders(dtos []orderDTO) []entity.Order {
	out := make([]entity.Order, len(dtos))
	for i, o := range dtos {
		out[i] = mapOrder(o)
		// List views never carry line items.
		out[i].Items = nil
	}
	return out
}

// Timestamps without a zone are taken as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
