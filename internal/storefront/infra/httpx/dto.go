package httpx

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/storefront/internal/pkg/money"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type authResponse struct {
	AccessToken string     `json:"access_token"`
	UserID      flexString `json:"user_id"`
	Role        string     `json:"role"`
}

type addProductRequest struct {
	Name  string       `json:"name"`
	Price money.Amount `json:"price"`
	Stock int          `json:"stock"`
}

type updatePriceRequest struct {
	Price money.Amount `json:"price"`
}

type refillRequest struct {
	Qty int `json:"qty"`
}

type checkoutItemDTO struct {
	ProductID int64 `json:"product_id"`
	Qty       int   `json:"qty"`
}

type checkoutRequestDTO struct {
	UserID string            `json:"user_id"`
	Items  []checkoutItemDTO `json:"items"`
}

type checkoutResponseDTO struct {
	OrderID int64           `json:"order_id"`
	Status  string          `json:"status"`
	Total   decimal.Decimal `json:"total"`
}

type orderDTO struct {
	ID        int64           `json:"id"`
	UserID    flexString      `json:"user_id"`
	Status    string          `json:"status"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt string          `json:"created_at"`
	Items     []orderItemDTO  `json:"items,omitempty"`
}

type orderItemDTO struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Qty         int             `json:"qty"`
	Price       decimal.Decimal `json:"price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// flexString accepts a JSON string or number. Backends disagree on whether
// user identifiers are numeric.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}
