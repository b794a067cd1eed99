package httpx

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/storefront/internal/backend/domain"
	"github.com/jcmexdev/storefront/internal/pkg/money"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type authResponse struct {
	AccessToken string `json:"access_token"`
	UserID      int64  `json:"user_id"`
	Role        string `json:"role"`
}

type productRequest struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

type productResponse struct {
	ID    int64        `json:"id"`
	Name  string       `json:"name"`
	Price money.Amount `json:"price"`
	Stock int          `json:"stock"`
}

type priceRequest struct {
	Price decimal.Decimal `json:"price"`
}

type refillRequest struct {
	Qty int `json:"qty"`
}

type checkoutItemRequest struct {
	ProductID int64 `json:"product_id"`
	Qty       int   `json:"qty"`
}

type checkoutRequest struct {
	UserID string                `json:"user_id"`
	Items  []checkoutItemRequest `json:"items"`
}

type checkoutResponse struct {
	OrderID int64        `json:"order_id"`
	Status  string       `json:"status"`
	Total   money.Amount `json:"total"`
}

type orderResponse struct {
	ID        int64               `json:"id"`
	UserID    string              `json:"user_id"`
	Status    string              `json:"status"`
	Total     money.Amount        `json:"total"`
	CreatedAt string              `json:"created_at"`
	Items     []orderItemResponse `json:"items,omitempty"`
}

type orderItemResponse struct {
	ProductID   int64        `json:"product_id"`
	ProductName string       `json:"product_name"`
	Qty         int          `json:"qty"`
	Price       money.Amount `json:"price"`
	LineTotal   money.Amount `json:"line_total"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func mapProduct(p domain.Product) productResponse {
	return productResponse{ID: p.ID, Name: p.Name, Price: money.Of(p.Price), Stock: p.Stock}
}

func mapProducts(list []domain.Product) []productResponse {
	out := make([]productResponse, len(list))
	for i, p := range list {
		out[i] = mapProduct(p)
	}
	return out
}

// mapOrder renders o; line items only when withItems is set.
func mapOrder(o domain.Order, withItems bool) orderResponse {
	res := orderResponse{
		ID:        o.ID,
		UserID:    o.UserID,
		Status:    string(o.Status),
		Total:     money.Of(o.Total),
		CreatedAt: o.CreatedAt.UTC().Format(time.RFC3339),
	}
	if withItems {
		res.Items = make([]orderItemResponse, len(o.Items))
		for i, it := range o.Items {
			res.Items[i] = orderItemResponse{
				ProductID:   it.ProductID,
				ProductName: it.ProductName,
				Qty:         it.Qty,
				Price:       money.Of(it.Price),
				LineTotal:   money.Of(it.LineTotal),
			}
		}
	}
	return res
}

func mapOrders(list []domain.Order) []orderResponse {
	out := make([]orderResponse, len(list))
	for i, o := range list {
		out[i] = mapOrder(o, false)
	}
	return out
}
