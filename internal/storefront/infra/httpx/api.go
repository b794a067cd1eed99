package httpx

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/storefront/internal/pkg/money"
	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/storefront/internal/storefront/core/ports"
)

var (
	_ ports.AuthAPI     = (*Client)(nil)
	_ ports.CatalogAPI  = (*Client)(nil)
	_ ports.CheckoutAPI = (*Client)(nil)
	_ ports.OrderAPI    = (*Client)(nil)
)

func (c *Client) Login(ctx context.Context, username, password string) (*ports.Credentials, error) {
	var res authResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login",
		credentialsRequest{Username: username, Password: password}, &res, skipAuth())
	if err != nil {
		return nil, err
	}
	return mapCredentials(res)
}

func (c *Client) Register(ctx context.Context, username, password string, role entity.Role) (*ports.Credentials, error) {
	var res authResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/register",
		credentialsRequest{Username: username, Password: password, Role: string(role)}, &res, skipAuth())
	if err != nil {
		return nil, err
	}
	return mapCredentials(res)
}

func mapCredentials(res authResponse) (*ports.Credentials, error) {
	role := entity.Role(strings.ToUpper(res.Role))
	if res.AccessToken == "" || res.UserID == "" || !role.Valid() {
		return nil, fmt.Errorf("%w: auth response lacks token, user id or role", ErrMalformedPayload)
	}
	return &ports.Credentials{
		AccessToken: res.AccessToken,
		User:        entity.User{ID: string(res.UserID), Role: role},
	}, nil
}

func (c *Client) ListProducts(ctx context.Context) ([]entity.Product, error) {
	raw, err := c.send(ctx, http.MethodGet, "/api/inventory/products", nil)
	if err != nil {
		return nil, err
	}
	return decodeProducts(raw)
}

func (c *Client) AddProduct(ctx context.Context, name string, price decimal.Decimal, stock int) error {
	return c.do(ctx, http.MethodPost, "/api/inventory/products",
		addProductRequest{Name: name, Price: money.Of(price), Stock: stock}, nil)
}

func (c *Client) UpdatePrice(ctx context.Context, productID int64, price decimal.Decimal) error {
	return c.do(ctx, http.MethodPut, "/api/inventory/products/"+strconv.FormatInt(productID, 10),
		updatePriceRequest{Price: money.Of(price)}, nil)
}

func (c *Client) RefillStock(ctx context.Context, productID int64, qty int) error {
	return c.do(ctx, http.MethodPost, "/api/inventory/refill/"+strconv.FormatInt(productID, 10),
		refillRequest{Qty: qty}, nil)
}

func (c *Client) Checkout(ctx context.Context, req entity.CheckoutRequest) (*entity.CheckoutResult, error) {
	payload := checkoutRequestDTO{
		UserID: req.UserID,
		Items:  make([]checkoutItemDTO, len(req.Items)),
	}
	for i, it := range req.Items {
		payload.Items[i] = checkoutItemDTO{ProductID: it.ProductID, Qty: it.Qty}
	}

	var res checkoutResponseDTO
	if err := c.do(ctx, http.MethodPost, "/orders/checkout", payload, &res); err != nil {
		return nil, err
	}
	return &entity.CheckoutResult{
		OrderID: res.OrderID,
		Status:  entity.OrderStatus(res.Status),
		Total:   res.Total,
	}, nil
}

func (c *Client) ListOrders(ctx context.Context, userID string) ([]entity.Order, error) {
	var res []orderDTO
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(userID), nil, &res); err != nil {
		return nil, err
	}
	return mapOrders(res), nil
}

func (c *Client) ListAllOrders(ctx context.Context) ([]entity.Order, error) {
	var res []orderDTO
	if err := c.do(ctx, http.MethodGet, "/api/orders/all", nil, &res); err != nil {
		return nil, err
	}
	return mapOrders(res), nil
}

// GetOrder returns a zero-ID order when the body carries no identifier;
// callers decide what that means.
func (c *Client) GetOrder(ctx context.Context, orderID int64) (*entity.Order, error) {
	var res orderDTO
	if err := c.do(ctx, http.MethodGet, "/api/orders/by-id/"+strconv.FormatInt(orderID, 10), nil, &res); err != nil {
		return nil, err
	}
	order := mapOrder(res)
	return &order, nil
}

func (c *Client) Refund(ctx context.Context, orderID int64) error {
	return c.do(ctx, http.MethodPost, "/api/orders/refund/"+strconv.FormatInt(orderID, 10), nil, nil)
}
