// Package httpx serves the storefront's HTTP contract over chi.
package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/storefront/internal/backend/auth"
	"github.com/jcmexdev/storefront/internal/backend/domain"
	"github.com/jcmexdev/storefront/internal/backend/inventory"
	"github.com/jcmexdev/storefront/internal/backend/orders"
	"github.com/jcmexdev/storefront/internal/backend/settlement"
	"github.com/jcmexdev/storefront/internal/pkg/money"
	"github.com/jcmexdev/storefront/internal/pkg/requestmeta"
)

const maxRequestBytes = 1 << 20

type Handler struct {
	auth       *auth.Service
	inventory  *inventory.Service
	orders     *orders.Repository
	settlement *settlement.Service
}

func NewHandler(a *auth.Service, inv *inventory.Service, repo *orders.Repository, s *settlement.Service) *Handler {
	return &Handler{auth: a, inventory: inv, orders: repo, settlement: s}
}

// --- auth ---

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}
	sess, err := h.auth.Register(r.Context(), req.Username, req.Password, domain.Role(strings.ToUpper(req.Role)))
	if errors.Is(err, domain.ErrConflict) {
		writeError(w, http.StatusConflict, "username_taken", "Username already exists")
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{AccessToken: sess.AccessToken, UserID: sess.UserID, Role: string(sess.Role)})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}
	sess, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if auth.IsUnauthorized(err) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials")
			return
		}
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{AccessToken: sess.AccessToken, UserID: sess.UserID, Role: string(sess.Role)})
}

// --- inventory ---

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, mapProducts(h.inventory.List(r.Context())))
}

func (h *Handler) AddProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.inventory.Add(r.Context(), strings.TrimSpace(req.Name), req.Price, req.Stock)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapProduct(p))
}

func (h *Handler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req priceRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.inventory.UpdatePrice(r.Context(), id, req.Price)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapProduct(p))
}

func (h *Handler) Refill(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req refillRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.inventory.Refill(r.Context(), id, req.Qty)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapProduct(p))
}

// --- orders ---

// Checkout settles the caller's cart. Prices are looked up server-side; a
// declined payment answers 200 with status FAILED.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if !decode(w, r, &req) {
		return
	}
	caller, _ := PrincipalFrom(r.Context())
	if req.UserID != caller.UserID {
		writeError(w, http.StatusForbidden, "forbidden", "user_id does not match the token")
		return
	}

	items := make([]domain.StockItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = domain.StockItem{ProductID: it.ProductID, Quantity: it.Qty}
	}

	key := requestmeta.IdempotencyKey(r.Context())
	slog.InfoContext(r.Context(), "checkout requested",
		"request_id", requestmeta.RequestID(r.Context()), "user_id", req.UserID, "items", len(items))

	res, err := h.settlement.Checkout(r.Context(), key, settlement.Request{UserID: req.UserID, Items: items})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, checkoutResponse{OrderID: res.OrderID, Status: string(res.Status), Total: money.Of(res.Total)})
}

func (h *Handler) ListUserOrders(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	caller, _ := PrincipalFrom(r.Context())
	if caller.Role != domain.RoleOwner && caller.UserID != userID {
		writeError(w, http.StatusForbidden, "forbidden", "cannot list another user's orders")
		return
	}
	writeJSON(w, http.StatusOK, mapOrders(h.orders.ListByUser(r.Context(), userID)))
}

func (h *Handler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, mapOrders(h.orders.ListAll(r.Context())))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	o, ok := h.visibleOrder(w, r, id)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, mapOrder(o, true))
}

// Refund is open to owners and to the client who placed the order.
func (h *Handler) Refund(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, ok := h.visibleOrder(w, r, id); !ok {
		return
	}
	o, err := h.settlement.Refund(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			writeError(w, http.StatusConflict, "not_refundable", "Only PAID orders can be refunded")
			return
		}
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrder(o, false))
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

// visibleOrder loads order id if the caller may see it, writing the error
// response otherwise. Other users' orders are reported as missing.
func (h *Handler) visibleOrder(w http.ResponseWriter, r *http.Request, id int64) (domain.Order, bool) {
	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return domain.Order{}, false
	}
	caller, _ := PrincipalFrom(r.Context())
	if caller.Role != domain.RoleOwner && caller.UserID != o.UserID {
		writeError(w, http.StatusNotFound, "not_found", "Order not found")
		return domain.Order{}, false
	}
	return o, true
}

// fail maps a domain error onto a status code.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, domain.ErrOutOfStock):
		writeError(w, http.StatusBadRequest, "out_of_stock", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	default:
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
