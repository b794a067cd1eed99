package entity

import (
	"strconv"
	"strings"
)

// Route is a navigable screen path.
type Route string

const (
	RouteRoot      Route = "/"
	RouteLogin     Route = "/login"
	RouteSignup    Route = "/signup"
	RouteProducts  Route = "/products"
	RouteCart      Route = "/cart"
	RouteCheckout  Route = "/checkout"
	RouteOrders    Route = "/orders"
	RouteInventory Route = "/inventory"
	RouteAllOrders Route = "/all-orders"

	receiptPrefix = "/receipt/"
)

// Landing routes.
const (
	RouteHome          = RouteRoot
	RouteOwnerLanding  = RouteInventory
	RouteClientLanding = RouteProducts
)

func ReceiptRoute(orderID int64) Route {
	return Route(receiptPrefix + strconv.FormatInt(orderID, 10))
}

// ReceiptOrderID extracts the order identifier from a receipt route.
func ReceiptOrderID(r Route) (int64, bool) {
	raw, ok := strings.CutPrefix(string(r), receiptPrefix)
	if !ok || raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// LandingFor returns the screen a freshly authenticated user is sent to.
func LandingFor(role Role) Route {
	if role == RoleOwner {
		return RouteOwnerLanding
	}
	return RouteClientLanding
}
