package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
)

var (
	anonymous = entity.Session{}
	client    = entity.Session{Token: "t", User: &entity.User{ID: "c-1", Role: entity.RoleClient}}
	owner     = entity.Session{Token: "t", User: &entity.User{ID: "o-1", Role: entity.RoleOwner}}
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		session  entity.Session
		route    entity.Route
		required entity.Role
		want     Decision
	}{
		{"anonymous protected", anonymous, entity.RouteCart, "", Decision{RedirectLogin, entity.RouteLogin}},
		{"anonymous owner screen", anonymous, entity.RouteInventory, entity.RoleOwner, Decision{RedirectLogin, entity.RouteLogin}},
		{"owner at root", owner, entity.RouteRoot, "", Decision{RedirectOwnerLanding, entity.RouteInventory}},
		{"client at root", client, entity.RouteRoot, "", Decision{Allow, entity.RouteRoot}},
		{"client on owner screen", client, entity.RouteAllOrders, entity.RoleOwner, Decision{RedirectHome, entity.RouteHome}},
		{"owner on owner screen", owner, entity.RouteAllOrders, entity.RoleOwner, Decision{Allow, entity.RouteAllOrders}},
		{"owner on client screen", owner, entity.RouteCart, "", Decision{Allow, entity.RouteCart}},
		{"client allowed", client, entity.RouteCheckout, "", Decision{Allow, entity.RouteCheckout}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.session, tt.route, tt.required))
		})
	}
}

func TestTable_Resolve(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		name    string
		session entity.Session
		path    entity.Route
		want    entity.Route
		outcome Outcome
	}{
		{"anonymous receipt", anonymous, entity.ReceiptRoute(77), entity.RouteLogin, RedirectLogin},
		{"anonymous login", anonymous, entity.RouteLogin, entity.RouteLogin, Allow},
		{"client signup still public", client, entity.RouteSignup, entity.RouteSignup, Allow},
		{"owner root", owner, entity.RouteRoot, entity.RouteInventory, RedirectOwnerLanding},
		{"client root", client, entity.RouteRoot, entity.RouteProducts, Allow},
		{"client inventory", client, entity.RouteInventory, entity.RouteProducts, RedirectHome},
		{"client receipt", client, entity.ReceiptRoute(77), "/receipt/77", Allow},
		{"unknown path", client, "/nowhere", entity.RouteProducts, Allow},
		{"owner all orders", owner, entity.RouteAllOrders, entity.RouteAllOrders, Allow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, d := table.Resolve(tt.session, tt.path)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.outcome, d.Outcome)
		})
	}
}

func TestTable_Lookup(t *testing.T) {
	table := DefaultTable()

	s, public := table.Lookup(entity.RouteInventory)
	assert.False(t, public)
	assert.Equal(t, entity.RoleOwner, s.RequiredRole)

	s, public = table.Lookup("/receipt/")
	assert.False(t, public)
	assert.Equal(t, entity.RouteProducts, s.Path)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "redirect-to-home", RedirectHome.String())
	assert.Equal(t, "unknown", Outcome(42).String())
}
