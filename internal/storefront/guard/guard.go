// Package guard decides, for every navigation attempt, whether the current
// session may see the requested screen. Decisions are pure and never cached.
package guard

import (
	"strings"

	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
)

type Outcome int

const (
	Allow Outcome = iota
	RedirectLogin
	RedirectOwnerLanding
	RedirectHome
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect-to-login"
	case RedirectOwnerLanding:
		return "redirect-to-owner-landing"
	case RedirectHome:
		return "redirect-to-home"
	default:
		return "unknown"
	}
}

// Decision is the single navigation resulting from an evaluation.
type Decision struct {
	Outcome Outcome
	Target  entity.Route
}

// Screen describes a protected screen. An empty RequiredRole admits any
// authenticated user.
type Screen struct {
	Path         entity.Route
	RequiredRole entity.Role
}

// Evaluate applies the guard rules in order:
//  1. no authenticated user: login
//  2. OWNER landing exactly on the root: owner landing
//  3. role mismatch: home
//  4. otherwise allow
func Evaluate(s entity.Session, requested entity.Route, required entity.Role) Decision {
	if !s.Authenticated() {
		return Decision{Outcome: RedirectLogin, Target: entity.RouteLogin}
	}
	if s.User.Role == entity.RoleOwner && requested == entity.RouteRoot {
		return Decision{Outcome: RedirectOwnerLanding, Target: entity.RouteOwnerLanding}
	}
	if required != "" && s.User.Role != required {
		return Decision{Outcome: RedirectHome, Target: entity.RouteHome}
	}
	return Decision{Outcome: Allow, Target: requested}
}

// Table maps paths to screens.
type Table struct {
	public    map[entity.Route]bool
	protected map[entity.Route]Screen
	// prefixed screens take a trailing identifier, e.g. /receipt/{id}.
	prefixed []Screen
}

// DefaultTable is the storefront's screen map.
func DefaultTable() *Table {
	t := &Table{
		public:    map[entity.Route]bool{entity.RouteLogin: true, entity.RouteSignup: true},
		protected: make(map[entity.Route]Screen),
	}
	for _, s := range []Screen{
		{Path: entity.RouteRoot},
		{Path: entity.RouteProducts},
		{Path: entity.RouteCart},
		{Path: entity.RouteCheckout},
		{Path: entity.RouteOrders},
		{Path: entity.RouteInventory, RequiredRole: entity.RoleOwner},
		{Path: entity.RouteAllOrders, RequiredRole: entity.RoleOwner},
	} {
		t.protected[s.Path] = s
	}
	t.prefixed = []Screen{{Path: "/receipt/"}}
	return t
}

// Lookup returns the screen for path. Unknown paths fall back to the catalog.
func (t *Table) Lookup(path entity.Route) (screen Screen, public bool) {
	if t.public[path] {
		return Screen{Path: path}, true
	}
	if s, ok := t.protected[path]; ok {
		return s, false
	}
	for _, s := range t.prefixed {
		if rest, ok := strings.CutPrefix(string(path), string(s.Path)); ok && rest != "" {
			return Screen{Path: path, RequiredRole: s.RequiredRole}, false
		}
	}
	return t.protected[entity.RouteProducts], false
}

// maxHops bounds redirect chains; the rules converge in at most three.
const maxHops = 4

// Resolve follows redirects from path until a screen is allowed and returns
// the screen the user actually lands on, along with the first decision.
func (t *Table) Resolve(s entity.Session, path entity.Route) (entity.Route, Decision) {
	var first *Decision
	current := path
	for i := 0; i < maxHops; i++ {
		screen, public := t.Lookup(current)
		if public {
			if first == nil {
				first = &Decision{Outcome: Allow, Target: current}
			}
			return current, *first
		}

		d := Evaluate(s, current, screen.RequiredRole)
		if first == nil {
			first = &d
		}
		if d.Outcome != Allow {
			current = d.Target
			continue
		}
		// The root and unknown paths are placeholders for the catalog.
		if screen.Path != current || current == entity.RouteRoot {
			return entity.RouteProducts, *first
		}
		return current, *first
	}
	return entity.RouteLogin, *first
}
