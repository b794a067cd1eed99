// Package navigation turns navigation requests into screens. Every request
// is re-checked against the guard so no screen is reachable by skipping it.
package navigation

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/storefront/internal/storefront/core/ports"
	"github.com/jcmexdev/storefront/internal/storefront/guard"
)

var _ ports.Navigator = (*Router)(nil)

// SessionSource is the part of the session manager the router needs.
type SessionSource interface {
	Current() entity.Session
}

// Router keeps the current screen and the history of screens visited.
type Router struct {
	table *guard.Table

	mu       sync.Mutex
	sessions SessionSource
	current  entity.Route
	history  []entity.Route
	onChange []func(entity.Route)
}

func NewRouter(table *guard.Table) *Router {
	if table == nil {
		table = guard.DefaultTable()
	}
	return &Router{table: table}
}

// Attach sets the session source. Until attached, every screen is evaluated
// as unauthenticated.
func (r *Router) Attach(s SessionSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = s
}

// OnChange registers fn to run after each completed navigation.
func (r *Router) OnChange(fn func(entity.Route)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = append(r.onChange, fn)
}

func (r *Router) Navigate(ctx context.Context, to entity.Route) error {
	r.mu.Lock()
	var s entity.Session
	if r.sessions != nil {
		s = r.sessions.Current()
	}
	landed, decision := r.table.Resolve(s, to)
	r.current = landed
	r.history = append(r.history, landed)
	hooks := append(([]func(entity.Route))(nil), r.onChange...)
	r.mu.Unlock()

	if decision.Outcome != guard.Allow {
		slog.DebugContext(ctx, "navigation redirected",
			"requested", to, "outcome", decision.Outcome.String(), "landed", landed)
	}
	for _, fn := range hooks {
		fn(landed)
	}
	return nil
}

func (r *Router) Current() entity.Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// History returns the screens landed on, oldest first.
func (r *Router) History() []entity.Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.Route(nil), r.history...)
}
