package navigation

import (
	"context"
	"sync"

	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
)

// Recorder is a Navigator that records requested routes without guarding
// them. Err, when set, is returned from every Navigate call.
type Recorder struct {
	mu     sync.Mutex
	routes []entity.Route
	Err    error
}

func (r *Recorder) Navigate(_ context.Context, to entity.Route) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, to)
	return r.Err
}

func (r *Recorder) Routes() []entity.Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.Route(nil), r.routes...)
}

// Last returns the most recent route, or "" if none.
func (r *Recorder) Last() entity.Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.routes) == 0 {
		return ""
	}
	return r.routes[len(r.routes)-1]
}
