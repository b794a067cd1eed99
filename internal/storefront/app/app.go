// Package app wires the storefront client together: durable store, session,
// navigation, cart, checkout, orders and catalog over one HTTP client.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jcmexdev/storefront/internal/pkg/config"
	"github.com/jcmexdev/storefront/internal/pkg/kvstore"
	kvsqlite "github.com/jcmexdev/storefront/internal/pkg/kvstore/sqlite"
	"github.com/jcmexdev/storefront/internal/storefront/cart"
	"github.com/jcmexdev/storefront/internal/storefront/catalog"
	"github.com/jcmexdev/storefront/internal/storefront/checkout"
	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/storefront/internal/storefront/core/ports"
	"github.com/jcmexdev/storefront/internal/storefront/guard"
	"github.com/jcmexdev/storefront/internal/storefront/infra/httpx"
	"github.com/jcmexdev/storefront/internal/storefront/infra/navigation"
	"github.com/jcmexdev/storefront/internal/storefront/journal"
	journalsqlite "github.com/jcmexdev/storefront/internal/storefront/journal/sqlite"
	"github.com/jcmexdev/storefront/internal/storefront/orders"
	"github.com/jcmexdev/storefront/internal/storefront/session"
)

var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// redisNamespace keeps client keys apart from anything else on the server.
const redisNamespace = "client"

type App struct {
	Store    kvstore.Store
	Sessions *session.Manager
	Router   *navigation.Router
	Cart     *cart.Store
	Checkout *checkout.Coordinator
	Orders   *orders.Service
	Catalog  *catalog.Service

	auth    ports.AuthAPI
	journal journal.Recorder
	closers []io.Closer
}

// Deps lets callers and tests replace the collaborators New would build.
type Deps struct {
	Store     kvstore.Store
	Journal   journal.Recorder
	Transport http.RoundTripper
}

// New opens the configured durable store and journal and restores the
// previous session from them.
func New(ctx context.Context, cfg *config.Client) (*App, error) {
	var (
		deps    Deps
		closers []io.Closer
	)

	switch cfg.StateBackend {
	case kvstore.BackendMemory:
		deps.Store = kvstore.NewMemory()
	case kvstore.BackendSQLite:
		s, err := kvsqlite.Open(cfg.StatePath)
		if err != nil {
			return nil, fmt.Errorf("app: open state: %w", err)
		}
		deps.Store = s
		closers = append(closers, s)
	case kvstore.BackendRedis:
		s := kvstore.NewRedisStore(cfg.RedisAddr, redisNamespace)
		deps.Store = s
		if c, ok := s.(io.Closer); ok {
			closers = append(closers, c)
		}
	default:
		return nil, kvstore.CheckBackend(cfg.StateBackend)
	}

	if cfg.Journal {
		if cfg.StateBackend == kvstore.BackendMemory {
			deps.Journal = &journal.Memory{}
		} else {
			repo, err := journalsqlite.Open(cfg.StatePath)
			if err != nil {
				closeAll(closers)
				return nil, fmt.Errorf("app: open journal: %w", err)
			}
			deps.Journal = repo
			closers = append(closers, repo)
		}
	}

	a, err := NewWithDeps(ctx, cfg, deps)
	if err != nil {
		closeAll(closers)
		return nil, err
	}
	a.closers = closers
	return a, nil
}

// NewWithDeps builds the client over the given store. The session is
// restored from the store before returning.
func NewWithDeps(ctx context.Context, cfg *config.Client, deps Deps) (*App, error) {
	if deps.Store == nil {
		return nil, errors.New("app: a durable store is required")
	}

	router := navigation.NewRouter(guard.DefaultTable())
	sessions := session.NewManager(deps.Store, router)
	router.Attach(sessions)

	if err := sessions.Restore(ctx); err != nil {
		return nil, err
	}

	cartStore, err := cart.NewStore(ctx, deps.Store)
	if err != nil {
		return nil, err
	}
	sessions.OnLogout(cartStore.Forget)

	client := httpx.NewClient(httpx.ClientConfig{
		BaseURL:   cfg.APIBaseURL,
		Timeout:   cfg.HTTPTimeout,
		Tokens:    sessions,
		Transport: deps.Transport,
	})

	return &App{
		Store:    deps.Store,
		Sessions: sessions,
		Router:   router,
		Cart:     cartStore,
		Checkout: checkout.NewCoordinator(sessions, cartStore, client, router, deps.Journal),
		Orders:   orders.NewService(client),
		Catalog:  catalog.NewService(client),
		auth:     client,
		journal:  deps.Journal,
	}, nil
}

// SignIn authenticates and, on success, lands the user on their role's
// screen. A failure leaves the session and screen untouched.
func (a *App) SignIn(ctx context.Context, username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return ErrMissingCredentials
	}
	creds, err := a.auth.Login(ctx, username, password)
	if err != nil {
		return authError("sign in", err)
	}
	return a.Sessions.Login(ctx, creds.AccessToken, creds.User)
}

// SignUp registers a new principal and signs them in.
func (a *App) SignUp(ctx context.Context, username, password string, role entity.Role) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return ErrMissingCredentials
	}
	if !role.Valid() {
		return fmt.Errorf("sign up: unknown role %q", role)
	}
	creds, err := a.auth.Register(ctx, username, password, role)
	if err != nil {
		return authError("sign up", err)
	}
	return a.Sessions.Login(ctx, creds.AccessToken, creds.User)
}

func (a *App) Logout(ctx context.Context) error {
	return a.Sessions.Logout(ctx)
}

// Open navigates to route through the guard and returns where the user landed.
func (a *App) Open(ctx context.Context, route entity.Route) (entity.Route, error) {
	if err := a.Router.Navigate(ctx, route); err != nil {
		return "", err
	}
	return a.Router.Current(), nil
}

// Journal returns the checkout journal, or nil when disabled.
func (a *App) Journal() journal.Recorder {
	return a.journal
}

func (a *App) Close() error {
	return closeAll(a.closers)
}

// AuthFailure reports whether err is the server rejecting the credentials or
// token. The session is not cleared automatically.
func AuthFailure(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) || httpx.StatusCode(err) == http.StatusUnauthorized
}

func authError(op string, err error) error {
	if httpx.StatusCode(err) == http.StatusUnauthorized {
		return fmt.Errorf("%s: %w: %w", op, ErrInvalidCredentials, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func closeAll(closers []io.Closer) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		slog.Warn("closing client state", "error", errors.Join(errs...))
	}
	return errors.Join(errs...)
}
