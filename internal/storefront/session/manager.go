// Package session owns the client's authentication state. The state is
// derived from and written to the durable store; the manager never talks to
// the network itself.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jcmexdev/storefront/internal/pkg/kvstore"
	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/storefront/internal/storefront/core/ports"
)

// Durable store keys.
const (
	KeyToken = "token"
	KeyUser  = "user"
	KeyCart  = "cart"
)

var ErrInvalidUser = errors.New("session: invalid user")

// LogoutHook runs after logout has cleared the store and before navigation.
type LogoutHook func(ctx context.Context)

type Manager struct {
	store kvstore.Store
	nav   ports.Navigator

	mu      sync.RWMutex
	current entity.Session
	subs    map[int]func(entity.Session)
	nextSub int
	hooks   []LogoutHook
}

func NewManager(store kvstore.Store, nav ports.Navigator) *Manager {
	return &Manager{
		store: store,
		nav:   nav,
		subs:  make(map[int]func(entity.Session)),
	}
}

// Restore loads the persisted session. A missing or unreadable user leaves
// the session unauthenticated. No network call is made.
func (m *Manager) Restore(ctx context.Context) error {
	token, _, err := m.store.Get(ctx, KeyToken)
	if err != nil {
		return fmt.Errorf("session: restore token: %w", err)
	}
	rawUser, found, err := m.store.Get(ctx, KeyUser)
	if err != nil {
		return fmt.Errorf("session: restore user: %w", err)
	}

	var s entity.Session
	if found {
		var u entity.User
		if err := json.Unmarshal([]byte(rawUser), &u); err != nil || u.ID == "" || !u.Role.Valid() {
			slog.WarnContext(ctx, "ignoring unreadable stored user", "error", err)
		} else {
			s = entity.Session{Token: token, User: &u}
		}
	}

	m.set(s)
	return nil
}

// Login persists the token and user, replaces the in-memory session and
// sends the user to the landing screen for their role.
func (m *Manager) Login(ctx context.Context, token string, user entity.User) error {
	if user.ID == "" || !user.Role.Valid() {
		return fmt.Errorf("%w: id=%q role=%q", ErrInvalidUser, user.ID, user.Role)
	}

	rawUser, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("session: encode user: %w", err)
	}
	if err := m.store.Set(ctx, KeyToken, token); err != nil {
		return fmt.Errorf("session: persist token: %w", err)
	}
	if err := m.store.Set(ctx, KeyUser, string(rawUser)); err != nil {
		return fmt.Errorf("session: persist user: %w", err)
	}

	u := user
	m.set(entity.Session{Token: token, User: &u})
	slog.InfoContext(ctx, "logged in", "user_id", user.ID, "role", user.Role)

	return m.nav.Navigate(ctx, entity.LandingFor(user.Role))
}

// Logout clears token, user and cart from the store, resets the session and
// navigates to the login screen. The deletes are sequential, not atomic.
func (m *Manager) Logout(ctx context.Context) error {
	var errs []error
	for _, key := range []string{KeyToken, KeyUser, KeyCart} {
		if err := m.store.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("session: clear %s: %w", key, err))
		}
	}

	m.set(entity.Session{})

	m.mu.RLock()
	hooks := append([]LogoutHook(nil), m.hooks...)
	m.mu.RUnlock()
	for _, hook := range hooks {
		hook(ctx)
	}

	slog.InfoContext(ctx, "logged out")
	if err := m.nav.Navigate(ctx, entity.RouteLogin); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (m *Manager) Current() entity.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.current
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// User returns a copy of the authenticated user, or nil.
func (m *Manager) User() *entity.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current.User == nil {
		return nil
	}
	u := *m.current.User
	return &u
}

// Token implements the HTTP adapter's TokenSource.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Token
}

// Subscribe registers fn for every session change and returns a function
// that removes it.
func (m *Manager) Subscribe(fn func(entity.Session)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

func (m *Manager) OnLogout(hook LogoutHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, hook)
}

func (m *Manager) set(s entity.Session) {
	m.mu.Lock()
	m.current = s
	subs := make([]func(entity.Session), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
}
