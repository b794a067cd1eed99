// Package auth registers principals and issues the HS256 access tokens the
// rest of the backend trusts.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/jcmexdev/storefront/internal/backend/domain"
)

const issuer = "storefront-backend"

// Claims is the access token payload. Subject is the user id.
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID string
	Role   domain.Role
}

// Session is what register and login hand back.
type Session struct {
	AccessToken string
	UserID      int64
	Role        domain.Role
}

type Config struct {
	Secret []byte
	TTL    time.Duration
	// Cost is the bcrypt cost; zero means bcrypt.DefaultCost.
	Cost int
}

type Service struct {
	cfg Config
	now func() time.Time

	mu     sync.RWMutex
	users  map[string]*domain.User
	nextID int64
}

func NewService(cfg Config) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Cost == 0 {
		cfg.Cost = bcrypt.DefaultCost
	}
	return &Service{cfg: cfg, now: time.Now, users: make(map[string]*domain.User)}
}

func (s *Service) Register(ctx context.Context, username, password string, role domain.Role) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrInvalidInput)
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: invalid role %q", domain.ErrInvalidInput, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.Cost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	s.mu.Lock()
	if _, exists := s.users[username]; exists {
		s.mu.Unlock()
		return nil, fmt.Errorf("username %q: %w", username, domain.ErrConflict)
	}
	s.nextID++
	u := &domain.User{ID: s.nextID, Username: username, PasswordHash: hash, Role: role}
	s.users[username] = u
	s.mu.Unlock()

	slog.InfoContext(ctx, "user registered", "user_id", u.ID, "role", role)
	return s.session(u)
}

func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	s.mu.RLock()
	u, ok := s.users[strings.TrimSpace(username)]
	s.mu.RUnlock()

	if !ok || bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		slog.WarnContext(ctx, "login rejected", "username", username)
		return nil, fmt.Errorf("login %q: %w", username, domain.ErrUnauthorized)
	}
	return s.session(u)
}

// Verify parses and validates an access token.
func (s *Service) Verify(token string) (Principal, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.cfg.Secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" || !claims.Role.Valid() {
		return Principal{}, fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
	}
	return Principal{UserID: claims.Subject, Role: claims.Role}, nil
}

func (s *Service) session(u *domain.User) (*Session, error) {
	now := s.now()
	claims := &Claims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("auth: sign token: %w", err)
	}
	return &Session{AccessToken: signed, UserID: u.ID, Role: u.Role}, nil
}

// IsUnauthorized reports whether err is a credential or token rejection.
func IsUnauthorized(err error) bool {
	return errors.Is(err, domain.ErrUnauthorized)
}
