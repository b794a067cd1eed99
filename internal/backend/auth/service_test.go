package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jcmexdev/storefront/internal/backend/domain"
)

func newService() *Service {
	return NewService(Config{Secret: []byte("test-secret"), TTL: time.Hour, Cost: bcrypt.MinCost})
}

func TestRegisterLoginVerify(t *testing.T) {
	s := newService()
	ctx := context.Background()

	reg, err := s.Register(ctx, "alice", "s3cret", domain.RoleOwner)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reg.UserID)
	assert.Equal(t, domain.RoleOwner, reg.Role)

	login, err := s.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)

	p, err := s.Verify(login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, Principal{UserID: "1", Role: domain.RoleOwner}, p)
}

func TestRegister_Rejections(t *testing.T) {
	s := newService()
	ctx := context.Background()
	_, err := s.Register(ctx, "bob", "pw", domain.RoleClient)
	require.NoError(t, err)

	_, err = s.Register(ctx, "bob", "other", domain.RoleClient)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = s.Register(ctx, "carol", "pw", "ADMIN")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = s.Register(ctx, " ", "pw", domain.RoleClient)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	s := newService()
	ctx := context.Background()
	_, err := s.Register(ctx, "bob", "pw", domain.RoleClient)
	require.NoError(t, err)

	_, err = s.Login(ctx, "bob", "wrong")
	assert.True(t, IsUnauthorized(err))
	_, err = s.Login(ctx, "nobody", "pw")
	assert.True(t, IsUnauthorized(err))
}

func TestVerify_Rejects(t *testing.T) {
	s := newService()
	sess, err := s.Register(context.Background(), "bob", "pw", domain.RoleClient)
	require.NoError(t, err)

	t.Run("other secret", func(t *testing.T) {
		other := NewService(Config{Secret: []byte("another"), Cost: bcrypt.MinCost})
		_, err := other.Verify(sess.AccessToken)
		assert.True(t, IsUnauthorized(err))
	})

	t.Run("expired", func(t *testing.T) {
		s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { s.now = time.Now }()
		_, err := s.Verify(sess.AccessToken)
		assert.True(t, IsUnauthorized(err))
	})

	t.Run("none algorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
			Role:             domain.RoleOwner,
			RegisteredClaims: jwt.RegisteredClaims{Subject: "1", Issuer: issuer},
		})
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = s.Verify(signed)
		assert.True(t, IsUnauthorized(err))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := s.Verify("not-a-token")
		assert.True(t, IsUnauthorized(err))
	})
}
