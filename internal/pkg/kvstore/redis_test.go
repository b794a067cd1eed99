package kvstore

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore_GenerateKey(t *testing.T) {
	s := NewRedisStore("localhost:6379", "client").(*redisStore)
	defer s.Close()
	assert.Equal(t, "storefront:client:cart", s.GenerateKey("cart"))
}

func TestRedisStore_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	s := NewRedisStoreFromClient(client, "client")
	defer s.(io.Closer).Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, found, err := s.Get(ctx, "token")
	require.Error(t, err)
	assert.False(t, found)
	assert.Contains(t, err.Error(), `redis: get "token"`)

	assert.Error(t, s.Set(ctx, "token", "t"))
	assert.Error(t, s.Delete(ctx, "token"))
}
