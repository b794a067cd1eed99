package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client    *redis.Client
	namespace string
}

// NewRedisStore keeps every key under "storefront:<namespace>:".
func NewRedisStore(addr, namespace string) Store {
	return NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: addr}), namespace)
}

func NewRedisStoreFromClient(client *redis.Client, namespace string) Store {
	return &redisStore{client: client, namespace: namespace}
}

func (r redisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, r.GenerateKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis: get %q: %w", key, err)
	}
	return val, true, nil
}

func (r redisStore) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.GenerateKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis: set %q: %w", key, err)
	}
	return nil
}

func (r redisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.GenerateKey(key)).Err(); err != nil {
		return fmt.Errorf("redis: delete %q: %w", key, err)
	}
	return nil
}

func (r redisStore) GenerateKey(key string) string {
	return fmt.Sprintf("storefront:%s:%s", r.namespace, key)
}

func (r redisStore) Close() error {
	return r.client.Close()
}
