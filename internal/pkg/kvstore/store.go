// Package kvstore is the client's durable key-value persistence: the one
// piece of local state (session token, user, cart) that survives restarts.
package kvstore

import (
	"context"
	"errors"
	"fmt"
)

// Store reads and writes opaque string values by key. Deleting a missing key
// is not an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

var ErrUnknownBackend = errors.New("kvstore: unknown backend")

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// CheckBackend validates a backend name from configuration.
func CheckBackend(name string) error {
	switch name {
	case BackendMemory, BackendSQLite, BackendRedis:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownBackend, name)
}
