// Package storage defines the key-value tiers the storefront client mirrors
// its session and cart state into.
package storage

import (
	"context"
	"errors"
)

// Keys under which client state is stored. Both tiers use the same keys.
const (
	KeyUser      = "user"
	KeyToken     = "token"
	KeyCartItems = "cartItems"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("storage: key not found")

// Store is a key-value store with atomic per-key operations. The durable
// tier survives process restarts; the ephemeral tier lives only for the
// current session. Delete on a missing key is not an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
