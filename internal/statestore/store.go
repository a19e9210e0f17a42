// Package statestore keeps per-client state (carts, wishlists, identity
// sessions) behind a small keyed interface with in-memory and Redis backends.
package statestore

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("state not found")

// Store holds one value of T per client key.
type Store[T any] interface {
	Get(ctx context.Context, key string) (T, error)
	Set(ctx context.Context, key string, value T) error
	Delete(ctx context.Context, key string) error
}
