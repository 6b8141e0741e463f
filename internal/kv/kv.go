// Package kv is the durable key-value store the entity collections are
// persisted in. Values are opaque strings.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("kv: key not found")

// Store is a string key-value store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	// Atomic runs fn against a transactional view of the store. Writes made
	// through tx become visible only if fn returns nil.
	Atomic(ctx context.Context, fn func(tx Store) error) error
}
