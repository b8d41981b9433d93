// Package kv abstracts the persistent key-value storage the cart lives in.
// Production uses Redis; tests use the in-memory implementation.
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound reports an absent key.
var ErrNotFound = errors.New("kv: key not found")

// Store is the minimal surface the storefront needs: get, set, remove, and
// a conditional set used for one-shot guards.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
}

// Watcher delivers change notifications for keys written by other execution
// contexts sharing the same store. Writes made through this process are not
// echoed back.
type Watcher interface {
	Watch(ctx context.Context, fn func(key string)) error
}
