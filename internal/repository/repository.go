package repository

import (
	"context"
	"errors"
)

// ErrNotFound is returned by KVStore.Get for a missing key.
var ErrNotFound = errors.New("key not found")

// KVStore is a durable string key-value store.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
