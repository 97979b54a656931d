// Package persist mirrors the shopping list to durable key-value storage and
// restores it at startup.
package persist

import (
	"context"
	"errors"
)

var (
	ErrKeyNotFound = errors.New("key not found")
	ErrClosed      = errors.New("storage is closed")
)

// KVStore is a byte-valued key-value store
type KVStore interface {
	GetItem(ctx context.Context, key string) ([]byte, error)
	SetItem(ctx context.Context, key string, value []byte) error
	RemoveItem(ctx context.Context, key string) error
	Close() error
}
