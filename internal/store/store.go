package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the slot holds nothing.
var ErrNotFound = errors.New("slot not found")

// Store is the persistence port: a key-value cell per named slot.
// Serialization of the slot contents is the caller's concern.
type Store interface {
	// Get returns the bytes stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set replaces the contents of key.
	Set(ctx context.Context, key string, data []byte) error

	// Clear removes key. Clearing an absent slot is not an error.
	Clear(ctx context.Context, key string) error
}
