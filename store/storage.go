// Package store provides the key/value storage PromptCraft persists its
// API key and history under.
//
// Storage mirrors browser local storage: a flat namespace of keys holding
// JSON documents. MemoryStorage serves tests and session-scoped values;
// FileStorage keeps everything in a single JSON file on disk.
package store

import (
	"context"
	"encoding/json"
)

// Storage defines the interface for persistence backends.
// Implementations must be thread-safe.
type Storage interface {
	// Get retrieves a value by key. Returns nil, false, nil if not found.
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)

	// Set stores a value by key.
	Set(ctx context.Context, key string, value json.RawMessage) error

	// Delete removes a key. No error if key doesn't exist.
	Delete(ctx context.Context, key string) error

	// Keys returns all keys.
	Keys(ctx context.Context) ([]string, error)
}
