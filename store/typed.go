package store

import (
	"context"
	"encoding/json"
)

// GetJSON decodes the value stored under key into a T.
// A missing key returns the zero value and false.
func GetJSON[T any](ctx context.Context, s Storage, key string) (T, bool, error) {
	var zero T
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, false, &SerializationError{Key: key, Err: err}
	}
	return v, true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON[T any](ctx context.Context, s Storage, key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return &SerializationError{Key: key, Err: err}
	}
	return s.Set(ctx, key, raw)
}
