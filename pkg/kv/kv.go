// Package kv is the string key-value storage the identity records live in.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("key not found")

// KV is a flat string store. Get returns ErrNotFound for a missing or expired
// key. A zero ttl on Put means the key never expires.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

func GetJSON[T any](ctx context.Context, store KV, key string) (*T, error) {
	raw, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("cannot decode value of %s: %w", key, err)
	}

	return &v, nil
}

func PutJSON(ctx context.Context, store KV, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cannot encode value of %s: %w", key, err)
	}

	return store.Put(ctx, key, string(b), ttl)
}
