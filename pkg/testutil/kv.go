package testutil

import (
	"context"
	"time"

	"github.com/streamspigot/mastofeeder/pkg/kv"
)

// MockKV forwards to Inner unless a function field overrides the call.
type MockKV struct {
	Inner kv.KV

	GetFunc    func(ctx context.Context, key string) (string, error)
	PutFunc    func(ctx context.Context, key, value string, ttl time.Duration) error
	DeleteFunc func(ctx context.Context, key string) error
}

func NewMockKV() *MockKV {
	return &MockKV{Inner: kv.NewMemory()}
}

func (m *MockKV) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}

	return m.Inner.Get(ctx, key)
}

func (m *MockKV) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, key, value, ttl)
	}

	return m.Inner.Put(ctx, key, value, ttl)
}

func (m *MockKV) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}

	return m.Inner.Delete(ctx, key)
}
