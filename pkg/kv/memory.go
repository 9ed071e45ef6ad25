package kv

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryKV keeps everything in process. It backs tests and single-process
// development runs.
type MemoryKV struct {
	entries *xsync.MapOf[string, memoryEntry]
	now     func() time.Time
}

func NewMemory() *MemoryKV {
	return &MemoryKV{
		entries: xsync.NewMapOf[memoryEntry](),
		now:     time.Now,
	}
}

func (m *MemoryKV) Get(ctx context.Context, key string) (string, error) {
	entry, ok := m.entries.Load(key)
	if !ok {
		return "", ErrNotFound
	}

	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		m.entries.Delete(key)
		return "", ErrNotFound
	}

	return entry.value, nil
}

func (m *MemoryKV) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}

	m.entries.Store(key, entry)
	return nil
}

func (m *MemoryKV) Delete(ctx context.Context, key string) error {
	m.entries.Delete(key)
	return nil
}

// Keys lists the live keys. Used by tests to assert on the stored layout.
func (m *MemoryKV) Keys() []string {
	var keys []string
	m.entries.Range(func(key string, entry memoryEntry) bool {
		if entry.expiresAt.IsZero() || m.now().Before(entry.expiresAt) {
			keys = append(keys, key)
		}
		return true
	})

	return keys
}
