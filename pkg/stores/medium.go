package stores

import (
	"context"
	"fmt"
	"sync"
)

// Medium is a persistent key/value backend holding one serialized collection
// per key. Implementations must be safe for concurrent use.
type Medium interface {
	// Init opens connections and prepares the backend.
	Init(ctx context.Context) error
	// Get returns the raw value stored under key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set replaces the value stored under key in a single write.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases the backend.
	Close() error
}

// Watcher is implemented by media that can report writes made by other
// processes sharing the same backend.
type Watcher interface {
	Watch(ctx context.Context, fn func(key string)) error
}

var _ Medium = (*MemoryMedium)(nil)

// MemoryMedium keeps collections in process memory. It is used in tests and
// for ephemeral sessions.
type MemoryMedium struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryMedium creates an empty in-memory medium.
func NewMemoryMedium() *MemoryMedium {
	return &MemoryMedium{values: make(map[string]string)}
}

func (m *MemoryMedium) Init(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryMedium) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryMedium) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("key is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryMedium) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *MemoryMedium) Close() error {
	return nil
}
