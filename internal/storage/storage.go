package storage

import (
	"context"
	"errors"
	"sync"
)

// ErrUnavailable reports that the backing store could not be reached.
var ErrUnavailable = errors.New("storage unavailable")

// Storage is a string key/value store holding serialized state.
type Storage interface {
	Read(ctx context.Context, key string) (value string, found bool, err error)
	Write(ctx context.Context, key, value string) error
}

type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Read(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Write(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Noop is used where nothing should be persisted: reads find nothing and
// writes are discarded.
type Noop struct{}

func (Noop) Read(context.Context, string) (string, bool, error) { return "", false, nil }

func (Noop) Write(context.Context, string, string) error { return nil }
