package inventory

import (
	"context"
	"errors"
	"sync"
)

// memStorage is an in-memory Storage that counts writes.
type memStorage struct {
	mu      sync.Mutex
	data    map[string]string
	sets    int
	failSet bool
}

func newMemStorage() *memStorage {
	return &memStorage{data: make(map[string]string)}
}

func (m *memStorage) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return errors.New("quota exceeded")
	}
	m.sets++
	m.data[key] = value
	return nil
}

func (m *memStorage) writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}
