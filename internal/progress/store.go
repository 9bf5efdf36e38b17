// Package progress persists wizard progress in a string-valued key-value
// store. Every read fails soft to "absent" and every write is best effort.
package progress

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by Store.Get when a key is absent.
var ErrNotFound = errors.New("key not found")

// Keys used in the durable store.
const (
	KeyProgress  = "linkwizard.progress"
	KeyCompleted = "linkwizard.completed"
	KeyIdentity  = "linkwizard.identity"
)

// Store is a durable string key-value store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Memory is an in-process Store.
type Memory struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemory creates an empty in-process store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
