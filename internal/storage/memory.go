package storage

import (
	"encoding/json"
	"sync"

	"github.com/starford/namohub/internal/models"
)

// Memory is an in-process Provider.
type Memory struct {
	mu      sync.Mutex
	items   []models.Item
	written bool
}

// NewMemory creates a Memory store seeded with items.
func NewMemory(items ...models.Item) *Memory {
	m := &Memory{}
	if len(items) > 0 {
		m.items = cloneAll(items)
		m.written = true
	}
	return m
}

// Load returns a copy of the stored collection.
func (m *Memory) Load() ([]models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneAll(m.items), nil
}

// Replace overwrites the collection with a copy of items.
func (m *Memory) Replace(items []models.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = cloneAll(items)
	m.written = true
	return nil
}

// Raw returns the collection serialized as JSON.
func (m *Memory) Raw() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.written {
		return nil, nil
	}
	return json.Marshal(m.items)
}

func cloneAll(items []models.Item) []models.Item {
	out := make([]models.Item, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}
