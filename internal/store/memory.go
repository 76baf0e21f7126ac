package store

import (
	"context"
	"slices"
	"sync"

	"github.com/erazemk/zaloga/internal/model"
)

// Memory is a Store backed by a map, with a slice recording insertion order.
type Memory struct {
	mu    sync.RWMutex
	items map[string]model.Item
	order []string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]model.Item)}
}

// Create inserts a new item.
func (m *Memory) Create(_ context.Context, item model.Item) (model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if item.ItemCode == "" {
		code, err := newItemCode(func(c string) (bool, error) {
			_, ok := m.items[c]
			return ok, nil
		})
		if err != nil {
			return model.Item{}, err
		}
		item.ItemCode = code
	}

	if _, ok := m.items[item.ItemCode]; ok {
		return model.Item{}, ErrDuplicateItemCode
	}

	m.items[item.ItemCode] = item.Clone()
	m.order = append(m.order, item.ItemCode)
	return item, nil
}

// Get returns an item by code.
func (m *Memory) Get(_ context.Context, code string) (model.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.items[code]
	if !ok {
		return model.Item{}, ErrItemNotFound
	}
	return item.Clone(), nil
}

// Update replaces an item wholesale, keeping its position in the order.
func (m *Memory) Update(_ context.Context, code string, item model.Item) (model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[code]; !ok {
		return model.Item{}, ErrItemNotFound
	}
	if item.ItemCode != code {
		return model.Item{}, ErrItemCodeMismatch
	}

	m.items[code] = item.Clone()
	return item, nil
}

// Delete removes an item.
func (m *Memory) Delete(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[code]; !ok {
		return ErrItemNotFound
	}
	delete(m.items, code)
	if i := slices.Index(m.order, code); i >= 0 {
		m.order = slices.Delete(m.order, i, i+1)
	}
	return nil
}

// Search scans all items in insertion order.
func (m *Memory) Search(_ context.Context, filter model.SearchFilter) ([]model.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := []model.Item{}
	for _, code := range m.order {
		item := m.items[code]
		if filter.Matches(item) {
			results = append(results, item.Clone())
		}
	}
	return results, nil
}
