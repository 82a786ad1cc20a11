package store

import (
	"context"
	"sort"
	"sync"
)

// Ensure Memory implements the interface.
var _ Store = (*Memory)(nil)

// Memory is an in-process Store.
type Memory struct {
	mu   sync.RWMutex
	data map[Key]string
}

func NewMemory() *Memory {
	return &Memory{data: make(map[Key]string)}
}

func (m *Memory) Get(_ context.Context, key Key) (string, bool, error) {
	if err := key.Validate(); err != nil {
		return "", false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key Key, value string) error {
	if err := key.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *Memory) Delete(_ context.Context, key Key) error {
	if err := key.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) Keys(_ context.Context, document, namespace string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var names []string
	for k := range m.data {
		if k.Document == document && k.Namespace == namespace {
			names = append(names, k.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *Memory) Close() error { return nil }
