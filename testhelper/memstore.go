package testhelper

import (
	"context"
	"sync"

	"github.com/sachinacharyaa/popChain/store"
)

var _ store.SettingsStore = (*MemSettings)(nil)

// MemSettings is a map-backed settings store.
type MemSettings struct {
	lk     sync.Mutex
	values map[string]string
}

func NewMemSettings() *MemSettings {
	return &MemSettings{values: make(map[string]string)}
}

func (m *MemSettings) Put(_ context.Context, key, value string) error {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemSettings) Get(_ context.Context, key string) (string, error) {
	m.lk.Lock()
	defer m.lk.Unlock()
	value, ok := m.values[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return value, nil
}

func (m *MemSettings) Delete(_ context.Context, key string) error {
	m.lk.Lock()
	defer m.lk.Unlock()
	delete(m.values, key)
	return nil
}
