// Package options is the persistent key/value settings store the plugin
// reads its configuration from. Values are plain strings; booleans are
// stored as "1" and "0".
package options

import (
	"context"
	"strings"
	"sync"
)

// Store is the settings store contract.
type Store interface {
	// Get returns the stored value and whether the option exists.
	Get(ctx context.Context, name string) (value string, ok bool, err error)
	// Add creates the option only if it does not exist yet.
	Add(ctx context.Context, name, value string) (added bool, err error)
	// Update creates or overwrites the option.
	Update(ctx context.Context, name, value string) error
	Delete(ctx context.Context, name string) error
}

// GetString returns the option value or def when it is absent.
func GetString(ctx context.Context, s Store, name, def string) (string, error) {
	v, ok, err := s.Get(ctx, name)
	if err != nil {
		return def, err
	}
	if !ok {
		return def, nil
	}
	return v, nil
}

// GetBool returns the option coerced with Truthy, or def when it is absent.
func GetBool(ctx context.Context, s Store, name string, def bool) (bool, error) {
	v, ok, err := s.Get(ctx, name)
	if err != nil {
		return def, err
	}
	if !ok {
		return def, nil
	}
	return Truthy(v), nil
}

// Truthy coerces a stored or submitted value to a boolean. Empty, "0",
// "false", "off" and "no" are false; anything else is true.
func Truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "off", "no":
		return false
	}
	return true
}

// FormatBool is the stored form of a boolean option.
func FormatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// MemoryStore keeps options in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, name string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[name]
	return v, ok, nil
}

func (m *MemoryStore) Add(_ context.Context, name, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.values[name]; exists {
		return false, nil
	}
	m.values[name] = value
	return true, nil
}

func (m *MemoryStore) Update(_ context.Context, name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[name] = value
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, name)
	return nil
}
