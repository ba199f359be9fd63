package theme

import (
	"fmt"
	"log/slog"
	"sync"
)

type Theme string

const (
	Dark  Theme = "dark"
	Light Theme = "light"

	Default = Dark
)

// Parse validates a theme name.
func Parse(s string) (Theme, error) {
	switch Theme(s) {
	case Dark, Light:
		return Theme(s), nil
	default:
		return "", fmt.Errorf("unknown theme %q", s)
	}
}

// Next is the theme a toggle switches to.
func (t Theme) Next() Theme {
	if t == Light {
		return Dark
	}
	return Light
}

// Store persists the preference. Get reports ok=false when nothing is
// stored yet.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// Manager keeps one theme per visitor. A visitor without a stored
// preference sees Default; one visitor's choice never leaks to another.
type Manager struct {
	store Store
	key   string
	mu    sync.Mutex
}

func NewManager(store Store, key string) *Manager {
	return &Manager{store: store, key: key}
}

// Key is the store key holding the visitor's preference.
func (m *Manager) Key(visitor string) string {
	if visitor == "" {
		return m.key
	}
	return m.key + ":" + visitor
}

// Current returns the visitor's theme. A missing or invalid stored value
// yields Default; a read failure yields Default together with the error.
func (m *Manager) Current(visitor string) (Theme, error) {
	key := m.Key(visitor)

	value, ok, err := m.store.Get(key)
	if err != nil {
		return Default, fmt.Errorf("failed to read theme preference: %w", err)
	}
	if !ok {
		return Default, nil
	}

	t, err := Parse(value)
	if err != nil {
		slog.Warn("Ignoring stored theme", "key", key, "value", value)
		return Default, nil
	}
	return t, nil
}

// Toggle flips the visitor's theme and persists it. On a failed write the
// visitor keeps the previous theme.
func (m *Manager) Toggle(visitor string) (Theme, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, err := m.Current(visitor)
	if err != nil {
		return current, err
	}
	return m.apply(visitor, current, current.Next())
}

func (m *Manager) Set(visitor, value string) (Theme, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, err := m.Current(visitor)
	if err != nil {
		return current, err
	}

	t, err := Parse(value)
	if err != nil {
		return current, err
	}
	return m.apply(visitor, current, t)
}

func (m *Manager) apply(visitor string, previous, t Theme) (Theme, error) {
	if err := m.store.Set(m.Key(visitor), string(t)); err != nil {
		return previous, fmt.Errorf("failed to persist theme: %w", err)
	}
	slog.Debug("Theme applied", "visitor", visitor, "theme", t)
	return t, nil
}
