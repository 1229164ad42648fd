package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Persisted keys. They are suffixed with the client id by the session layer.
const (
	FavoritesKey = "favorites-storage"
	ThemeKey     = "theme-storage"
)

// saveTimeout bounds a single save-after-mutate write
const saveTimeout = 5 * time.Second

// Backend is durable key-value storage for JSON-encoded values
type Backend interface {
	// Load decodes the value stored under key into dst. found is false when
	// nothing is stored.
	Load(ctx context.Context, key string, dst any) (found bool, err error)
	// Save overwrites the value stored under key.
	Save(ctx context.Context, key string, v any) error
}

// Bind loads the persisted value of key into cell, then keeps it persisted by
// saving the whole value after every mutation. A corrupt stored value is
// logged and replaced by the cell's current value on the next save. Save
// failures are logged and never reach the cell's writers. The returned
// function detaches the hook.
func Bind[T any](ctx context.Context, cell *Cell[T], backend Backend, key string, logger logrus.FieldLogger) (func(), error) {
	var loaded T
	found, err := backend.Load(ctx, key, &loaded)
	switch {
	case errors.Is(err, ErrCorrupt):
		logger.WithError(err).WithField("key", key).Warn("Ignoring corrupt persisted state")
		found = false
	case err != nil:
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}
	if found {
		cell.Set(loaded)
	}

	return cell.Subscribe(func(v T) {
		saveCtx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()

		if err := backend.Save(saveCtx, key, v); err != nil {
			logger.WithError(err).WithField("key", key).Error("Failed to persist state")
		}
	}), nil
}

// ErrCorrupt is returned by backends when a stored value cannot be decoded
var ErrCorrupt = errors.New("corrupt stored value")

// MemoryBackend keeps values in process memory. Values are stored encoded so
// Load always returns a fresh copy.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

func (m *MemoryBackend) Load(_ context.Context, key string, dst any) (bool, error) {
	m.mu.RLock()
	raw, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return true, nil
}

func (m *MemoryBackend) Save(_ context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	m.mu.Lock()
	m.data[key] = raw
	m.mu.Unlock()
	return nil
}
