// Package store persists summit state as JSON values under string keys.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/idilsaglam/summit/internal/store/jsonstore"
	"github.com/idilsaglam/summit/internal/store/sqlitestore"
)

// Well-known keys.
const (
	KeyGoals          = "goals"
	KeyUserEmail      = "userEmail"
	KeyStreak         = "streak"
	KeyDailyProgress  = "dailyProgress"
	KeyLastRecurrence = "lastRecurrence"
)

// KV is a synchronous key-value store of JSON documents.
// Get reports found=false with a nil error when key has never been written.
type KV interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Put(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open returns the backend named by backend ("json" or "sqlite") rooted at dir.
func Open(ctx context.Context, backend, dir string) (KV, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "json":
		return jsonstore.Open(dir)
	case "sqlite":
		return sqlitestore.Open(ctx, dir)
	}
	return nil, fmt.Errorf("unknown store backend %q (want json|sqlite)", backend)
}

// Memory is an in-process KV. Values are kept encoded so callers never
// share memory with the store.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte

	// FailPut, when set, is returned from every Put.
	FailPut error
}

func NewMemory() *Memory { return &Memory{data: map[string][]byte{}} }

func (m *Memory) Get(_ context.Context, key string, dst any) (bool, error) {
	m.mu.Lock()
	b, ok := m.data[key]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return true, fmt.Errorf("json unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (m *Memory) Put(_ context.Context, key string, v any) error {
	if m.FailPut != nil {
		return m.FailPut
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal %s: %w", key, err)
	}
	m.mu.Lock()
	m.data[key] = b
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }
