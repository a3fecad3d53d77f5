package kv

import (
	"context"
	"iter"
	"maps"
	"slices"
	"strings"
	"sync"
)

// Memory is an in-memory Store. It is safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key Key) ([]byte, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	v, ok := m.data[key.String()]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(v), nil
}

func (m *Memory) Set(_ context.Context, key Key, value []byte) error {
	if err := key.validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.data[key.String()] = slices.Clone(value)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key Key) error {
	if err := key.validate(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.data, key.String())
	m.mu.Unlock()
	return nil
}

// List snapshots matching entries under the read lock and yields them
// sorted.
func (m *Memory) List(ctx context.Context, prefix Key) iter.Seq2[Entry, error] {
	p := prefixOf(prefix)
	m.mu.RLock()
	snap := make(map[string][]byte)
	for k, v := range m.data {
		if strings.HasPrefix(k, p) {
			snap[k] = slices.Clone(v)
		}
	}
	m.mu.RUnlock()

	return func(yield func(Entry, error) bool) {
		for _, k := range slices.Sorted(maps.Keys(snap)) {
			if err := ctx.Err(); err != nil {
				yield(Entry{}, err)
				return
			}
			if !yield(Entry{Key: parseKey(k), Value: snap[k]}, nil) {
				return
			}
		}
	}
}

func (m *Memory) BatchDelete(_ context.Context, keys []Key) error {
	for _, key := range keys {
		if err := key.validate(); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key.String())
	}
	return nil
}

func (m *Memory) Close() error {
	return nil
}

var _ Store = (*Memory)(nil)
