// Package readstate persists per-entry read flags as whole maps under a
// fixed key. There is no partial update: callers read the map, change a
// copy, and write the full map back. Concurrent writers race and the last
// write wins.
package readstate

import (
	"context"
	"encoding/json"
	"fmt"
	gosync "sync"

	"github.com/workforge/forgedesk/internal/model"
)

// Store reads and replaces one read-status map.
type Store interface {
	Get(ctx context.Context) (model.ReadStatusMap, error)
	Set(ctx context.Context, m model.ReadStatusMap) error
}

// ValueStore is the raw key/value persistence a KVStore writes through.
// store.SQLiteStore satisfies it.
type ValueStore interface {
	GetValue(ctx context.Context, key string) ([]byte, bool, error)
	SetValue(ctx context.Context, key string, value []byte) error
}

// KVStore keeps a read-status map JSON-encoded under a single key.
type KVStore struct {
	values ValueStore
	key    string
}

// NewKVStore returns a Store persisting under key.
func NewKVStore(values ValueStore, key string) *KVStore {
	return &KVStore{values: values, key: key}
}

// Key returns the persistence key.
func (s *KVStore) Key() string {
	return s.key
}

// Get returns the stored map, or an empty map when nothing was written yet.
func (s *KVStore) Get(ctx context.Context) (model.ReadStatusMap, error) {
	raw, ok, err := s.values.GetValue(ctx, s.key)
	if err != nil {
		return nil, err
	}
	if !ok || len(raw) == 0 {
		return model.ReadStatusMap{}, nil
	}

	m := model.ReadStatusMap{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decoding read status %q: %w", s.key, err)
	}
	return m, nil
}

// Set replaces the stored map.
func (s *KVStore) Set(ctx context.Context, m model.ReadStatusMap) error {
	if m == nil {
		m = model.ReadStatusMap{}
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding read status %q: %w", s.key, err)
	}
	return s.values.SetValue(ctx, s.key, raw)
}

// MemoryStore is an in-process Store. It hands out copies so callers
// cannot mutate the stored map behind its back.
type MemoryStore struct {
	mu gosync.Mutex
	m  model.ReadStatusMap
}

// NewMemory returns an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{m: model.ReadStatusMap{}}
}

// Get returns a copy of the stored map.
func (s *MemoryStore) Get(context.Context) (model.ReadStatusMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.Clone(), nil
}

// Set replaces the stored map with a copy of m.
func (s *MemoryStore) Set(_ context.Context, m model.ReadStatusMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m = m.Clone()
	return nil
}

// Pair bundles the two maps the client keeps.
type Pair struct {
	Notifications Store
	Announcements Store
}

// NewKVPair opens both read-status maps on the same key/value store.
func NewKVPair(values ValueStore) Pair {
	return Pair{
		Notifications: NewKVStore(values, model.NotificationReadStatusKey),
		Announcements: NewKVStore(values, model.AnnouncementReadStatusKey),
	}
}

// NewMemoryPair returns two independent in-memory maps.
func NewMemoryPair() Pair {
	return Pair{
		Notifications: NewMemory(),
		Announcements: NewMemory(),
	}
}
