// Package history remembers the tasks a user has looked at, most recent first.
package history

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ErrEmptyTaskID is returned by Put for an empty id.
var ErrEmptyTaskID = errors.New("task id is required")

// Entry is one remembered task.
type Entry struct {
	TaskID string    `json:"taskId"`
	SeenAt time.Time `json:"seenAt"`
}

// Store keeps the seen task ids. Put is idempotent: storing an id again only
// refreshes when it was seen.
type Store interface {
	Put(ctx context.Context, taskID string) error
	// List returns up to limit entries, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Open returns the store for backend. dsn is a file path for sqlite and a
// connection string for postgres; memory ignores it.
func Open(ctx context.Context, backend, dsn string) (Store, error) {
	switch backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendSQLite:
		return NewSQLiteStore(ctx, dsn)
	case BackendPostgres:
		return NewPostgresStore(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown history backend %q", backend)
	}
}

// MemoryStore is a Store that lives as long as the process
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *MemoryStore) Put(_ context.Context, taskID string) error {
	if taskID == "" {
		return ErrEmptyTaskID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[taskID] = s.now().UTC()
	return nil
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	entries := make([]Entry, 0, len(s.entries))
	for id, seen := range s.entries {
		entries = append(entries, Entry{TaskID: id, SeenAt: seen})
	}
	s.mu.RUnlock()

	sortNewestFirst(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func sortNewestFirst(entries []Entry) {
	sort.Slice(
		entries, func(i, j int) bool {
			if !entries[i].SeenAt.Equal(entries[j].SeenAt) {
				return entries[i].SeenAt.After(entries[j].SeenAt)
			}
			return entries[i].TaskID < entries[j].TaskID
		},
	)
}
