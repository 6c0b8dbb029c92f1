package history

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	idA = "fN1SbArXTPSVFNUvaOlinQ"
	idB = "Qx3nW1wqTZ2Kb4d0hE8Xtw"
	idC = "Xj2c2sN1QSmU7ZQ3hY4Jtg"
)

// stepClock returns a clock that advances one second per call.
func stepClock() func() time.Time {
	now := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func ids(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.TaskID)
	}
	return out
}

type storeFactory func(t *testing.T) Store

func memoryFactory(t *testing.T) Store {
	s := NewMemoryStore()
	s.now = stepClock()
	return s
}

func sqliteFactory(t *testing.T) Store {
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	s.now = stepClock()
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func postgresFactory(t *testing.T) Store {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping PostgreSQL tests")
	}
	s, err := NewPostgresStore(context.Background(), dbURL)
	require.NoError(t, err)
	s.now = stepClock()

	_, _ = s.db.Exec("DELETE FROM task_history")
	t.Cleanup(
		func() {
			_, _ = s.db.Exec("DELETE FROM task_history")
			_ = s.Close()
		},
	)
	return s
}

func TestStores(t *testing.T) {
	factories := map[string]storeFactory{
		"memory":   memoryFactory,
		"sqlite":   sqliteFactory,
		"postgres": postgresFactory,
	}

	for name, factory := range factories {
		t.Run(
			name, func(t *testing.T) {
				t.Run(
					"newest first", func(t *testing.T) {
						s := factory(t)
						ctx := context.Background()
						require.NoError(t, s.Put(ctx, idA))
						require.NoError(t, s.Put(ctx, idB))
						require.NoError(t, s.Put(ctx, idC))

						entries, err := s.List(ctx, 0)
						require.NoError(t, err)
						assert.Equal(t, []string{idC, idB, idA}, ids(entries))
						assert.True(t, entries[0].SeenAt.After(entries[1].SeenAt))
					},
				)

				t.Run(
					"put is idempotent and refreshes", func(t *testing.T) {
						s := factory(t)
						ctx := context.Background()
						require.NoError(t, s.Put(ctx, idA))
						require.NoError(t, s.Put(ctx, idB))
						require.NoError(t, s.Put(ctx, idA))

						entries, err := s.List(ctx, -1)
						require.NoError(t, err)
						assert.Equal(t, []string{idA, idB}, ids(entries))
					},
				)

				t.Run(
					"limit", func(t *testing.T) {
						s := factory(t)
						ctx := context.Background()
						for _, id := range []string{idA, idB, idC} {
							require.NoError(t, s.Put(ctx, id))
						}

						entries, err := s.List(ctx, 2)
						require.NoError(t, err)
						assert.Equal(t, []string{idC, idB}, ids(entries))
					},
				)

				t.Run(
					"empty id", func(t *testing.T) {
						s := factory(t)
						assert.ErrorIs(t, s.Put(context.Background(), ""), ErrEmptyTaskID)

						entries, err := s.List(context.Background(), 0)
						require.NoError(t, err)
						assert.Empty(t, entries)
					},
				)
			},
		)
	}
}

func TestSQLiteStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, idA))
	require.NoError(t, s.Close())

	// reopening runs migrations again without error
	s, err = NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	entries, err := s.List(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{idA}, ids(entries))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, BackendMemory, "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, BackendSQLite, filepath.Join(t.TempDir(), "h.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	_ = s.Close()

	_, err = Open(ctx, "redis", "")
	assert.Error(t, err)

	_, err = Open(ctx, BackendSQLite, "")
	assert.Error(t, err)
}

type failingStore struct {
	MemoryStore
}

func (f *failingStore) Put(context.Context, string) error {
	return errors.New("disk full")
}

func TestRecorder(t *testing.T) {
	store := NewMemoryStore()
	r := NewRecorder(store)
	ctx := context.Background()

	r.Record(ctx, idA)
	r.Record(ctx, "")
	r.Record(ctx, "not-a-task-id")
	r.Record(ctx, "-N1SbArXTPSVFNUvaOlinQ!")

	entries, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{idA}, ids(entries))

	// store errors do not escape
	NewRecorder(&failingStore{}).Record(ctx, idA)
}
