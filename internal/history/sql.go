package history

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"time"

	"github.com/pressly/goose/v3"
)

//go:embed migrations
var embedMigrations embed.FS

type queries struct {
	put  string
	list string
}

// sqlStore is the database backed Store shared by sqlite and postgres.
type sqlStore struct {
	db      *sql.DB
	queries queries
	now     func() time.Time
}

func newSQLStore(db *sql.DB, q queries) *sqlStore {
	return &sqlStore{db: db, queries: q, now: time.Now}
}

// migrate applies the migrations under migrations/<dir>; each dialect has
// its own set.
func migrate(ctx context.Context, db *sql.DB, dialect goose.Dialect, dir string) error {
	fsys, err := fs.Sub(embedMigrations, "migrations/"+dir)
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *sqlStore) Put(ctx context.Context, taskID string) error {
	if taskID == "" {
		return ErrEmptyTaskID
	}
	seen := s.now().UTC().UnixMicro()
	if _, err := s.db.ExecContext(ctx, s.queries.put, taskID, seen); err != nil {
		return fmt.Errorf("failed to record task %s: %w", taskID, err)
	}
	return nil
}

func (s *sqlStore) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, s.queries.list, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var (
			taskID string
			seen   int64
		)
		if err := rows.Scan(&taskID, &seen); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		entries = append(entries, Entry{TaskID: taskID, SeenAt: time.UnixMicro(seen).UTC()})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return entries, nil
}

func (s *sqlStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
