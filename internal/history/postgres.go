package history

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	_ "github.com/lib/pq"
)

// PostgresStore keeps history in a shared PostgreSQL database
type PostgresStore struct {
	*sqlStore
}

// NewPostgresStore connects to PostgreSQL and applies the history schema.
func NewPostgresStore(ctx context.Context, connectionString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := migrate(ctx, db, goose.DialectPostgres, "postgres"); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &PostgresStore{
		sqlStore: newSQLStore(
			db, queries{
				put: `INSERT INTO task_history (task_id, seen_at) VALUES ($1, $2)
				      ON CONFLICT (task_id) DO UPDATE SET seen_at = EXCLUDED.seen_at`,
				list: `SELECT task_id, seen_at FROM task_history ORDER BY seen_at DESC, task_id
				       LIMIT CASE WHEN $1 < 0 THEN NULL ELSE $1 END`,
			},
		),
	}, nil
}
