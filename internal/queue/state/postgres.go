package state

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"

	_ "github.com/lib/pq"

	"github.com/danpasecinic/taskaction/internal/types"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// PostgresStore is a PostgreSQL implementation of StateStore
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL state store
func NewPostgresStore(connectionString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &PostgresStore{db: db}

	if err := store.runMigrations(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// runMigrations applies database schema using goose
func (s *PostgresStore) runMigrations() error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(s.db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// AddTask adds a new task to the store
func (s *PostgresStore) AddTask(task TaskRecord) error {
	definitionJSON, err := json.Marshal(task.Definition)
	if err != nil {
		return fmt.Errorf("failed to marshal definition: %w", err)
	}
	statusJSON, err := json.Marshal(task.Status)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	query := `
		INSERT INTO tasks (task_id, task_group_id, definition, status, created, expires)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (task_id) DO NOTHING
	`

	res, err := s.db.Exec(
		query,
		task.TaskID,
		nullString(task.Definition.TaskGroupID),
		definitionJSON,
		statusJSON,
		task.Definition.Created,
		task.Definition.Expires,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check insert: %w", err)
	}
	if rows == 0 {
		return ErrTaskAlreadyExists
	}

	if err := s.addDependencies(task); err != nil {
		return err
	}
	return nil
}

func (s *PostgresStore) addDependencies(task TaskRecord) error {
	for _, dep := range task.Definition.Dependencies {
		_, err := s.db.Exec(
			`INSERT INTO task_dependencies (task_id, dependency_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			task.TaskID, dep,
		)
		if err != nil {
			return fmt.Errorf("failed to insert dependency: %w", err)
		}
	}
	return nil
}

// GetTask retrieves a task by ID
func (s *PostgresStore) GetTask(taskID string) (TaskRecord, error) {
	row := s.db.QueryRow(`SELECT task_id, definition, status FROM tasks WHERE task_id = $1`, taskID)

	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return TaskRecord{}, ErrTaskNotFound
	}
	if err != nil {
		return TaskRecord{}, err
	}
	return task, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (TaskRecord, error) {
	var task TaskRecord
	var definitionJSON, statusJSON []byte

	if err := row.Scan(&task.TaskID, &definitionJSON, &statusJSON); err != nil {
		return TaskRecord{}, err
	}
	if err := json.Unmarshal(definitionJSON, &task.Definition); err != nil {
		return TaskRecord{}, fmt.Errorf("failed to unmarshal definition: %w", err)
	}
	if err := json.Unmarshal(statusJSON, &task.Status); err != nil {
		return TaskRecord{}, fmt.Errorf("failed to unmarshal status: %w", err)
	}
	return task, nil
}

// UpdateTaskStatus applies update to the stored status inside a transaction
// holding the row lock.
func (s *PostgresStore) UpdateTaskStatus(taskID string, update StatusUpdate) (types.TaskStatus, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return types.TaskStatus{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var statusJSON []byte
	err = tx.QueryRow(`SELECT status FROM tasks WHERE task_id = $1 FOR UPDATE`, taskID).Scan(&statusJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return types.TaskStatus{}, ErrTaskNotFound
	}
	if err != nil {
		return types.TaskStatus{}, fmt.Errorf("failed to load status: %w", err)
	}

	var status types.TaskStatus
	if err := json.Unmarshal(statusJSON, &status); err != nil {
		return types.TaskStatus{}, fmt.Errorf("failed to unmarshal status: %w", err)
	}
	if err := update(&status); err != nil {
		return types.TaskStatus{}, err
	}

	statusJSON, err = json.Marshal(status)
	if err != nil {
		return types.TaskStatus{}, fmt.Errorf("failed to marshal status: %w", err)
	}
	if _, err := tx.Exec(`UPDATE tasks SET status = $1 WHERE task_id = $2`, statusJSON, taskID); err != nil {
		return types.TaskStatus{}, fmt.Errorf("failed to update status: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return types.TaskStatus{}, fmt.Errorf("failed to commit status: %w", err)
	}
	return status, nil
}

// ListTasks retrieves all tasks
func (s *PostgresStore) ListTasks() ([]TaskRecord, error) {
	rows, err := s.db.Query(`SELECT task_id, definition, status FROM tasks ORDER BY created, task_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	return collectTasks(rows)
}

// ListDependents returns the tasks that depend on taskID
func (s *PostgresStore) ListDependents(taskID string) ([]TaskRecord, error) {
	rows, err := s.db.Query(
		`
		SELECT t.task_id, t.definition, t.status
		FROM tasks t
		JOIN task_dependencies d ON d.task_id = t.task_id
		WHERE d.dependency_id = $1
		ORDER BY t.created, t.task_id
	`, taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query dependents: %w", err)
	}
	return collectTasks(rows)
}

func collectTasks(rows *sql.Rows) ([]TaskRecord, error) {
	defer func() { _ = rows.Close() }()

	var tasks []TaskRecord
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}
	return tasks, nil
}

// DeleteTask removes a task and its dependency edges
func (s *PostgresStore) DeleteTask(taskID string) error {
	result, err := s.db.Exec(`DELETE FROM tasks WHERE task_id = $1`, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// SetActions stores the actions declared for a task group
func (s *PostgresStore) SetActions(taskGroupID string, actions types.TaskActions) error {
	actionsJSON, err := json.Marshal(actions)
	if err != nil {
		return fmt.Errorf("failed to marshal actions: %w", err)
	}

	_, err = s.db.Exec(
		`
		INSERT INTO task_group_actions (task_group_id, actions) VALUES ($1, $2)
		ON CONFLICT (task_group_id) DO UPDATE SET actions = EXCLUDED.actions
	`, taskGroupID, actionsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to store actions: %w", err)
	}
	return nil
}

// GetActions retrieves the actions declared for a task group
func (s *PostgresStore) GetActions(taskGroupID string) (types.TaskActions, error) {
	var actionsJSON []byte
	err := s.db.QueryRow(`SELECT actions FROM task_group_actions WHERE task_group_id = $1`, taskGroupID).
		Scan(&actionsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return types.TaskActions{}, ErrActionsNotFound
	}
	if err != nil {
		return types.TaskActions{}, fmt.Errorf("failed to query actions: %w", err)
	}

	var actions types.TaskActions
	if err := json.Unmarshal(actionsJSON, &actions); err != nil {
		return types.TaskActions{}, fmt.Errorf("failed to unmarshal actions: %w", err)
	}
	return actions, nil
}

// AddPurgeRequest records a cache purge for a worker type
func (s *PostgresStore) AddPurgeRequest(req types.PurgeCacheRequest) error {
	_, err := s.db.Exec(
		`INSERT INTO purge_requests (provisioner_id, worker_type, cache_name, before) VALUES ($1, $2, $3, $4)`,
		req.ProvisionerID, req.WorkerType, req.CacheName, req.Before,
	)
	if err != nil {
		return fmt.Errorf("failed to insert purge request: %w", err)
	}
	return nil
}

// ListPurgeRequests returns purges for a worker type made after since
func (s *PostgresStore) ListPurgeRequests(provisionerID, workerType string, since time.Time) (
	[]types.PurgeCacheRequest, error,
) {
	rows, err := s.db.Query(
		`
		SELECT provisioner_id, worker_type, cache_name, before
		FROM purge_requests
		WHERE provisioner_id = $1 AND worker_type = $2 AND before > $3
		ORDER BY before, id
	`, provisionerID, workerType, since,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query purge requests: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var reqs []types.PurgeCacheRequest
	for rows.Next() {
		var req types.PurgeCacheRequest
		if err := rows.Scan(&req.ProvisionerID, &req.WorkerType, &req.CacheName, &req.Before); err != nil {
			return nil, fmt.Errorf("failed to scan purge request: %w", err)
		}
		req.Before = req.Before.UTC()
		reqs = append(reqs, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purge requests: %w", err)
	}
	return reqs, nil
}

// DeletePurgeRequestsBefore drops purge requests older than before
func (s *PostgresStore) DeletePurgeRequestsBefore(before time.Time) (int, error) {
	result, err := s.db.Exec(`DELETE FROM purge_requests WHERE before < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete purge requests: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rows), nil
}

// PutHook creates or replaces a hook
func (s *PostgresStore) PutHook(hook types.Hook) error {
	hookJSON, err := json.Marshal(hook)
	if err != nil {
		return fmt.Errorf("failed to marshal hook: %w", err)
	}

	_, err = s.db.Exec(
		`
		INSERT INTO hooks (hook_group_id, hook_id, hook) VALUES ($1, $2, $3)
		ON CONFLICT (hook_group_id, hook_id) DO UPDATE SET hook = EXCLUDED.hook
	`, hook.HookGroupID, hook.HookID, hookJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to store hook: %w", err)
	}
	return nil
}

// GetHook retrieves a hook
func (s *PostgresStore) GetHook(hookGroupID, hookID string) (types.Hook, error) {
	var hookJSON []byte
	err := s.db.QueryRow(`SELECT hook FROM hooks WHERE hook_group_id = $1 AND hook_id = $2`, hookGroupID, hookID).
		Scan(&hookJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Hook{}, ErrHookNotFound
	}
	if err != nil {
		return types.Hook{}, fmt.Errorf("failed to query hook: %w", err)
	}

	var hook types.Hook
	if err := json.Unmarshal(hookJSON, &hook); err != nil {
		return types.Hook{}, fmt.Errorf("failed to unmarshal hook: %w", err)
	}
	return hook, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
