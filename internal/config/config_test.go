package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "taskaction.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "http://localhost:8080", cfg.Client.RootURL)
	assert.Equal(t, 30*time.Second, cfg.Client.Timeout)
	assert.Equal(t, "sqlite", cfg.History.Backend)
	assert.Equal(t, 20, cfg.History.Limit)
	assert.Equal(t, ":8080", cfg.Queue.Addr)
	assert.Equal(t, 24*time.Hour, cfg.Queue.PurgeRetention)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeFile(
		t, `
log:
  level: debug
client:
  root_url: https://queue.example.com
  timeout: 5s
history:
  backend: memory
  dsn:
queue:
  deadline_interval: 1m
`,
	)
	t.Setenv("TASKACTION_CLIENT_ROOT_URL", "https://override.example.com")
	t.Setenv("TASKACTION_QUEUE_PURGE_RETENTION", "2h")
	t.Setenv("TASKACTION_HISTORY_LIMIT", "5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "https://override.example.com", cfg.Client.RootURL)
	assert.Equal(t, 5*time.Second, cfg.Client.Timeout)
	assert.Equal(t, "memory", cfg.History.Backend)
	assert.NotEmpty(t, cfg.History.DSN, "null keeps the default")
	assert.Equal(t, 5, cfg.History.Limit)
	assert.Equal(t, time.Minute, cfg.Queue.DeadlineInterval)
	assert.Equal(t, 2*time.Hour, cfg.Queue.PurgeRetention)
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{
			name: "unknown log level",
			yaml: "log:\n  level: loud\n",
		},
		{
			name: "bad root url",
			env:  map[string]string{"TASKACTION_CLIENT_ROOT_URL": "not a url"},
		},
		{
			name: "postgres queue without database url",
			yaml: "queue:\n  store: postgres\n",
		},
		{
			name: "unknown history backend",
			env:  map[string]string{"TASKACTION_HISTORY_BACKEND": "redis"},
		},
		{
			name: "malformed yaml",
			yaml: "log: [\n",
		},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				path := ""
				if tt.yaml != "" {
					path = writeFile(t, tt.yaml)
				}
				for k, v := range tt.env {
					t.Setenv(k, v)
				}

				_, err := Load(path)
				assert.Error(t, err)
			},
		)
	}
}

func TestTransformEnvKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{name: "nested", key: "TASKACTION_QUEUE_DATABASE_URL", want: "queue.database_url"},
		{name: "single", key: "TASKACTION_LOG", want: "log"},
		{name: "double underscore", key: "TASKACTION_LOG__LEVEL", want: "log.level"},
		{name: "prefix only", key: "TASKACTION_", want: ""},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				got, _ := transformEnvKey(tt.key, "v")
				assert.Equal(t, tt.want, got)
			},
		)
	}
}
