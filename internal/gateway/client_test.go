package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danpasecinic/taskaction/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTaskID = "fN1SbArXTPSVFNUvaOlinQ"

func newTestServer(t *testing.T, method, path string, status int, response any, check func(r *http.Request)) *Client {
	t.Helper()
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, method, r.Method)
				assert.Equal(t, path, r.URL.Path)
				if check != nil {
					check(r)
				}

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				_ = json.NewEncoder(w).Encode(response)
			},
		),
	)
	t.Cleanup(server.Close)
	return NewClient(server.URL+"/", 5*time.Second)
}

func TestClient_StatusCalls(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		call       func(c *Client) (*types.TaskStatus, error)
		statusCode int
		response   any
		wantErr    bool
		wantState  types.TaskState
	}{
		{
			name:       "schedule",
			path:       "/api/v1/tasks/" + testTaskID + "/schedule",
			call:       func(c *Client) (*types.TaskStatus, error) { return c.ScheduleTask(context.Background(), testTaskID) },
			statusCode: http.StatusOK,
			response:   types.TaskStatus{TaskID: testTaskID, State: types.TaskPending},
			wantState:  types.TaskPending,
		},
		{
			name:       "rerun",
			path:       "/api/v1/tasks/" + testTaskID + "/rerun",
			call:       func(c *Client) (*types.TaskStatus, error) { return c.RerunTask(context.Background(), testTaskID) },
			statusCode: http.StatusOK,
			response:   types.TaskStatus{TaskID: testTaskID, State: types.TaskPending},
			wantState:  types.TaskPending,
		},
		{
			name:       "cancel",
			path:       "/api/v1/tasks/" + testTaskID + "/cancel",
			call:       func(c *Client) (*types.TaskStatus, error) { return c.CancelTask(context.Background(), testTaskID) },
			statusCode: http.StatusOK,
			response:   types.TaskStatus{TaskID: testTaskID, State: types.TaskException},
			wantState:  types.TaskException,
		},
		{
			name:       "rerun conflict",
			path:       "/api/v1/tasks/" + testTaskID + "/rerun",
			call:       func(c *Client) (*types.TaskStatus, error) { return c.RerunTask(context.Background(), testTaskID) },
			statusCode: http.StatusConflict,
			response:   map[string]string{"code": "RequestConflict", "error": "task is not resolved"},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				client := newTestServer(t, http.MethodPost, tt.path, tt.statusCode, tt.response, nil)

				status, err := tt.call(client)
				if tt.wantErr {
					require.Error(t, err)
					assert.Nil(t, status)
					return
				}
				require.NoError(t, err)
				assert.Equal(t, testTaskID, status.TaskID)
				assert.Equal(t, tt.wantState, status.State)
			},
		)
	}
}

func TestClient_GetTask(t *testing.T) {
	client := newTestServer(
		t, http.MethodGet, "/api/v1/tasks/"+testTaskID, http.StatusOK,
		types.Task{
			TaskID: testTaskID,
			TaskDefinition: types.TaskDefinition{
				ProvisionerID: "proj-test",
				WorkerType:    "linux-small",
				Tags:          map[string]string{"platform": "linux"},
			},
			TaskActions: &types.TaskActions{Version: 1, Actions: []types.Action{{Name: "backfill"}}},
		},
		nil,
	)

	task, err := client.GetTask(context.Background(), testTaskID)
	require.NoError(t, err)
	assert.Equal(t, "proj-test", task.ProvisionerID)
	assert.Equal(t, "linux", task.Tags["platform"])
	require.NotNil(t, task.TaskActions)
	assert.Equal(t, "backfill", task.TaskActions.Actions[0].Name)
}

func TestClient_GetTaskNotFound(t *testing.T) {
	client := newTestServer(
		t, http.MethodGet, "/api/v1/tasks/"+testTaskID, http.StatusNotFound,
		map[string]string{"code": "ResourceNotFound", "error": "task not found"}, nil,
	)

	_, err := client.GetTask(context.Background(), testTaskID)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsConflict(err))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "ResourceNotFound", apiErr.Code)
	assert.Equal(t, "task not found", FormatError(err))
}

func TestClient_CreateTask(t *testing.T) {
	created := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	def := &types.TaskDefinition{
		ProvisionerID: "proj-test",
		WorkerType:    "linux-small",
		Created:       created,
		Deadline:      created.Add(time.Hour),
		Expires:       created.Add(24 * time.Hour),
		Payload:       map[string]any{"image": "node:20"},
	}

	client := newTestServer(
		t, http.MethodPut, "/api/v1/tasks/"+testTaskID, http.StatusOK,
		types.TaskStatus{TaskID: testTaskID, State: types.TaskPending},
		func(r *http.Request) {
			var got types.TaskDefinition
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			assert.Equal(t, "linux-small", got.WorkerType)
			assert.True(t, created.Equal(got.Created))
			assert.Equal(t, "node:20", got.Payload["image"])
		},
	)

	status, err := client.CreateTask(context.Background(), testTaskID, def)
	require.NoError(t, err)
	assert.Equal(t, types.TaskPending, status.State)

	_, err = client.CreateTask(context.Background(), testTaskID, nil)
	assert.Error(t, err)
}

func TestClient_PurgeWorkerCache(t *testing.T) {
	client := newTestServer(
		t, http.MethodPost, "/api/v1/purge-cache/proj-test/linux-small", http.StatusOK,
		map[string]string{"status": "ok"},
		func(r *http.Request) {
			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "npm-cache", body["cacheName"])
		},
	)

	require.NoError(t, client.PurgeWorkerCache(context.Background(), "proj-test", "linux-small", "npm-cache"))
}

func TestClient_TriggerHook(t *testing.T) {
	client := newTestServer(
		t, http.MethodPost, "/api/v1/hooks/project-releng/backfill/trigger", http.StatusOK,
		types.TaskStatus{TaskID: "Xj2c2sN1QSmU7ZQ3hY4Jtg", State: types.TaskPending},
		func(r *http.Request) {
			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, map[string]any{"depth": float64(2)}, body)
		},
	)

	status, err := client.TriggerHook(context.Background(), "project-releng", "backfill", map[string]any{"depth": 2})
	require.NoError(t, err)
	assert.Equal(t, "Xj2c2sN1QSmU7ZQ3hY4Jtg", status.TaskID)
}

func TestClient_PlainTextError(t *testing.T) {
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte("upstream unavailable\n"))
			},
		),
	)
	defer server.Close()

	err := NewClient(server.URL, time.Second).PurgeWorkerCache(context.Background(), "p", "w", "c")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream unavailable", FormatError(err))
}

func TestClient_ConnectionError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewClient(url, time.Second).ScheduleTask(context.Background(), testTaskID)
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestFormatError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "plain", err: errors.New("boom"), want: "boom"},
		{name: "api", err: &APIError{StatusCode: 409, Code: "RequestConflict", Message: "exists"}, want: "exists"},
		{name: "api without message", err: &APIError{StatusCode: 500}, want: "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				assert.Equal(t, tt.want, FormatError(tt.err))
			},
		)
	}
}

func TestAPIError_Error(t *testing.T) {
	err := &APIError{StatusCode: 409, Code: "RequestConflict", Message: "task exists"}
	assert.Equal(t, "RequestConflict: task exists (status 409)", err.Error())

	err = &APIError{StatusCode: 502, Message: "bad gateway"}
	assert.Equal(t, "bad gateway (status 502)", err.Error())
}
