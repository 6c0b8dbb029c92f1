package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/danpasecinic/taskaction/internal/types"
	"github.com/go-resty/resty/v2"
)

const apiPrefix = "/api/v1"

// Client implements Gateway over the queue's REST API.
type Client struct {
	client *resty.Client
}

var _ Gateway = (*Client)(nil)

// NewClient returns a client for the queue at rootURL.
func NewClient(rootURL string, timeout time.Duration) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(rootURL, "/")+apiPrefix).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{client: client}
}

// SetDebug toggles resty request and response dumps.
func (c *Client) SetDebug(debug bool) *Client {
	c.client.SetDebug(debug)
	return c
}

func (c *Client) GetTask(ctx context.Context, taskID string) (*types.Task, error) {
	var task types.Task
	if err := c.do(ctx, http.MethodGet, "/tasks/{taskId}", map[string]string{"taskId": taskID}, nil, &task); err != nil {
		return nil, fmt.Errorf("get task %s: %w", taskID, err)
	}
	return &task, nil
}

func (c *Client) ScheduleTask(ctx context.Context, taskID string) (*types.TaskStatus, error) {
	return c.statusCall(ctx, "schedule", taskID)
}

func (c *Client) RerunTask(ctx context.Context, taskID string) (*types.TaskStatus, error) {
	return c.statusCall(ctx, "rerun", taskID)
}

func (c *Client) CancelTask(ctx context.Context, taskID string) (*types.TaskStatus, error) {
	return c.statusCall(ctx, "cancel", taskID)
}

func (c *Client) statusCall(ctx context.Context, op, taskID string) (*types.TaskStatus, error) {
	var status types.TaskStatus
	err := c.do(ctx, http.MethodPost, "/tasks/{taskId}/"+op, map[string]string{"taskId": taskID}, nil, &status)
	if err != nil {
		return nil, fmt.Errorf("%s task %s: %w", op, taskID, err)
	}
	return &status, nil
}

func (c *Client) CreateTask(ctx context.Context, taskID string, definition *types.TaskDefinition) (*types.TaskStatus, error) {
	if definition == nil {
		return nil, fmt.Errorf("create task %s: definition is required", taskID)
	}
	var status types.TaskStatus
	err := c.do(ctx, http.MethodPut, "/tasks/{taskId}", map[string]string{"taskId": taskID}, definition, &status)
	if err != nil {
		return nil, fmt.Errorf("create task %s: %w", taskID, err)
	}
	return &status, nil
}

func (c *Client) PurgeWorkerCache(ctx context.Context, provisionerID, workerType, cacheName string) error {
	params := map[string]string{
		"provisionerId": provisionerID,
		"workerType":    workerType,
	}
	body := map[string]string{"cacheName": cacheName}
	if err := c.do(ctx, http.MethodPost, "/purge-cache/{provisionerId}/{workerType}", params, body, nil); err != nil {
		return fmt.Errorf("purge cache %s for %s/%s: %w", cacheName, provisionerID, workerType, err)
	}
	return nil
}

func (c *Client) TriggerHook(ctx context.Context, hookGroupID, hookID string, payload map[string]any) (*types.TaskStatus, error) {
	params := map[string]string{
		"hookGroupId": hookGroupID,
		"hookId":      hookID,
	}
	if payload == nil {
		payload = map[string]any{}
	}
	var status types.TaskStatus
	if err := c.do(ctx, http.MethodPost, "/hooks/{hookGroupId}/{hookId}/trigger", params, payload, &status); err != nil {
		return nil, fmt.Errorf("trigger hook %s/%s: %w", hookGroupID, hookID, err)
	}
	return &status, nil
}

func (c *Client) do(ctx context.Context, method, path string, params map[string]string, body, result any) error {
	req := c.client.R().
		SetContext(ctx).
		SetPathParams(params).
		SetError(&APIError{})
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	return handleResponse(resp)
}

func handleResponse(resp *resty.Response) error {
	if !resp.IsError() {
		return nil
	}

	apiErr, ok := resp.Error().(*APIError)
	if !ok || apiErr == nil || apiErr.Message == "" {
		apiErr = &APIError{Message: strings.TrimSpace(resp.String())}
	}
	apiErr.StatusCode = resp.StatusCode()
	return apiErr
}
