// Package gateway talks to the task queue on behalf of the action dialog.
package gateway

//go:generate mockgen -source=gateway.go -destination=mock_gateway.go -package=gateway

import (
	"context"

	"github.com/danpasecinic/taskaction/internal/types"
)

// Gateway is the set of remote operations the task actions need. Every call
// performs at most one request and is never retried.
type Gateway interface {
	GetTask(ctx context.Context, taskID string) (*types.Task, error)
	ScheduleTask(ctx context.Context, taskID string) (*types.TaskStatus, error)
	RerunTask(ctx context.Context, taskID string) (*types.TaskStatus, error)
	CancelTask(ctx context.Context, taskID string) (*types.TaskStatus, error)
	CreateTask(ctx context.Context, taskID string, definition *types.TaskDefinition) (*types.TaskStatus, error)
	PurgeWorkerCache(ctx context.Context, provisionerID, workerType, cacheName string) error
	TriggerHook(ctx context.Context, hookGroupID, hookID string, payload map[string]any) (*types.TaskStatus, error)
}
