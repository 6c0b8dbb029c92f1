package scheduler

import (
	"time"

	"github.com/danpasecinic/taskaction/internal/queue/state"
	"github.com/danpasecinic/taskaction/internal/types"
)

var testCreated = time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

// newTestTask creates a task record in the given state for testing
func newTestTask(taskID string, s types.TaskState, deps ...string) state.TaskRecord {
	status := types.TaskStatus{TaskID: taskID, State: s}
	if s != types.TaskUnscheduled {
		status.Runs = []types.Run{{RunID: 0, State: s, ReasonCreated: "scheduled", Scheduled: testCreated}}
	}
	return state.TaskRecord{
		TaskID: taskID,
		Definition: types.TaskDefinition{
			ProvisionerID: "proj-test",
			WorkerType:    "linux-small",
			Dependencies:  deps,
			Created:       testCreated,
			Deadline:      testCreated.Add(time.Hour),
			Expires:       testCreated.Add(24 * time.Hour),
		},
		Status: status,
	}
}
