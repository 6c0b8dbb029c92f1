package scheduler

import "github.com/danpasecinic/taskaction/internal/types"

// Requirement values for TaskDefinition.Requires.
const (
	RequiresAllCompleted = "all-completed"
	RequiresAllResolved  = "all-resolved"
)

// Scheduler decides when a task's dependencies allow it to become pending.
// Implementations must be safe for concurrent use.
type Scheduler interface {
	// Ready reports whether every dependency of the definition is satisfied.
	Ready(definition types.TaskDefinition) (bool, error)

	// Release promotes the unscheduled dependents of a resolved task whose
	// dependencies are now satisfied. It returns the promoted task ids.
	Release(taskID string) ([]string, error)
}
