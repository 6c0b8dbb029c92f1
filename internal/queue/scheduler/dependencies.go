package scheduler

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/danpasecinic/taskaction/internal/queue/state"
	"github.com/danpasecinic/taskaction/internal/types"
)

// ErrNotUnscheduled aborts a promotion when the dependent left the
// unscheduled state in the meantime.
var ErrNotUnscheduled = errors.New("task is not unscheduled")

// Dependencies schedules tasks once the tasks they depend on have resolved.
// Dependencies is safe for concurrent use.
type Dependencies struct {
	mu    sync.Mutex
	store state.StateStore
	now   func() time.Time
}

// NewDependencies creates a dependency scheduler over store.
func NewDependencies(store state.StateStore) *Dependencies {
	return &Dependencies{store: store, now: time.Now}
}

// Ready checks the definition's dependencies against the store. A dependency
// that does not exist yet is unsatisfied.
func (d *Dependencies) Ready(definition types.TaskDefinition) (bool, error) {
	for _, dep := range definition.Dependencies {
		task, err := d.store.GetTask(dep)
		if errors.Is(err, state.ErrTaskNotFound) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("failed to load dependency %s: %w", dep, err)
		}
		if !satisfies(definition.Requires, task.Status.State) {
			return false, nil
		}
	}
	return true, nil
}

// Release is called after taskID resolved.
func (d *Dependencies) Release(taskID string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	dependents, err := d.store.ListDependents(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list dependents: %w", err)
	}

	var promoted []string
	for _, dependent := range dependents {
		if dependent.Status.State != types.TaskUnscheduled {
			continue
		}

		ready, err := d.Ready(dependent.Definition)
		if err != nil {
			return promoted, err
		}
		if !ready {
			continue
		}

		_, err = d.store.UpdateTaskStatus(dependent.TaskID, d.schedule)
		if errors.Is(err, ErrNotUnscheduled) {
			continue
		}
		if err != nil {
			return promoted, fmt.Errorf("failed to schedule %s: %w", dependent.TaskID, err)
		}
		promoted = append(promoted, dependent.TaskID)
	}
	return promoted, nil
}

func (d *Dependencies) schedule(status *types.TaskStatus) error {
	if status.State != types.TaskUnscheduled {
		return ErrNotUnscheduled
	}
	Schedule(status, d.now())
	return nil
}

// Schedule moves an unscheduled status to pending with its first run.
func Schedule(status *types.TaskStatus, now time.Time) {
	status.State = types.TaskPending
	status.Runs = append(
		status.Runs, types.Run{
			RunID:         len(status.Runs),
			State:         types.TaskPending,
			ReasonCreated: "scheduled",
			Scheduled:     now,
		},
	)
}

// satisfies reports whether a dependency in state s fulfils requires.
func satisfies(requires string, s types.TaskState) bool {
	if requires == RequiresAllResolved {
		return s.IsResolved()
	}
	return s == types.TaskCompleted
}
