package scheduler

import (
	"testing"
	"time"

	"github.com/danpasecinic/taskaction/internal/queue/state"
	"github.com/danpasecinic/taskaction/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	depA  = "fN1SbArXTPSVFNUvaOlinQ"
	depB  = "Qx3nW1wqTZ2Kb4d0hE8Xtw"
	child = "Xj2c2sN1QSmU7ZQ3hY4Jtg"
)

func TestDependencies_Ready(t *testing.T) {
	tests := []struct {
		name     string
		existing []state.TaskRecord
		requires string
		deps     []string
		want     bool
	}{
		{
			name: "no dependencies",
			want: true,
		},
		{
			name:     "all completed",
			existing: []state.TaskRecord{newTestTask(depA, types.TaskCompleted), newTestTask(depB, types.TaskCompleted)},
			deps:     []string{depA, depB},
			want:     true,
		},
		{
			name:     "one still running",
			existing: []state.TaskRecord{newTestTask(depA, types.TaskCompleted), newTestTask(depB, types.TaskRunning)},
			deps:     []string{depA, depB},
			want:     false,
		},
		{
			name:     "missing dependency",
			existing: []state.TaskRecord{newTestTask(depA, types.TaskCompleted)},
			deps:     []string{depA, depB},
			want:     false,
		},
		{
			name:     "failed dependency with all-completed",
			existing: []state.TaskRecord{newTestTask(depA, types.TaskFailed)},
			deps:     []string{depA},
			want:     false,
		},
		{
			name:     "failed dependency with all-resolved",
			existing: []state.TaskRecord{newTestTask(depA, types.TaskFailed)},
			requires: RequiresAllResolved,
			deps:     []string{depA},
			want:     true,
		},
		{
			name:     "pending dependency with all-resolved",
			existing: []state.TaskRecord{newTestTask(depA, types.TaskPending)},
			requires: RequiresAllResolved,
			deps:     []string{depA},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				store := state.NewInMemoryStore()
				for _, task := range tt.existing {
					require.NoError(t, store.AddTask(task))
				}

				d := NewDependencies(store)
				ready, err := d.Ready(types.TaskDefinition{Dependencies: tt.deps, Requires: tt.requires})
				require.NoError(t, err)
				assert.Equal(t, tt.want, ready)
			},
		)
	}
}

func TestDependencies_Release(t *testing.T) {
	store := state.NewInMemoryStore()
	require.NoError(t, store.AddTask(newTestTask(depA, types.TaskRunning)))
	require.NoError(t, store.AddTask(newTestTask(depB, types.TaskRunning)))
	require.NoError(t, store.AddTask(newTestTask(child, types.TaskUnscheduled, depA, depB)))

	d := NewDependencies(store)
	d.now = func() time.Time { return testCreated.Add(time.Minute) }

	complete := func(taskID string) {
		_, err := store.UpdateTaskStatus(
			taskID, func(s *types.TaskStatus) error {
				s.State = types.TaskCompleted
				return nil
			},
		)
		require.NoError(t, err)
	}

	complete(depA)
	promoted, err := d.Release(depA)
	require.NoError(t, err)
	assert.Empty(t, promoted)

	task, err := store.GetTask(child)
	require.NoError(t, err)
	assert.Equal(t, types.TaskUnscheduled, task.Status.State)

	complete(depB)
	promoted, err = d.Release(depB)
	require.NoError(t, err)
	assert.Equal(t, []string{child}, promoted)

	task, err = store.GetTask(child)
	require.NoError(t, err)
	assert.Equal(t, types.TaskPending, task.Status.State)
	require.Len(t, task.Status.Runs, 1)
	assert.Equal(t, "scheduled", task.Status.Runs[0].ReasonCreated)
	assert.Equal(t, testCreated.Add(time.Minute), task.Status.Runs[0].Scheduled)

	// releasing again leaves the already pending dependent alone
	promoted, err = d.Release(depB)
	require.NoError(t, err)
	assert.Empty(t, promoted)
}

func TestDependencies_ReleaseSkipsScheduled(t *testing.T) {
	store := state.NewInMemoryStore()
	require.NoError(t, store.AddTask(newTestTask(depA, types.TaskCompleted)))
	require.NoError(t, store.AddTask(newTestTask(child, types.TaskPending, depA)))

	promoted, err := NewDependencies(store).Release(depA)
	require.NoError(t, err)
	assert.Empty(t, promoted)

	task, _ := store.GetTask(child)
	assert.Len(t, task.Status.Runs, 1)
}

func TestSchedule(t *testing.T) {
	status := types.TaskStatus{State: types.TaskUnscheduled}
	Schedule(&status, testCreated)

	assert.Equal(t, types.TaskPending, status.State)
	require.Len(t, status.Runs, 1)
	assert.Equal(t, 0, status.Runs[0].RunID)
	assert.Equal(t, types.TaskPending, status.Runs[0].State)
}
