package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/danpasecinic/taskaction/internal/queue/scheduler"
	"github.com/danpasecinic/taskaction/internal/queue/state"
	"github.com/danpasecinic/taskaction/internal/slugid"
	"github.com/danpasecinic/taskaction/internal/types"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Run reasons recorded on task runs.
const (
	reasonScheduled        = "scheduled"
	reasonRerun            = "rerun"
	reasonException        = "exception"
	reasonCanceled         = "canceled"
	reasonDeadlineExceeded = "deadline-exceeded"
)

var (
	errNotResolved  = errors.New("task is not resolved")
	errPastDeadline = errors.New("task deadline has passed")
	errTooManyRuns  = errors.New("task has reached the maximum number of runs")
	errRunMissing   = errors.New("run does not exist")
	errRunNotLatest = errors.New("only the latest run can be reported")
	errBadReport    = errors.New("run state transition not allowed")
)

// ReportRunRequest is a worker's report on one run of a task.
type ReportRunRequest struct {
	State    types.TaskState `json:"state"`
	WorkerID string          `json:"workerId"`
}

// ListTasks handles GET /api/v1/tasks.
// Returns all tasks known to the queue.
func (s *Server) ListTasks(c echo.Context) error {
	records, err := s.store.ListTasks()
	if err != nil {
		return internalError(c, err)
	}

	tasks := make([]types.Task, 0, len(records))
	for _, record := range records {
		tasks = append(tasks, s.taskView(record, false))
	}
	return c.JSON(http.StatusOK, tasks)
}

// GetTask handles GET /api/v1/tasks/:taskId.
// Returns the definition with its status and the task group's actions.
func (s *Server) GetTask(c echo.Context) error {
	taskID := c.Param("taskId")

	record, err := s.store.GetTask(taskID)
	if errors.Is(err, state.ErrTaskNotFound) {
		return notFound(c, fmt.Sprintf("task %s not found", taskID))
	}
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(http.StatusOK, s.taskView(record, true))
}

func (s *Server) taskView(record state.TaskRecord, withActions bool) types.Task {
	status := record.Status
	task := types.Task{
		TaskID:         record.TaskID,
		TaskDefinition: record.Definition,
		Status:         &status,
	}
	if !withActions {
		return task
	}

	actions, err := s.store.GetActions(record.Definition.TaskGroupID)
	switch {
	case err == nil:
		task.TaskActions = &actions
	case !errors.Is(err, state.ErrActionsNotFound):
		log.Warn("failed to load task group actions", zap.String("task_id", record.TaskID), zap.Error(err))
	}
	return task
}

// CreateTask handles PUT /api/v1/tasks/:taskId.
// Creating the same definition twice is accepted; a different definition
// under an existing id is a conflict.
func (s *Server) CreateTask(c echo.Context) error {
	taskID := c.Param("taskId")

	var definition types.TaskDefinition
	if err := (&echo.DefaultBinder{}).BindBody(c, &definition); err != nil {
		return badRequest(c, "invalid task definition")
	}

	status, code, err := s.createTask(taskID, definition)
	if err != nil {
		return errorJSON(c, code, errorCode(code), err.Error())
	}
	return c.JSON(http.StatusOK, status)
}

// createTask validates and stores a task. On failure it returns the HTTP
// status the error maps to.
func (s *Server) createTask(taskID string, definition types.TaskDefinition) (types.TaskStatus, int, error) {
	if definition.TaskGroupID == "" {
		definition.TaskGroupID = taskID
	}
	if err := validateDefinition(taskID, definition); err != nil {
		return types.TaskStatus{}, http.StatusBadRequest, err
	}

	ready, err := s.scheduler.Ready(definition)
	if err != nil {
		return types.TaskStatus{}, http.StatusInternalServerError, err
	}

	record := state.TaskRecord{
		TaskID:     taskID,
		Definition: definition,
		Status:     initialStatus(taskID, definition),
	}
	if ready {
		scheduler.Schedule(&record.Status, s.now())
	}

	err = s.store.AddTask(record)
	if errors.Is(err, state.ErrTaskAlreadyExists) {
		existing, getErr := s.store.GetTask(taskID)
		if getErr != nil {
			return types.TaskStatus{}, http.StatusInternalServerError, getErr
		}
		if !sameDefinition(existing.Definition, definition) {
			return types.TaskStatus{}, http.StatusConflict,
				fmt.Errorf("task %s already exists with a different definition", taskID)
		}
		return existing.Status, 0, nil
	}
	if err != nil {
		return types.TaskStatus{}, http.StatusInternalServerError, err
	}

	log.Info(
		"task created",
		zap.String("task_id", taskID),
		zap.String("task_group_id", definition.TaskGroupID),
		zap.String("state", string(record.Status.State)),
	)
	return record.Status, 0, nil
}

func validateDefinition(taskID string, definition types.TaskDefinition) error {
	if !slugid.Valid(taskID) {
		return fmt.Errorf("invalid taskId %q", taskID)
	}
	if !slugid.Valid(definition.TaskGroupID) {
		return fmt.Errorf("invalid taskGroupId %q", definition.TaskGroupID)
	}
	if definition.ProvisionerID == "" || definition.WorkerType == "" {
		return errors.New("provisionerId and workerType are required")
	}
	for _, dep := range definition.Dependencies {
		if !slugid.Valid(dep) {
			return fmt.Errorf("invalid dependency %q", dep)
		}
		if dep == taskID {
			return errors.New("a task cannot depend on itself")
		}
	}
	switch definition.Requires {
	case "", scheduler.RequiresAllCompleted, scheduler.RequiresAllResolved:
	default:
		return fmt.Errorf("invalid requires %q", definition.Requires)
	}
	if definition.Created.IsZero() || definition.Deadline.IsZero() || definition.Expires.IsZero() {
		return errors.New("created, deadline and expires are required")
	}
	if !definition.Deadline.After(definition.Created) {
		return errors.New("deadline must be after created")
	}
	if definition.Expires.Before(definition.Deadline) {
		return errors.New("expires must not be before deadline")
	}
	if definition.Retries < 0 {
		return errors.New("retries must not be negative")
	}
	return nil
}

func sameDefinition(a, b types.TaskDefinition) bool {
	left, err := json.Marshal(a)
	if err != nil {
		return false
	}
	right, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(left) == string(right)
}

func initialStatus(taskID string, definition types.TaskDefinition) types.TaskStatus {
	return types.TaskStatus{
		TaskID:        taskID,
		ProvisionerID: definition.ProvisionerID,
		WorkerType:    definition.WorkerType,
		SchedulerID:   definition.SchedulerID,
		TaskGroupID:   definition.TaskGroupID,
		Deadline:      definition.Deadline,
		Expires:       definition.Expires,
		RetriesLeft:   definition.Retries,
		State:         types.TaskUnscheduled,
		Runs:          []types.Run{},
	}
}

// ScheduleTask handles POST /api/v1/tasks/:taskId/schedule.
// Unscheduled tasks become pending; tasks in any other state are unchanged.
func (s *Server) ScheduleTask(c echo.Context) error {
	return s.updateStatus(
		c, func(status *types.TaskStatus) error {
			if status.State == types.TaskUnscheduled {
				scheduler.Schedule(status, s.now())
			}
			return nil
		}, nil,
	)
}

// RerunTask handles POST /api/v1/tasks/:taskId/rerun.
// Adds a pending run to a resolved task that is still before its deadline.
func (s *Server) RerunTask(c echo.Context) error {
	now := s.now()
	return s.updateStatus(
		c, func(status *types.TaskStatus) error {
			switch {
			case !status.State.IsResolved():
				return errNotResolved
			case !now.Before(status.Deadline):
				return errPastDeadline
			case len(status.Runs) >= MaxRuns:
				return errTooManyRuns
			}
			status.State = types.TaskPending
			status.Runs = append(
				status.Runs, types.Run{
					RunID:         len(status.Runs),
					State:         types.TaskPending,
					ReasonCreated: reasonRerun,
					Scheduled:     now,
				},
			)
			return nil
		}, nil,
	)
}

// CancelTask handles POST /api/v1/tasks/:taskId/cancel.
// Unresolved tasks resolve as exception; resolved tasks are unchanged.
func (s *Server) CancelTask(c echo.Context) error {
	now := s.now()
	resolved := false
	return s.updateStatus(
		c, func(status *types.TaskStatus) error {
			if status.State.IsResolved() {
				return nil
			}
			resolved = true
			return resolveException(status, reasonCanceled, now)
		}, &resolved,
	)
}

// ReportRun handles PUT /api/v1/tasks/:taskId/runs/:runId.
// Workers report a run as running, completed or failed.
func (s *Server) ReportRun(c echo.Context) error {
	runID, err := strconv.Atoi(c.Param("runId"))
	if err != nil || runID < 0 {
		return badRequest(c, "invalid runId")
	}

	var req ReportRunRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	now := s.now()
	resolved := false
	return s.updateStatus(
		c, func(status *types.TaskStatus) error {
			if err := reportRun(status, runID, req, now); err != nil {
				return err
			}
			resolved = status.State.IsResolved()
			return nil
		}, &resolved,
	)
}

func reportRun(status *types.TaskStatus, runID int, req ReportRunRequest, now time.Time) error {
	if runID >= len(status.Runs) {
		return errRunMissing
	}
	if runID != len(status.Runs)-1 {
		return errRunNotLatest
	}

	run := &status.Runs[runID]
	switch {
	case run.State == types.TaskPending && req.State == types.TaskRunning:
		run.Started = &now
		run.WorkerID = req.WorkerID
	case run.State == types.TaskRunning && (req.State == types.TaskCompleted || req.State == types.TaskFailed):
		run.Resolved = &now
		run.ReasonResolved = string(req.State)
	default:
		return errBadReport
	}
	run.State = req.State
	status.State = req.State
	return nil
}

// resolveException resolves the latest run as exception, adding one if the
// task never ran.
func resolveException(status *types.TaskStatus, reason string, now time.Time) error {
	if status.State.IsResolved() {
		return nil
	}
	if status.State == types.TaskUnscheduled || len(status.Runs) == 0 {
		status.Runs = append(
			status.Runs, types.Run{
				RunID:         len(status.Runs),
				ReasonCreated: reasonException,
				Scheduled:     now,
			},
		)
	}
	run := &status.Runs[len(status.Runs)-1]
	run.State = types.TaskException
	run.ReasonResolved = reason
	run.Resolved = &now
	status.State = types.TaskException
	return nil
}

// updateStatus applies update to the task named by the taskId parameter and
// writes the resulting status. When resolved is set by the update, the
// task's dependents are scheduled.
func (s *Server) updateStatus(c echo.Context, update state.StatusUpdate, resolved *bool) error {
	taskID := c.Param("taskId")

	status, err := s.store.UpdateTaskStatus(taskID, update)
	switch {
	case errors.Is(err, state.ErrTaskNotFound):
		return notFound(c, fmt.Sprintf("task %s not found", taskID))
	case errors.Is(err, errRunMissing):
		return notFound(c, err.Error())
	case errors.Is(err, errNotResolved), errors.Is(err, errPastDeadline), errors.Is(err, errTooManyRuns),
		errors.Is(err, errRunNotLatest), errors.Is(err, errBadReport):
		return conflict(c, err.Error())
	case err != nil:
		return internalError(c, err)
	}

	if resolved != nil && *resolved {
		s.release(taskID)
	}
	return c.JSON(http.StatusOK, status)
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return codeInvalidRequest
	case http.StatusNotFound:
		return codeResourceMissing
	case http.StatusConflict:
		return codeConflict
	default:
		return codeInternal
	}
}

func newTaskID() string {
	return slugid.Nice()
}
