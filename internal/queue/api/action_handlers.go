package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danpasecinic/taskaction/internal/queue/state"
	"github.com/danpasecinic/taskaction/internal/render"
	"github.com/danpasecinic/taskaction/internal/slugid"
	"github.com/danpasecinic/taskaction/internal/types"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// SetActions handles PUT /api/v1/task-groups/:taskGroupId/actions.
// Decision tasks publish the custom actions of their group here.
func (s *Server) SetActions(c echo.Context) error {
	taskGroupID := c.Param("taskGroupId")
	if !slugid.Valid(taskGroupID) {
		return badRequest(c, fmt.Sprintf("invalid taskGroupId %q", taskGroupID))
	}

	var actions types.TaskActions
	if err := (&echo.DefaultBinder{}).BindBody(c, &actions); err != nil {
		return badRequest(c, "invalid request")
	}
	if err := validateActions(actions); err != nil {
		return badRequest(c, err.Error())
	}

	if err := s.store.SetActions(taskGroupID, actions); err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, actions)
}

func validateActions(actions types.TaskActions) error {
	if actions.Version != 1 {
		return fmt.Errorf("unsupported actions version %d", actions.Version)
	}
	for i, action := range actions.Actions {
		if action.Name == "" || action.Title == "" {
			return fmt.Errorf("action %d: name and title are required", i)
		}
		switch action.Kind {
		case types.ActionKindTask:
			if action.Task == nil {
				return fmt.Errorf("action %s: task template is required", action.Name)
			}
		case types.ActionKindHook:
			if action.HookGroupID == "" || action.HookID == "" {
				return fmt.Errorf("action %s: hookGroupId and hookId are required", action.Name)
			}
		default:
			return fmt.Errorf("action %s: unknown kind %q", action.Name, action.Kind)
		}
	}
	return nil
}

// GetActions handles GET /api/v1/task-groups/:taskGroupId/actions.
func (s *Server) GetActions(c echo.Context) error {
	taskGroupID := c.Param("taskGroupId")

	actions, err := s.store.GetActions(taskGroupID)
	if errors.Is(err, state.ErrActionsNotFound) {
		return notFound(c, fmt.Sprintf("no actions for task group %s", taskGroupID))
	}
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, actions)
}

// PutHook handles PUT /api/v1/hooks/:hookGroupId/:hookId.
// Creates or replaces a hook.
func (s *Server) PutHook(c echo.Context) error {
	var hook types.Hook
	if err := (&echo.DefaultBinder{}).BindBody(c, &hook); err != nil {
		return badRequest(c, "invalid request")
	}
	hook.HookGroupID = c.Param("hookGroupId")
	hook.HookID = c.Param("hookId")

	if hook.Task == nil {
		return badRequest(c, "task template is required")
	}
	if _, _, err := hookDurations(hook); err != nil {
		return badRequest(c, err.Error())
	}

	if err := s.store.PutHook(hook); err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, hook)
}

// GetHook handles GET /api/v1/hooks/:hookGroupId/:hookId.
func (s *Server) GetHook(c echo.Context) error {
	hook, err := s.store.GetHook(c.Param("hookGroupId"), c.Param("hookId"))
	if errors.Is(err, state.ErrHookNotFound) {
		return notFound(c, "hook not found")
	}
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, hook)
}

// TriggerHook handles POST /api/v1/hooks/:hookGroupId/:hookId/trigger.
// The body is the payload; the hook's task template is rendered with
// {payload, taskId} and the result is created as a new task.
func (s *Server) TriggerHook(c echo.Context) error {
	hook, err := s.store.GetHook(c.Param("hookGroupId"), c.Param("hookId"))
	if errors.Is(err, state.ErrHookNotFound) {
		return notFound(c, "hook not found")
	}
	if err != nil {
		return internalError(c, err)
	}

	payload := map[string]any{}
	if err := (&echo.DefaultBinder{}).BindBody(c, &payload); err != nil {
		return badRequest(c, "payload must be a JSON object")
	}

	taskID := s.newTaskID()
	definition, err := s.renderHook(hook, payload, taskID)
	if err != nil {
		return badRequest(c, err.Error())
	}

	status, code, err := s.createTask(taskID, definition)
	if err != nil {
		return errorJSON(c, code, errorCode(code), err.Error())
	}

	log.Info(
		"hook triggered",
		zap.String("hook_group_id", hook.HookGroupID),
		zap.String("hook_id", hook.HookID),
		zap.String("task_id", taskID),
	)
	return c.JSON(http.StatusOK, status)
}

func (s *Server) renderHook(hook types.Hook, payload map[string]any, taskID string) (types.TaskDefinition, error) {
	rendered, err := render.Object(hook.Task, map[string]any{"payload": payload, "taskId": taskID})
	if err != nil {
		return types.TaskDefinition{}, fmt.Errorf("failed to render hook task: %w", err)
	}

	raw, err := json.Marshal(rendered)
	if err != nil {
		return types.TaskDefinition{}, fmt.Errorf("failed to encode hook task: %w", err)
	}
	var definition types.TaskDefinition
	if err := json.Unmarshal(raw, &definition); err != nil {
		return types.TaskDefinition{}, fmt.Errorf("hook task is not a task definition: %w", err)
	}

	deadline, expires, err := hookDurations(hook)
	if err != nil {
		return types.TaskDefinition{}, err
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	if definition.Created.IsZero() {
		definition.Created = now
	}
	if definition.Deadline.IsZero() {
		definition.Deadline = definition.Created.Add(deadline)
	}
	if definition.Expires.IsZero() {
		definition.Expires = definition.Created.Add(expires)
	}
	return definition, nil
}

func hookDurations(hook types.Hook) (time.Duration, time.Duration, error) {
	deadline, err := parseHookDuration(hook.Deadline, time.Hour)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid deadline: %w", err)
	}
	expires, err := parseHookDuration(hook.Expires, 24*time.Hour)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid expires: %w", err)
	}
	if expires < deadline {
		return 0, 0, errors.New("expires must not be shorter than deadline")
	}
	return deadline, expires, nil
}

func parseHookDuration(value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, errors.New("must be positive")
	}
	return d, nil
}
