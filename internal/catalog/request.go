package catalog

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/danpasecinic/taskaction/internal/render"
	"github.com/danpasecinic/taskaction/internal/types"
)

// ErrUnsupportedKind is returned for actions whose kind cannot be submitted.
var ErrUnsupportedKind = errors.New("unsupported action kind")

// Request is a rendered custom action, ready for the mutation gateway.
type Request struct {
	Kind types.ActionKind

	// set for hook actions
	HookGroupID string
	HookID      string
	HookPayload map[string]any

	// set for task actions
	Task *types.TaskDefinition
}

// KindOf returns the declared kind, inferring hook for actions that name a
// hook and task otherwise.
func KindOf(action types.Action) types.ActionKind {
	if action.Kind != "" {
		return action.Kind
	}
	if action.HookID != "" {
		return types.ActionKindHook
	}
	return types.ActionKindTask
}

// RenderContext builds the template context for an action on task: the
// declared variables plus taskGroupId, taskId, task and input.
func RenderContext(task *types.Task, actions *types.TaskActions, input any) (map[string]any, error) {
	ctx := make(map[string]any)
	if actions != nil {
		for name, value := range actions.Variables {
			ctx[name] = value
		}
	}

	definition, err := toObject(task.Definition())
	if err != nil {
		return nil, fmt.Errorf("failed to encode task: %w", err)
	}

	ctx["taskGroupId"] = task.TaskGroupID
	ctx["taskId"] = task.TaskID
	ctx["task"] = definition
	ctx["input"] = input
	return ctx, nil
}

// BuildRequest renders action for task with the parsed form input.
func BuildRequest(task *types.Task, actions *types.TaskActions, action types.Action, input any) (*Request, error) {
	if task == nil {
		return nil, errors.New("task is required")
	}

	ctx, err := RenderContext(task, actions, input)
	if err != nil {
		return nil, err
	}

	switch kind := KindOf(action); kind {
	case types.ActionKindHook:
		if action.HookGroupID == "" || action.HookID == "" {
			return nil, fmt.Errorf("action %q: hookGroupId and hookId are required", action.Name)
		}
		payload := map[string]any{}
		if action.HookPayload != nil {
			payload, err = render.Object(action.HookPayload, ctx)
			if err != nil {
				return nil, fmt.Errorf("action %q: failed to render hook payload: %w", action.Name, err)
			}
		}
		return &Request{
			Kind:        kind,
			HookGroupID: action.HookGroupID,
			HookID:      action.HookID,
			HookPayload: payload,
		}, nil

	case types.ActionKindTask:
		if action.Task == nil {
			return nil, fmt.Errorf("action %q: task template is required", action.Name)
		}
		rendered, err := render.Object(action.Task, ctx)
		if err != nil {
			return nil, fmt.Errorf("action %q: failed to render task: %w", action.Name, err)
		}
		var definition types.TaskDefinition
		if err := fromObject(rendered, &definition); err != nil {
			return nil, fmt.Errorf("action %q: rendered task is not a task definition: %w", action.Name, err)
		}
		return &Request{Kind: kind, Task: &definition}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
	}
}

func toObject(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

func fromObject(obj map[string]any, v any) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
