package dialog

import (
	"context"
	"fmt"

	"github.com/danpasecinic/taskaction/internal/catalog"
	"github.com/danpasecinic/taskaction/internal/types"
	"golang.org/x/sync/errgroup"
)

// result is what a successful submission hands to completion.
type result struct {
	// taskID is the task to go to: the affected task, or the new one.
	taskID string
	// definition is the pre-filled task for the edit flow.
	definition *types.TaskDefinition
}

// run performs the remote work of action. Every variant goes through here.
func (o *Orchestrator) run(ctx context.Context, action Action, sub submission) (result, error) {
	taskID := sub.route.TaskID

	switch action.Kind {
	case KindCancel:
		if _, err := o.gateway.CancelTask(ctx, taskID); err != nil {
			return result{}, err
		}
		return result{taskID: taskID}, nil

	case KindRerun:
		if _, err := o.gateway.RerunTask(ctx, taskID); err != nil {
			return result{}, err
		}
		return result{taskID: taskID}, nil

	case KindSchedule:
		if _, err := o.gateway.ScheduleTask(ctx, taskID); err != nil {
			return result{}, err
		}
		return result{}, nil

	case KindRetrigger:
		dup := o.snapshots.Retrigger(sub.task)
		if _, err := o.gateway.CreateTask(ctx, dup.TaskID, &dup.Definition); err != nil {
			return result{}, err
		}
		return result{taskID: dup.TaskID}, nil

	case KindCreateInteractive:
		dup := o.snapshots.Interactive(sub.task)
		if _, err := o.gateway.CreateTask(ctx, dup.TaskID, &dup.Definition); err != nil {
			return result{}, err
		}
		return result{taskID: dup.TaskID}, nil

	case KindEdit:
		def := o.snapshots.CloneForEdit(sub.task)
		return result{definition: &def}, nil

	case KindPurgeCaches:
		return result{}, o.purge(ctx, sub)

	case KindCustom:
		return o.runCustom(ctx, *action.Custom, sub)

	default:
		return result{}, fmt.Errorf("%w: %q", ErrUnknownAction, action.Name())
	}
}

// purge sends one purge per selected cache and waits for all of them. The
// first error fails the batch; caches already purged stay purged.
func (o *Orchestrator) purge(ctx context.Context, sub submission) error {
	var g errgroup.Group
	for _, name := range sub.selected {
		g.Go(func() error {
			return o.gateway.PurgeWorkerCache(ctx, sub.task.ProvisionerID, sub.task.WorkerType, name)
		})
	}
	return g.Wait()
}

func (o *Orchestrator) runCustom(ctx context.Context, action types.Action, sub submission) (result, error) {
	input, err := catalog.ParseForm(action, sub.form)
	if err != nil {
		return result{}, err
	}
	req, err := catalog.BuildRequest(sub.task, sub.task.TaskActions, action, input)
	if err != nil {
		return result{}, err
	}

	switch req.Kind {
	case types.ActionKindHook:
		status, err := o.gateway.TriggerHook(ctx, req.HookGroupID, req.HookID, req.HookPayload)
		if err != nil {
			return result{}, err
		}
		if status == nil {
			return result{}, nil
		}
		return result{taskID: status.TaskID}, nil
	default:
		taskID := o.newTaskID()
		if _, err := o.gateway.CreateTask(ctx, taskID, req.Task); err != nil {
			return result{}, err
		}
		return result{taskID: taskID}, nil
	}
}

// outcome is what the host is told after a successful submission.
type outcome struct {
	notify   *Notification
	refetch  bool
	navigate *Navigation
}

func notifyOutcome(message string) outcome {
	return outcome{notify: &Notification{Message: message, Variant: VariantSuccess, Open: true}}
}

func taskPath(taskID string) string {
	return "/tasks/" + taskID
}

// completion decides what follows a successful action. Viewing from a log
// page sends the user to the task instead of showing a message.
func completion(action Action, res result, route Route) outcome {
	switch action.Kind {
	case KindCancel, KindRerun:
		if route.LogURL == "" {
			out := notifyOutcome(action.Label())
			out.refetch = true
			return out
		}
		return outcome{navigate: &Navigation{Path: taskPath(res.taskID)}}

	case KindSchedule, KindPurgeCaches:
		return notifyOutcome(action.Title())

	case KindRetrigger:
		return outcome{navigate: &Navigation{Path: taskPath(res.taskID)}}

	case KindCreateInteractive:
		return outcome{navigate: &Navigation{Path: taskPath(res.taskID) + "/connect"}}

	case KindEdit:
		return outcome{navigate: &Navigation{Path: "/tasks/create", Task: res.definition}}

	default:
		if action.Name() == string(KindCreateInteractive) {
			return outcome{navigate: &Navigation{Path: taskPath(res.taskID) + "/connect"}}
		}
		if route.LogURL == "" {
			return notifyOutcome(action.Title())
		}
		return outcome{navigate: &Navigation{Path: taskPath(res.taskID)}}
	}
}
