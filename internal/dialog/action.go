package dialog

import (
	"fmt"
	"strings"

	"github.com/danpasecinic/taskaction/internal/types"
)

// Kind names an action variant. Built-in kinds share their value with the
// custom action name that hides them.
type Kind string

const (
	KindCancel            Kind = "cancel"
	KindRetrigger         Kind = "retrigger"
	KindRerun             Kind = "rerun"
	KindSchedule          Kind = "schedule"
	KindPurgeCaches       Kind = "purge-caches"
	KindEdit              Kind = "edit"
	KindCreateInteractive Kind = "create-interactive"
	KindCustom            Kind = "custom"
)

// builtins is the menu order of built-in actions.
var builtins = []Kind{
	KindCancel,
	KindRetrigger,
	KindRerun,
	KindSchedule,
	KindPurgeCaches,
	KindEdit,
	KindCreateInteractive,
}

type builtinText struct {
	label string
	title string
	body  string
}

var builtinTexts = map[Kind]builtinText{
	KindCancel: {
		label: "Cancel",
		title: "Cancel Task",
	},
	KindRetrigger: {
		label: "Retrigger",
		title: "Retrigger",
		body: "This will duplicate the task and create it under a different taskId.\n" +
			"The new task will be altered to:\n" +
			"  - Update deadlines and other timestamps for the current time\n" +
			"  - Strip self-dependencies from the task definition\n" +
			"  - Set number of retries to zero\n" +
			"Note: this may not work with all tasks.",
	},
	KindRerun: {
		label: "Rerun",
		title: "Rerun",
		body: "This will cause a new run of the task to be created with the same taskId. " +
			"It will only succeed if the task hasn't passed its deadline. " +
			"Notice that this may interfere with listeners who only expect this task to be resolved once.",
	},
	KindSchedule: {
		label: "Schedule",
		title: "Schedule",
		body: "This will overwrite any scheduling process taking place. " +
			"If this task is part of a continuous integration process, " +
			"scheduling this task may cause your commit to land with failing tests.",
	},
	KindPurgeCaches: {
		label: "Purge Worker Cache",
		title: "Purge Worker Cache",
		body: "This will purge caches used in this task across all workers of this worker type.\n" +
			"Select the caches to purge:",
	},
	KindEdit: {
		label: "Edit",
		title: "Edit",
		body: "Note that the edited task will not be linked to other tasks nor have the same task.routes " +
			"as other tasks, so this is not a way to fix a failing task in a larger task group. " +
			"Note that you may also not have the scopes required to create the resulting task.",
	},
	KindCreateInteractive: {
		label: "Create with SSH/VNC",
		title: "Create with SSH/VNC",
		body: "This will duplicate the task and create it under a different taskId.\n" +
			"The new task will be altered to:\n" +
			"  - Set task.payload.features.interactive = true\n" +
			"  - Strip task.payload.caches to avoid poisoning\n" +
			"  - Ensure task.payload.maxRunTime is a minimum of 60 minutes\n" +
			"  - Strip task.routes to avoid side-effects\n" +
			"  - Set the environment variable TASKCLUSTER_INTERACTIVE=true\n" +
			"Note: this may not work with all tasks. You may not have the scopes required to create the task.",
	},
}

// Action is one entry of the action menu: a built-in kind, or KindCustom
// with the declared action attached.
type Action struct {
	Kind   Kind
	Custom *types.Action
}

// Builtin returns the built-in action of the given kind.
func Builtin(kind Kind) Action {
	return Action{Kind: kind}
}

// CustomAction wraps a declared action.
func CustomAction(action types.Action) Action {
	return Action{Kind: KindCustom, Custom: &action}
}

// IsBuiltin reports whether kind is one of the built-in actions.
func IsBuiltin(kind Kind) bool {
	_, ok := builtinTexts[kind]
	return ok
}

// Name is the name the catalog is keyed by.
func (a Action) Name() string {
	if a.Kind == KindCustom {
		if a.Custom == nil {
			return ""
		}
		return a.Custom.Name
	}
	return string(a.Kind)
}

// Label is the text of the menu entry.
func (a Action) Label() string {
	if a.Kind == KindCustom {
		return a.Title()
	}
	return builtinTexts[a.Kind].label
}

// Title is the confirm text; the dialog title adds a question mark.
func (a Action) Title() string {
	if a.Kind == KindCustom {
		if a.Custom == nil {
			return ""
		}
		return a.Custom.Title
	}
	return builtinTexts[a.Kind].title
}

func (a Action) String() string {
	return a.Name()
}

// propsFor assembles the dialog for action. selected and all are only read
// for the purge dialog.
func propsFor(action Action, all []string, selected func(string) bool) Props {
	title := action.Title()
	props := Props{
		Title:       title + "?",
		ConfirmText: title,
	}

	switch action.Kind {
	case KindCustom:
		props.Body = action.Custom.Description
		props.FullScreen = len(action.Custom.Schema) > 0
	case KindPurgeCaches:
		props.Body = purgeBody(all, selected)
	default:
		props.Body = builtinTexts[action.Kind].body
	}
	return props
}

func purgeBody(all []string, selected func(string) bool) string {
	var b strings.Builder
	b.WriteString(builtinTexts[KindPurgeCaches].body)
	for _, name := range all {
		mark := " "
		if selected(name) {
			mark = "x"
		}
		_, _ = fmt.Fprintf(&b, "\n  [%s] %s", mark, name)
	}
	return b.String()
}
