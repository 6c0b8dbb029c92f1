// Package dialog drives the confirmation dialog behind every task action:
// which actions a task offers, what each dialog says, how a confirmed action
// is submitted and where the host goes afterwards.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/danpasecinic/taskaction/internal/caches"
	"github.com/danpasecinic/taskaction/internal/catalog"
	"github.com/danpasecinic/taskaction/internal/gateway"
	"github.com/danpasecinic/taskaction/internal/logger"
	"github.com/danpasecinic/taskaction/internal/slugid"
	"github.com/danpasecinic/taskaction/internal/snapshot"
	"github.com/danpasecinic/taskaction/internal/types"
	"go.uber.org/zap"
)

var (
	// ErrNoTask is returned when an action is requested before a task was observed.
	ErrNoTask = errors.New("no task observed")
	// ErrUnknownAction is returned for actions the current task does not offer.
	ErrUnknownAction = errors.New("action not available for task")
	// ErrDismissed is returned by Confirm when the dialog was dismissed while
	// the submission was in flight. The outcome of the submission is dropped.
	ErrDismissed = errors.New("dialog dismissed during submission")
)

var log = logger.NewLogAgent("dialog")

// Route is where the host currently is. LogURL is set when the task is
// viewed from a log page.
type Route struct {
	TaskID string
	LogURL string
}

// Navigation asks the host to move to Path. Task carries a pre-filled
// definition for the task creation page.
type Navigation struct {
	Path string
	Task *types.TaskDefinition
}

// Variant is the severity a notification is shown with.
type Variant string

const (
	VariantSuccess Variant = "success"
	VariantError   Variant = "error"
	VariantWarning Variant = "warning"
	VariantInfo    Variant = "info"
)

// Notification is a transient message shown by the host.
type Notification struct {
	Message string
	Variant Variant
	Open    bool
}

// Host is the page embedding the actions.
type Host interface {
	Navigate(nav Navigation)
	Notify(n Notification)
	RefetchTask(ctx context.Context)
}

// History remembers task ids the user has looked at.
type History interface {
	Record(ctx context.Context, taskID string)
}

// MenuItem is one entry of the action menu.
type MenuItem struct {
	Action       Action
	Label        string
	Disabled     bool
	RequiresAuth bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTransformer sets the transformer used for edit, retrigger and
// interactive duplicates.
func WithTransformer(t *snapshot.Transformer) Option {
	return func(o *Orchestrator) {
		o.snapshots = t
	}
}

// WithTaskIDGenerator sets the id source for tasks created by custom actions.
func WithTaskIDGenerator(newTaskID func() string) Option {
	return func(o *Orchestrator) {
		o.newTaskID = newTaskID
	}
}

// Orchestrator holds the view state of the actions of one task page.
// Methods are safe for concurrent use; Confirm does not hold the lock while
// the submission is in flight, so Dismiss can abandon it.
type Orchestrator struct {
	gateway   gateway.Gateway
	history   History
	host      Host
	snapshots *snapshot.Transformer
	newTaskID func() string

	mu         sync.Mutex
	route      Route
	task       *types.Task
	catalog    *catalog.Catalog
	inputs     map[string]string
	selection  *caches.Selection
	state      State
	snackbar   Notification
	generation uint64
}

// New returns an orchestrator with no task observed. history may be nil.
func New(gw gateway.Gateway, history History, host Host, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gateway:   gw,
		history:   history,
		host:      host,
		snapshots: snapshot.New(),
		newTaskID: slugid.Nice,
		catalog:   catalog.Build(nil),
		inputs:    map[string]string{},
		selection: caches.New(nil),
		state:     Closed(),
		snackbar:  Notification{Variant: VariantSuccess},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Observe is called whenever the host has a fresh copy of the task. The
// derived view (catalog, form inputs, cache selection, dialog) is rebuilt
// only when the task identity changes; otherwise only the task data used
// for submissions is refreshed.
func (o *Orchestrator) Observe(ctx context.Context, route Route, task *types.Task) {
	if task == nil {
		return
	}
	if route.TaskID == "" {
		route.TaskID = task.TaskID
	}

	o.mu.Lock()
	changed := o.task == nil || route.TaskID != o.route.TaskID
	o.route = route
	o.task = task
	if changed {
		o.catalog = catalog.Build(task)
		o.inputs = o.catalog.Inputs()
		o.selection = caches.New(o.catalog.Caches)
		o.state = Closed()
		o.generation++
	}
	custom := len(o.catalog.Actions)
	o.mu.Unlock()

	if !changed {
		return
	}
	log.Debug("task observed", zap.String("task_id", route.TaskID), zap.Int("custom_actions", custom))
	if o.history != nil {
		o.history.Record(ctx, route.TaskID)
	}
}

// Menu lists the available actions: built-ins not shadowed by a custom
// action of the same name, then the custom actions in declaration order.
func (o *Orchestrator) Menu() []MenuItem {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.task == nil {
		return nil
	}

	disabled := o.state.Loading
	var items []MenuItem
	for _, kind := range builtins {
		if o.catalog.Has(string(kind)) {
			continue
		}
		action := Builtin(kind)
		items = append(items, MenuItem{Action: action, Label: action.Label(), Disabled: disabled, RequiresAuth: true})
	}
	for _, declared := range o.catalog.Actions {
		action := CustomAction(declared)
		items = append(items, MenuItem{Action: action, Label: action.Label(), Disabled: disabled, RequiresAuth: true})
	}
	return items
}

// Resolve finds the menu action called name. Custom actions shadow
// built-ins of the same name.
func (o *Orchestrator) Resolve(name string) (Action, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.task == nil {
		return Action{}, ErrNoTask
	}
	if entry, ok := o.catalog.Entry(name); ok {
		return CustomAction(entry.Action), nil
	}
	if IsBuiltin(Kind(name)) {
		return Builtin(Kind(name)), nil
	}
	return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, name)
}

// Open shows the dialog for action.
func (o *Orchestrator) Open(action Action) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.checkAvailable(action); err != nil {
		return err
	}
	next, err := o.state.Open(action, o.props(action))
	if err != nil {
		return err
	}
	o.state = next
	return nil
}

func (o *Orchestrator) checkAvailable(action Action) error {
	if o.task == nil {
		return ErrNoTask
	}
	switch {
	case action.Kind == KindCustom:
		if action.Custom == nil || !o.catalog.Has(action.Custom.Name) {
			return fmt.Errorf("%w: %q", ErrUnknownAction, action.Name())
		}
	case IsBuiltin(action.Kind):
		if o.catalog.Has(string(action.Kind)) {
			return fmt.Errorf("%w: %q is replaced by a custom action", ErrUnknownAction, action.Name())
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, action.Name())
	}
	return nil
}

func (o *Orchestrator) props(action Action) Props {
	return propsFor(action, o.selection.All(), o.selection.Has)
}

// Form returns the current form text of a custom action.
func (o *Orchestrator) Form(name string) (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	text, ok := o.inputs[name]
	return text, ok
}

// SetForm replaces the form text of a custom action.
func (o *Orchestrator) SetForm(name, text string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.catalog.Has(name) {
		return fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
	o.inputs[name] = text
	return nil
}

// ToggleCache flips one cache in the purge selection and returns the new
// selection. An open purge dialog is redrawn from it.
func (o *Orchestrator) ToggleCache(name string) []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	selected := o.selection.Toggle(name)
	if o.state.Action.Kind == KindPurgeCaches {
		if next, err := o.state.WithProps(o.props(o.state.Action)); err == nil {
			o.state = next
		}
	}
	return selected
}

// SelectedCaches returns the caches a purge would currently target.
func (o *Orchestrator) SelectedCaches() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.selection.Selected()
}

// State returns the current dialog state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Task returns the observed task.
func (o *Orchestrator) Task() *types.Task {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.task
}

// Snackbar returns the notification left by the last completed action.
func (o *Orchestrator) Snackbar() Notification {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snackbar
}

// CloseSnackbar hides the notification.
func (o *Orchestrator) CloseSnackbar() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.snackbar = Notification{Variant: VariantSuccess}
}

// Dismiss closes the dialog. A submission in flight keeps running but its
// outcome is ignored.
func (o *Orchestrator) Dismiss() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.Phase == PhaseSubmitting {
		log.Debug("dismissed during submission", zap.String("action", o.state.Action.Name()))
	}
	o.state = o.state.Dismiss()
	o.generation++
}

// submission is what a confirmed action needs, captured under the lock.
type submission struct {
	route    Route
	task     *types.Task
	form     string
	selected []string
}

// Confirm submits the open dialog's action. On failure the dialog moves to
// errored and the error is returned as well.
func (o *Orchestrator) Confirm(ctx context.Context) error {
	o.mu.Lock()
	next, err := o.state.Submit()
	if err != nil {
		o.mu.Unlock()
		return err
	}
	o.state = next
	o.generation++
	generation := o.generation
	action := next.Action
	sub := submission{
		route:    o.route,
		task:     o.task,
		form:     o.inputs[action.Name()],
		selected: o.selection.Selected(),
	}
	o.mu.Unlock()

	log.Info("submitting action",
		zap.String("action", action.Name()),
		zap.String("task_id", sub.route.TaskID),
	)
	res, runErr := o.run(ctx, action, sub)

	o.mu.Lock()
	if generation != o.generation {
		o.mu.Unlock()
		log.Debug("submission outcome dropped", zap.String("action", action.Name()), zap.Error(runErr))
		return ErrDismissed
	}
	if runErr != nil {
		o.state, _ = o.state.Fail(runErr)
		o.mu.Unlock()
		log.Warn("action failed", zap.String("action", action.Name()), zap.Error(runErr))
		return runErr
	}
	o.state, _ = o.state.Complete()
	out := completion(action, res, sub.route)
	if out.notify != nil {
		o.snackbar = *out.notify
	}
	o.mu.Unlock()

	log.Info("action completed",
		zap.String("action", action.Name()),
		zap.String("result_task_id", res.taskID),
	)
	o.deliver(ctx, out)
	return nil
}

// Run opens and immediately confirms action, for hosts without an
// interactive dialog.
func (o *Orchestrator) Run(ctx context.Context, action Action) error {
	if err := o.Open(action); err != nil {
		return err
	}
	return o.Confirm(ctx)
}

func (o *Orchestrator) deliver(ctx context.Context, out outcome) {
	if o.host == nil {
		return
	}
	if out.notify != nil {
		o.host.Notify(*out.notify)
	}
	if out.refetch {
		o.host.RefetchTask(ctx)
	}
	if out.navigate != nil {
		o.host.Navigate(*out.navigate)
	}
}
