// Package snapshot derives re-submittable copies of a task for the edit,
// retrigger and interactive flows. The source task is never modified.
package snapshot

import (
	"time"

	"github.com/danpasecinic/taskaction/internal/slugid"
	"github.com/danpasecinic/taskaction/internal/types"
	"github.com/mohae/deepcopy"
)

const (
	// MinInteractiveRunTime is the lowest payload.maxRunTime, in seconds, of an
	// interactive duplicate.
	MinInteractiveRunTime = 3600
	// InteractiveEnv is set to "true" in the environment of interactive duplicates.
	InteractiveEnv = "TASKCLUSTER_INTERACTIVE"
)

// Duplicate is a copy of a task to be created under a fresh identifier.
type Duplicate struct {
	TaskID     string
	Definition types.TaskDefinition
}

// Transformer holds the clock and identifier source used for duplicates.
type Transformer struct {
	now       func() time.Time
	newTaskID func() string
}

// New returns a Transformer using the wall clock and slugid.Nice.
func New() *Transformer {
	return &Transformer{
		now:       time.Now,
		newTaskID: slugid.Nice,
	}
}

// NewWithClock returns a Transformer with the given sources; nil falls back
// to the defaults.
func NewWithClock(now func() time.Time, newTaskID func() string) *Transformer {
	t := New()
	if now != nil {
		t.now = now
	}
	if newTaskID != nil {
		t.newTaskID = newTaskID
	}
	return t
}

// copyDefinition deep copies the definition part of task, leaving the
// added fields (taskId, status, taskActions) behind.
func copyDefinition(task *types.Task) types.TaskDefinition {
	return deepcopy.Copy(task.Definition()).(types.TaskDefinition)
}

// CloneForEdit returns the task without the fields that tie it to its task
// group and scheduling: routes, taskGroupId, schedulerId, priority,
// dependencies and requires.
func (t *Transformer) CloneForEdit(task *types.Task) types.TaskDefinition {
	def := copyDefinition(task)
	def.Routes = nil
	def.TaskGroupID = ""
	def.SchedulerID = ""
	def.Priority = ""
	def.Dependencies = nil
	def.Requires = ""
	return def
}

// Interactive returns an interactive duplicate of task: the edit clone with
// interactive features on, caches and routes stripped, maxRunTime of at
// least an hour and TASKCLUSTER_INTERACTIVE=true in its environment.
func (t *Transformer) Interactive(task *types.Task) Duplicate {
	def := t.CloneForEdit(task)
	if def.Payload == nil {
		def.Payload = make(map[string]any)
	}

	features := objectOf(def.Payload["features"])
	features["interactive"] = true
	def.Payload["features"] = features

	delete(def.Payload, "caches")
	delete(def.Payload, "cache")

	if maxRunTime(def.Payload) < MinInteractiveRunTime {
		def.Payload["maxRunTime"] = MinInteractiveRunTime
	}

	def.Routes = nil

	env := objectOf(def.Payload["env"])
	env[InteractiveEnv] = "true"
	def.Payload["env"] = env

	def.Retries = 0
	rebase(&def, t.now())

	return Duplicate{TaskID: t.newTaskID(), Definition: def}
}

// Retrigger returns a duplicate of task without its dependencies, with
// retries reset and timestamps moved to now while keeping deadline and
// expires at the same distance from created.
func (t *Transformer) Retrigger(task *types.Task) Duplicate {
	def := copyDefinition(task)
	def.Dependencies = nil
	def.Retries = 0
	rebase(&def, t.now())

	return Duplicate{TaskID: t.newTaskID(), Definition: def}
}

// objectOf returns v as a map[string]any. Payloads built in Go may hold
// typed maps; anything that is not an object yields an empty map.
func objectOf(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case map[string]string:
		return convert(m)
	case map[string]bool:
		return convert(m)
	default:
		return make(map[string]any)
	}
}

func convert[V any](m map[string]V) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// rebase moves created to now and shifts deadline and expires by the same
// amount. Timestamps are kept at millisecond precision in UTC.
func rebase(def *types.TaskDefinition, now time.Time) {
	now = now.UTC().Truncate(time.Millisecond)
	deadline := def.Deadline.Sub(def.Created)
	expires := def.Expires.Sub(def.Created)

	def.Created = now
	def.Deadline = now.Add(deadline)
	def.Expires = now.Add(expires)
}

func maxRunTime(payload map[string]any) float64 {
	switch v := payload["maxRunTime"].(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case float64:
		return v
	default:
		return 0
	}
}
