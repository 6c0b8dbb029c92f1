package types

import "time"

// ActionKind tells how a custom action is submitted
type ActionKind string

const (
	// ActionKindTask actions create a task rendered from the action's template.
	ActionKindTask ActionKind = "task"
	// ActionKindHook actions trigger a hook with a rendered payload.
	ActionKindHook ActionKind = "hook"
)

// TaskActions is the set of custom actions a decision task declared for
// its task group.
type TaskActions struct {
	Version   int            `json:"version"`
	Variables map[string]any `json:"variables,omitempty"`
	Actions   []Action       `json:"actions"`
}

// Action describes a server-declared custom action. Context is a list of
// tag predicates; the action applies to a task when any predicate matches.
type Action struct {
	Name        string              `json:"name"`
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	Kind        ActionKind          `json:"kind,omitempty"`
	Context     []map[string]string `json:"context"`
	Schema      map[string]any      `json:"schema,omitempty"`
	Task        map[string]any      `json:"task,omitempty"`
	HookGroupID string              `json:"hookGroupId,omitempty"`
	HookID      string              `json:"hookId,omitempty"`
	HookPayload map[string]any      `json:"hookPayload,omitempty"`
}

// PurgeCacheRequest asks every worker of a worker type to drop a cache
type PurgeCacheRequest struct {
	ProvisionerID string    `json:"provisionerId"`
	WorkerType    string    `json:"workerType"`
	CacheName     string    `json:"cacheName"`
	Before        time.Time `json:"before"`
}

// Hook is a named task template that can be fired with a payload
type Hook struct {
	HookGroupID string         `json:"hookGroupId"`
	HookID      string         `json:"hookId"`
	Task        map[string]any `json:"task"`
	// Deadline and Expires are Go durations relative to the firing time.
	Deadline string `json:"deadline"`
	Expires  string `json:"expires"`
}
