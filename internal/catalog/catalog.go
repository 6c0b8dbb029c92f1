// Package catalog derives the custom actions offered for a task from the
// task's tags and its task group's declared actions.
package catalog

import (
	"sort"

	"github.com/danpasecinic/taskaction/internal/types"
)

// Entry is one accepted custom action and the default text of its form.
type Entry struct {
	Action types.Action
	Input  string
}

// Catalog is the view model derived once per task identity.
type Catalog struct {
	// Actions holds accepted actions in declaration order.
	Actions []types.Action
	entries map[string]Entry
	// Caches lists the cache names referenced by the task payload, sorted.
	Caches []string
}

// InContext reports whether tags satisfy at least one predicate of context.
// A predicate matches when every key is present in tags with an equal value.
func InContext(context []map[string]string, tags map[string]string) bool {
	for _, predicate := range context {
		if matches(predicate, tags) {
			return true
		}
	}
	return false
}

func matches(predicate, tags map[string]string) bool {
	for tag, want := range predicate {
		got, ok := tags[tag]
		if !ok || got != want {
			return false
		}
	}
	return true
}

// Build walks the task's declared actions in order. The first context
// matching action of a given name wins; later actions with the same name and
// actions whose context does not match are skipped.
func Build(task *types.Task) *Catalog {
	c := &Catalog{
		entries: make(map[string]Entry),
	}
	if task == nil {
		return c
	}

	if task.TaskActions != nil {
		for _, action := range task.TaskActions.Actions {
			if _, taken := c.entries[action.Name]; taken {
				continue
			}
			if !InContext(action.Context, task.Tags) {
				continue
			}

			c.Actions = append(c.Actions, action)
			c.entries[action.Name] = Entry{
				Action: action,
				Input:  DefaultInput(action.Schema),
			}
		}
	}

	c.Caches = CachesFromTask(task)
	return c
}

// Has reports whether an accepted action carries the given name.
func (c *Catalog) Has(name string) bool {
	_, ok := c.entries[name]
	return ok
}

// Entry returns the accepted action with the given name.
func (c *Catalog) Entry(name string) (Entry, bool) {
	e, ok := c.entries[name]
	return e, ok
}

// Inputs returns a fresh map of action name to default form text.
func (c *Catalog) Inputs() map[string]string {
	inputs := make(map[string]string, len(c.entries))
	for name, e := range c.entries {
		inputs[name] = e.Input
	}
	return inputs
}

// CachesFromTask returns the sorted names of payload.cache.
func CachesFromTask(task *types.Task) []string {
	if task == nil || task.Payload == nil {
		return []string{}
	}
	cache, ok := task.Payload["cache"].(map[string]any)
	if !ok {
		return []string{}
	}

	names := make([]string, 0, len(cache))
	for name := range cache {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
