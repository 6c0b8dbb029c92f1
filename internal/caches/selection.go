// Package caches tracks which worker caches of a task are selected for purging.
package caches

import (
	"slices"
	"sort"
)

// Selection is the set of cache names picked for a purge. A new selection
// starts with every known cache selected.
type Selection struct {
	all      []string
	selected map[string]struct{}
}

// New returns a selection over names with all of them selected. Duplicate
// names are collapsed.
func New(names []string) *Selection {
	s := &Selection{selected: make(map[string]struct{}, len(names))}
	for _, name := range names {
		if _, ok := s.selected[name]; ok {
			continue
		}
		s.selected[name] = struct{}{}
		s.all = append(s.all, name)
	}
	sort.Strings(s.all)
	return s
}

// Toggle flips the membership of name and returns the updated selection.
// Names the task does not declare are ignored.
func (s *Selection) Toggle(name string) []string {
	if !slices.Contains(s.all, name) {
		return s.Selected()
	}
	if _, ok := s.selected[name]; ok {
		delete(s.selected, name)
	} else {
		s.selected[name] = struct{}{}
	}
	return s.Selected()
}

// Selected returns the selected names in sorted order.
func (s *Selection) Selected() []string {
	out := make([]string, 0, len(s.selected))
	for _, name := range s.all {
		if _, ok := s.selected[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// All returns every cache name the selection knows about.
func (s *Selection) All() []string {
	return slices.Clone(s.all)
}

// Has reports whether name is currently selected.
func (s *Selection) Has(name string) bool {
	_, ok := s.selected[name]
	return ok
}

// Len returns the number of selected caches.
func (s *Selection) Len() int {
	return len(s.selected)
}
