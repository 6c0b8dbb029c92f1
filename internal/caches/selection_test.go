package caches

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSelectsAll(t *testing.T) {
	s := New([]string{"npm-cache", "build-cache", "npm-cache"})

	assert.Equal(t, []string{"build-cache", "npm-cache"}, s.All())
	assert.Equal(t, []string{"build-cache", "npm-cache"}, s.Selected())
	assert.True(t, s.Has("npm-cache"))
	assert.Equal(t, 2, s.Len())
}

func TestNewEmpty(t *testing.T) {
	s := New(nil)

	assert.Empty(t, s.All())
	assert.Equal(t, []string{}, s.Selected())
	assert.Equal(t, []string{}, s.Toggle("npm-cache"))
}

func TestToggle(t *testing.T) {
	tests := []struct {
		name    string
		toggles []string
		want    []string
	}{
		{name: "deselect one", toggles: []string{"npm-cache"}, want: []string{"build-cache", "gradle"}},
		{name: "deselect all", toggles: []string{"npm-cache", "gradle", "build-cache"}, want: []string{}},
		{name: "twice restores", toggles: []string{"gradle", "gradle"}, want: []string{"build-cache", "gradle", "npm-cache"}},
		{name: "reselect keeps order", toggles: []string{"build-cache", "npm-cache", "build-cache"}, want: []string{"build-cache", "gradle"}},
		{name: "unknown name ignored", toggles: []string{"ccache"}, want: []string{"build-cache", "gradle", "npm-cache"}},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				s := New([]string{"npm-cache", "build-cache", "gradle"})
				var got []string
				for _, name := range tt.toggles {
					got = s.Toggle(name)
				}
				assert.Equal(t, tt.want, got)
				assert.Equal(t, tt.want, s.Selected())
			},
		)
	}
}

func TestToggleTwiceForEveryName(t *testing.T) {
	names := []string{"a", "b", "c", "d"}
	s := New(names)
	original := s.Selected()

	s.Toggle("b")
	for _, name := range names {
		before := s.Selected()
		s.Toggle(name)
		s.Toggle(name)
		assert.Equal(t, before, s.Selected(), name)
	}
	s.Toggle("b")
	assert.Equal(t, original, s.Selected())
}

func TestAllReturnsCopy(t *testing.T) {
	s := New([]string{"a", "b"})
	all := s.All()
	all[0] = "z"
	assert.Equal(t, []string{"a", "b"}, s.All())
}
