package state

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/danpasecinic/taskaction/internal/types"
	"github.com/mohae/deepcopy"
)

var (
	// ErrTaskNotFound is returned when a task is not found in the store
	ErrTaskNotFound = errors.New("task not found")
	// ErrTaskAlreadyExists is returned when attempting to add a duplicate task
	ErrTaskAlreadyExists = errors.New("task already exists")
	// ErrActionsNotFound is returned when a task group declared no actions
	ErrActionsNotFound = errors.New("task group actions not found")
	// ErrHookNotFound is returned when a hook is not found in the store
	ErrHookNotFound = errors.New("hook not found")
)

// TaskRecord is a task as the queue keeps it
type TaskRecord struct {
	TaskID     string               `json:"taskId"`
	Definition types.TaskDefinition `json:"definition"`
	Status     types.TaskStatus     `json:"status"`
}

// StatusUpdate mutates a status in place. Returning an error aborts the
// update and leaves the stored status unchanged.
type StatusUpdate func(status *types.TaskStatus) error

// StateStore defines the interface for managing queue state
type StateStore interface {
	// Task operations
	AddTask(task TaskRecord) error
	GetTask(taskID string) (TaskRecord, error)
	UpdateTaskStatus(taskID string, update StatusUpdate) (types.TaskStatus, error)
	ListTasks() ([]TaskRecord, error)
	ListDependents(taskID string) ([]TaskRecord, error)
	DeleteTask(taskID string) error

	// Task group actions
	SetActions(taskGroupID string, actions types.TaskActions) error
	GetActions(taskGroupID string) (types.TaskActions, error)

	// Worker cache purges
	AddPurgeRequest(req types.PurgeCacheRequest) error
	ListPurgeRequests(provisionerID, workerType string, since time.Time) ([]types.PurgeCacheRequest, error)
	DeletePurgeRequestsBefore(before time.Time) (int, error)

	// Hooks
	PutHook(hook types.Hook) error
	GetHook(hookGroupID, hookID string) (types.Hook, error)
}

// InMemoryStore is a thread-safe in-memory implementation of StateStore
type InMemoryStore struct {
	mu      sync.RWMutex
	tasks   map[string]TaskRecord
	actions map[string]types.TaskActions
	purges  []types.PurgeCacheRequest
	hooks   map[string]types.Hook
}

// NewInMemoryStore creates a new in-memory state store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		tasks:   make(map[string]TaskRecord),
		actions: make(map[string]types.TaskActions),
		hooks:   make(map[string]types.Hook),
	}
}

// records are copied on the way in and out so callers never share maps or
// slices with the store
func copyRecord(task TaskRecord) TaskRecord {
	return deepcopy.Copy(task).(TaskRecord)
}

func (s *InMemoryStore) AddTask(task TaskRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.TaskID]; exists {
		return ErrTaskAlreadyExists
	}
	s.tasks[task.TaskID] = copyRecord(task)
	return nil
}

func (s *InMemoryStore) GetTask(taskID string) (TaskRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, exists := s.tasks[taskID]
	if !exists {
		return TaskRecord{}, ErrTaskNotFound
	}
	return copyRecord(task), nil
}

func (s *InMemoryStore) UpdateTaskStatus(taskID string, update StatusUpdate) (types.TaskStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, exists := s.tasks[taskID]
	if !exists {
		return types.TaskStatus{}, ErrTaskNotFound
	}

	status := deepcopy.Copy(task.Status).(types.TaskStatus)
	if err := update(&status); err != nil {
		return types.TaskStatus{}, err
	}
	task.Status = status
	s.tasks[taskID] = task
	return deepcopy.Copy(status).(types.TaskStatus), nil
}

func (s *InMemoryStore) ListTasks() ([]TaskRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]TaskRecord, 0, len(s.tasks))
	for _, task := range s.tasks {
		tasks = append(tasks, copyRecord(task))
	}
	sortTasks(tasks)
	return tasks, nil
}

func (s *InMemoryStore) ListDependents(taskID string) ([]TaskRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tasks []TaskRecord
	for _, task := range s.tasks {
		for _, dep := range task.Definition.Dependencies {
			if dep == taskID {
				tasks = append(tasks, copyRecord(task))
				break
			}
		}
	}
	sortTasks(tasks)
	return tasks, nil
}

func (s *InMemoryStore) DeleteTask(taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[taskID]; !exists {
		return ErrTaskNotFound
	}
	delete(s.tasks, taskID)
	return nil
}

func (s *InMemoryStore) SetActions(taskGroupID string, actions types.TaskActions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions[taskGroupID] = deepcopy.Copy(actions).(types.TaskActions)
	return nil
}

func (s *InMemoryStore) GetActions(taskGroupID string) (types.TaskActions, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	actions, exists := s.actions[taskGroupID]
	if !exists {
		return types.TaskActions{}, ErrActionsNotFound
	}
	return deepcopy.Copy(actions).(types.TaskActions), nil
}

func (s *InMemoryStore) AddPurgeRequest(req types.PurgeCacheRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purges = append(s.purges, req)
	return nil
}

// ListPurgeRequests returns the requests for one worker type made after
// since, oldest first.
func (s *InMemoryStore) ListPurgeRequests(provisionerID, workerType string, since time.Time) (
	[]types.PurgeCacheRequest, error,
) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.PurgeCacheRequest
	for _, req := range s.purges {
		if req.ProvisionerID == provisionerID && req.WorkerType == workerType && req.Before.After(since) {
			out = append(out, req)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Before.Before(out[j].Before) })
	return out, nil
}

func (s *InMemoryStore) DeletePurgeRequestsBefore(before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.purges[:0]
	removed := 0
	for _, req := range s.purges {
		if req.Before.Before(before) {
			removed++
			continue
		}
		kept = append(kept, req)
	}
	s.purges = kept
	return removed, nil
}

func hookKey(hookGroupID, hookID string) string {
	return hookGroupID + "/" + hookID
}

func (s *InMemoryStore) PutHook(hook types.Hook) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks[hookKey(hook.HookGroupID, hook.HookID)] = deepcopy.Copy(hook).(types.Hook)
	return nil
}

func (s *InMemoryStore) GetHook(hookGroupID, hookID string) (types.Hook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hook, exists := s.hooks[hookKey(hookGroupID, hookID)]
	if !exists {
		return types.Hook{}, ErrHookNotFound
	}
	return deepcopy.Copy(hook).(types.Hook), nil
}

func sortTasks(tasks []TaskRecord) {
	sort.Slice(
		tasks, func(i, j int) bool {
			if !tasks[i].Definition.Created.Equal(tasks[j].Definition.Created) {
				return tasks[i].Definition.Created.Before(tasks[j].Definition.Created)
			}
			return tasks[i].TaskID < tasks[j].TaskID
		},
	)
}
