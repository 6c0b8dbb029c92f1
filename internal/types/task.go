package types

import "time"

// TaskState represents the current state of a task or one of its runs
type TaskState string

const (
	TaskUnscheduled TaskState = "unscheduled"
	TaskPending     TaskState = "pending"
	TaskRunning     TaskState = "running"
	TaskCompleted   TaskState = "completed"
	TaskFailed      TaskState = "failed"
	TaskException   TaskState = "exception"
)

// IsResolved reports whether the state is final for a run.
func (s TaskState) IsResolved() bool {
	switch s {
	case TaskCompleted, TaskFailed, TaskException:
		return true
	default:
		return false
	}
}

// TaskMetadata is the human readable part of a task definition
type TaskMetadata struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Owner       string `json:"owner" yaml:"owner"`
	Source      string `json:"source" yaml:"source"`
}

// TaskDefinition is the re-submittable part of a task. It is what the queue
// accepts on creation and what clone, retrigger and interactive flows produce.
type TaskDefinition struct {
	ProvisionerID string            `json:"provisionerId" yaml:"provisionerId"`
	WorkerType    string            `json:"workerType" yaml:"workerType"`
	SchedulerID   string            `json:"schedulerId,omitempty" yaml:"schedulerId,omitempty"`
	TaskGroupID   string            `json:"taskGroupId,omitempty" yaml:"taskGroupId,omitempty"`
	Dependencies  []string          `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Requires      string            `json:"requires,omitempty" yaml:"requires,omitempty"`
	Routes        []string          `json:"routes,omitempty" yaml:"routes,omitempty"`
	Priority      string            `json:"priority,omitempty" yaml:"priority,omitempty"`
	Retries       int               `json:"retries" yaml:"retries"`
	Created       time.Time         `json:"created" yaml:"created"`
	Deadline      time.Time         `json:"deadline" yaml:"deadline"`
	Expires       time.Time         `json:"expires" yaml:"expires"`
	Scopes        []string          `json:"scopes,omitempty" yaml:"scopes,omitempty"`
	Payload       map[string]any    `json:"payload" yaml:"payload"`
	Metadata      TaskMetadata      `json:"metadata" yaml:"metadata"`
	Tags          map[string]string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Extra         map[string]any    `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Task is a task definition as observed by a client, together with the
// fields the queue adds on read. Those added fields are never part of a
// definition that is submitted back.
type Task struct {
	TaskID string `json:"taskId"`
	TaskDefinition
	Status      *TaskStatus  `json:"status,omitempty"`
	TaskActions *TaskActions `json:"taskActions,omitempty"`
}

// Definition returns the embedded definition without the added fields.
// The returned value shares maps and slices with t.
func (t *Task) Definition() TaskDefinition {
	return t.TaskDefinition
}

// Run is a single attempt at executing a task
type Run struct {
	RunID          int        `json:"runId"`
	State          TaskState  `json:"state"`
	ReasonCreated  string     `json:"reasonCreated"`
	ReasonResolved string     `json:"reasonResolved,omitempty"`
	WorkerID       string     `json:"workerId,omitempty"`
	Scheduled      time.Time  `json:"scheduled"`
	Started        *time.Time `json:"started,omitempty"`
	Resolved       *time.Time `json:"resolved,omitempty"`
}

// TaskStatus is the queue's view of a task's progress
type TaskStatus struct {
	TaskID        string    `json:"taskId"`
	ProvisionerID string    `json:"provisionerId"`
	WorkerType    string    `json:"workerType"`
	SchedulerID   string    `json:"schedulerId,omitempty"`
	TaskGroupID   string    `json:"taskGroupId,omitempty"`
	Deadline      time.Time `json:"deadline"`
	Expires       time.Time `json:"expires"`
	RetriesLeft   int       `json:"retriesLeft"`
	State         TaskState `json:"state"`
	Runs          []Run     `json:"runs"`
}

// LastRun returns the most recent run, or nil if the task never ran.
func (s *TaskStatus) LastRun() *Run {
	if s == nil || len(s.Runs) == 0 {
		return nil
	}
	return &s.Runs[len(s.Runs)-1]
}
