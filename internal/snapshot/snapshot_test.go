package snapshot

import (
	"testing"
	"time"

	"github.com/danpasecinic/taskaction/internal/slugid"
	"github.com/danpasecinic/taskaction/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTask() *types.Task {
	created := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	return &types.Task{
		TaskID: "fN1SbArXTPSVFNUvaOlinQ",
		TaskDefinition: types.TaskDefinition{
			ProvisionerID: "proj-test",
			WorkerType:    "linux-small",
			SchedulerID:   "taskcluster-github",
			TaskGroupID:   "Qx3nW1wqTZ2Kb4d0hE8Xtw",
			Dependencies:  []string{"Qx3nW1wqTZ2Kb4d0hE8Xtw"},
			Requires:      "all-completed",
			Routes:        []string{"index.project.latest", "notify.email.dev@example.com.on-failed"},
			Priority:      "high",
			Retries:       5,
			Created:       created,
			Deadline:      created.Add(time.Hour),
			Expires:       created.Add(30 * 24 * time.Hour),
			Scopes:        []string{"docker-worker:cache:npm"},
			Payload: map[string]any{
				"image":      "node:20",
				"maxRunTime": float64(600),
				"env":        map[string]any{"CI": "true"},
				"features":   map[string]any{"taskclusterProxy": true},
				"cache":      map[string]any{"npm-cache": "/home/worker/.npm"},
				"caches":     []any{"npm-cache"},
				"command":    []any{"npm", "test"},
			},
			Metadata: types.TaskMetadata{Name: "unit tests", Owner: "dev@example.com"},
			Tags:     map[string]string{"platform": "linux", "test": "unit"},
		},
		Status:      &types.TaskStatus{TaskID: "fN1SbArXTPSVFNUvaOlinQ", State: types.TaskFailed},
		TaskActions: &types.TaskActions{Version: 1},
	}
}

func fixedTransformer(now time.Time, id string) *Transformer {
	return NewWithClock(
		func() time.Time { return now },
		func() string { return id },
	)
}

func TestCloneForEdit(t *testing.T) {
	task := newTestTask()
	def := New().CloneForEdit(task)

	assert.Nil(t, def.Routes)
	assert.Empty(t, def.TaskGroupID)
	assert.Empty(t, def.SchedulerID)
	assert.Empty(t, def.Priority)
	assert.Nil(t, def.Dependencies)
	assert.Empty(t, def.Requires)

	// everything else is kept as is
	assert.Equal(t, task.ProvisionerID, def.ProvisionerID)
	assert.Equal(t, task.Retries, def.Retries)
	assert.Equal(t, task.Created, def.Created)
	assert.Equal(t, task.Deadline, def.Deadline)
	assert.Equal(t, task.Payload, def.Payload)
	assert.Equal(t, task.Tags, def.Tags)
	assert.Equal(t, task.Metadata, def.Metadata)
}

func TestCloneForEditIsDeepCopy(t *testing.T) {
	task := newTestTask()
	def := New().CloneForEdit(task)

	def.Payload["image"] = "changed"
	def.Payload["env"].(map[string]any)["CI"] = "false"
	def.Tags["platform"] = "mac"
	def.Scopes[0] = "changed"

	assert.Equal(t, "node:20", task.Payload["image"])
	assert.Equal(t, "true", task.Payload["env"].(map[string]any)["CI"])
	assert.Equal(t, "linux", task.Tags["platform"])
	assert.Equal(t, "docker-worker:cache:npm", task.Scopes[0])
}

func TestInteractive(t *testing.T) {
	now := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	task := newTestTask()
	dup := fixedTransformer(now, "Xj2c2sN1QSmU7ZQ3hY4Jtg").Interactive(task)
	def := dup.Definition

	assert.Equal(t, "Xj2c2sN1QSmU7ZQ3hY4Jtg", dup.TaskID)
	assert.Equal(t, true, def.Payload["features"].(map[string]any)["interactive"])
	assert.Equal(t, true, def.Payload["features"].(map[string]any)["taskclusterProxy"])
	assert.NotContains(t, def.Payload, "caches")
	assert.NotContains(t, def.Payload, "cache")
	assert.Equal(t, MinInteractiveRunTime, def.Payload["maxRunTime"])
	assert.Nil(t, def.Routes)
	assert.Equal(t, "true", def.Payload["env"].(map[string]any)[InteractiveEnv])
	assert.Equal(t, "true", def.Payload["env"].(map[string]any)["CI"])

	// edit clone fields are gone too
	assert.Empty(t, def.TaskGroupID)
	assert.Nil(t, def.Dependencies)

	assert.Equal(t, 0, def.Retries)
	assert.Equal(t, now, def.Created)
	assert.Equal(t, now.Add(time.Hour), def.Deadline)

	// source untouched
	assert.Equal(t, float64(600), task.Payload["maxRunTime"])
	assert.NotContains(t, task.Payload["features"], "interactive")
	assert.NotContains(t, task.Payload["env"], InteractiveEnv)
	assert.Contains(t, task.Payload, "cache")
	assert.Len(t, task.Routes, 2)
}

func TestInteractiveKeepsLongerRunTime(t *testing.T) {
	task := newTestTask()
	task.Payload["maxRunTime"] = float64(7200)

	def := New().Interactive(task).Definition
	assert.Equal(t, float64(7200), def.Payload["maxRunTime"])
}

func TestInteractiveTypedPayloadMaps(t *testing.T) {
	task := newTestTask()
	task.Payload["env"] = map[string]string{"CI": "true", "LANG": "C"}
	task.Payload["features"] = map[string]bool{"taskclusterProxy": true}

	def := New().Interactive(task).Definition

	assert.Equal(
		t, map[string]any{"CI": "true", "LANG": "C", InteractiveEnv: "true"},
		def.Payload["env"],
	)
	assert.Equal(
		t, map[string]any{"taskclusterProxy": true, "interactive": true},
		def.Payload["features"],
	)
	assert.Equal(t, map[string]string{"CI": "true", "LANG": "C"}, task.Payload["env"])
}

func TestInteractiveEmptyPayload(t *testing.T) {
	task := newTestTask()
	task.Payload = nil

	dup := New().Interactive(task)
	def := dup.Definition

	assert.True(t, slugid.Valid(dup.TaskID))
	assert.Equal(t, map[string]any{"interactive": true}, def.Payload["features"])
	assert.Equal(t, map[string]any{InteractiveEnv: "true"}, def.Payload["env"])
	assert.Equal(t, MinInteractiveRunTime, def.Payload["maxRunTime"])
}

func TestRetrigger(t *testing.T) {
	now := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	task := newTestTask()
	dup := fixedTransformer(now, "Xj2c2sN1QSmU7ZQ3hY4Jtg").Retrigger(task)
	def := dup.Definition

	assert.Equal(t, "Xj2c2sN1QSmU7ZQ3hY4Jtg", dup.TaskID)
	assert.Equal(t, now, def.Created)
	assert.Equal(t, now.Add(time.Hour), def.Deadline)
	assert.Equal(t, now.Add(30*24*time.Hour), def.Expires)
	assert.Equal(t, 0, def.Retries)
	assert.Nil(t, def.Dependencies)

	// retrigger keeps group linkage
	assert.Equal(t, task.TaskGroupID, def.TaskGroupID)
	assert.Equal(t, task.SchedulerID, def.SchedulerID)
	assert.Equal(t, task.Routes, def.Routes)
	assert.Equal(t, task.Requires, def.Requires)
	assert.Equal(t, task.Priority, def.Priority)

	// source untouched
	assert.Equal(t, 5, task.Retries)
	assert.Len(t, task.Dependencies, 1)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), task.Created)
}

func TestRetriggerPreservesIntervals(t *testing.T) {
	tests := []struct {
		name     string
		deadline time.Duration
		expires  time.Duration
	}{
		{name: "hour deadline", deadline: time.Hour, expires: 24 * time.Hour},
		{name: "sub millisecond offsets", deadline: time.Hour + 1500*time.Microsecond, expires: 48*time.Hour + 7*time.Nanosecond},
		{name: "deadline equals created", deadline: 0, expires: time.Minute},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				task := newTestTask()
				task.Created = time.Date(2021, 3, 4, 5, 6, 7, 123456789, time.UTC)
				task.Deadline = task.Created.Add(tt.deadline)
				task.Expires = task.Created.Add(tt.expires)

				def := New().Retrigger(task).Definition

				assert.Equal(t, tt.deadline, def.Deadline.Sub(def.Created))
				assert.Equal(t, tt.expires, def.Expires.Sub(def.Created))
			},
		)
	}
}

func TestRetriggerCreatedIsNow(t *testing.T) {
	before := time.Now().UTC().Truncate(time.Millisecond)
	dup := New().Retrigger(newTestTask())
	after := time.Now().UTC()

	require.True(t, slugid.Valid(dup.TaskID))
	assert.False(t, dup.Definition.Created.Before(before))
	assert.False(t, dup.Definition.Created.After(after))
	assert.Equal(t, time.UTC, dup.Definition.Created.Location())
}

func TestDuplicatesGetFreshIDs(t *testing.T) {
	tr := New()
	task := newTestTask()

	a := tr.Retrigger(task)
	b := tr.Retrigger(task)
	c := tr.Interactive(task)

	assert.NotEqual(t, a.TaskID, b.TaskID)
	assert.NotEqual(t, a.TaskID, c.TaskID)
	assert.NotEqual(t, task.TaskID, a.TaskID)
}
