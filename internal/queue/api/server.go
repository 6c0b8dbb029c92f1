package api

import (
	"context"
	"time"

	"github.com/danpasecinic/taskaction/internal/logger"
	"github.com/danpasecinic/taskaction/internal/queue/scheduler"
	"github.com/danpasecinic/taskaction/internal/queue/state"
	"github.com/danpasecinic/taskaction/internal/types"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var log = logger.NewLogAgent("queue")

const (
	// MaxRuns bounds the runs a task may accumulate through reruns.
	MaxRuns = 50

	defaultPurgeRetention = 24 * time.Hour
)

// Server handles HTTP requests for the queue API.
type Server struct {
	store          state.StateStore
	scheduler      scheduler.Scheduler
	metrics        *Metrics
	now            func() time.Time
	newTaskID      func() string
	purgeRetention time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithTaskIDGenerator replaces the generator used for hook-created tasks.
func WithTaskIDGenerator(gen func() string) Option {
	return func(s *Server) { s.newTaskID = gen }
}

// WithPurgeRetention sets how long purge requests are kept before pruning.
func WithPurgeRetention(d time.Duration) Option {
	return func(s *Server) { s.purgeRetention = d }
}

// NewServer creates a new API server with the given state store and scheduler.
func NewServer(store state.StateStore, sched scheduler.Scheduler, metrics *Metrics, opts ...Option) *Server {
	s := &Server{
		store:          store,
		scheduler:      sched,
		metrics:        metrics,
		now:            time.Now,
		newTaskID:      newTaskID,
		purgeRetention: defaultPurgeRetention,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterRoutes registers all API endpoints with the Echo router.
// Routes are grouped under /api/v1 for versioning.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	v1 := e.Group("/api/v1")
	m := s.metrics

	// Task routes
	v1.GET("/tasks", s.ListTasks)
	v1.GET("/tasks/:taskId", s.GetTask)
	v1.PUT("/tasks/:taskId", m.count("createTask", s.CreateTask))
	v1.POST("/tasks/:taskId/schedule", m.count("scheduleTask", s.ScheduleTask))
	v1.POST("/tasks/:taskId/rerun", m.count("rerunTask", s.RerunTask))
	v1.POST("/tasks/:taskId/cancel", m.count("cancelTask", s.CancelTask))
	v1.PUT("/tasks/:taskId/runs/:runId", m.count("reportRun", s.ReportRun))

	// Worker cache routes
	v1.POST("/purge-cache/:provisionerId/:workerType", m.count("purgeCache", s.PurgeCache))
	v1.GET("/purge-cache/:provisionerId/:workerType", s.ListPurgeRequests)

	// Task group action routes
	v1.PUT("/task-groups/:taskGroupId/actions", m.count("setActions", s.SetActions))
	v1.GET("/task-groups/:taskGroupId/actions", s.GetActions)

	// Hook routes
	v1.PUT("/hooks/:hookGroupId/:hookId", m.count("putHook", s.PutHook))
	v1.GET("/hooks/:hookGroupId/:hookId", s.GetHook)
	v1.POST("/hooks/:hookGroupId/:hookId/trigger", m.count("triggerHook", s.TriggerHook))

	v1.POST("/prune", m.count("prune", s.Prune))

	e.GET("/metrics", m.Handler())
}

// StartDeadlineChecker runs a background job that resolves tasks whose
// deadline passed as exception.
func (s *Server) StartDeadlineChecker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("deadline checker started", zap.Duration("interval", interval))

	for {
		select {
		case <-ticker.C:
			s.checkDeadlines()
		case <-ctx.Done():
			log.Info("deadline checker stopped")
			return
		}
	}
}

func (s *Server) checkDeadlines() int {
	tasks, err := s.store.ListTasks()
	if err != nil {
		log.Error("failed to list tasks for deadline check", zap.Error(err))
		return 0
	}

	now := s.now()
	expired := 0

	for _, task := range tasks {
		if task.Status.State.IsResolved() || !task.Definition.Deadline.Before(now) {
			continue
		}

		_, err := s.store.UpdateTaskStatus(
			task.TaskID, func(status *types.TaskStatus) error {
				return resolveException(status, reasonDeadlineExceeded, now)
			},
		)
		if err != nil {
			log.Warn("failed to resolve task past deadline", zap.String("task_id", task.TaskID), zap.Error(err))
			continue
		}
		expired++
		s.metrics.deadlines.Inc()
		s.release(task.TaskID)
	}

	if expired > 0 {
		log.Info("resolved tasks past their deadline", zap.Int("count", expired))
	}
	return expired
}

// release schedules the dependents of a task that just resolved.
func (s *Server) release(taskID string) {
	promoted, err := s.scheduler.Release(taskID)
	if err != nil {
		log.Warn("failed to schedule dependents", zap.String("task_id", taskID), zap.Error(err))
	}
	if len(promoted) > 0 {
		s.metrics.released.Add(float64(len(promoted)))
		log.Debug("scheduled dependents", zap.String("task_id", taskID), zap.Strings("dependents", promoted))
	}
}
