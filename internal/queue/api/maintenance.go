package api

import (
	"net/http"

	"github.com/danpasecinic/taskaction/internal/types"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Prune handles POST /api/v1/prune
// Removes expired tasks and purge requests older than the retention window.
// With all=true every task is removed regardless of expiry.
func (s *Server) Prune(c echo.Context) error {
	all := c.QueryParam("all") == "true"

	result, err := s.prune(all)
	if err != nil {
		return internalError(c, err)
	}

	log.Info(
		"prune completed",
		zap.Int("tasks_removed", result.TasksRemoved),
		zap.Int("purge_requests_removed", result.PurgeRequestsRemoved),
	)
	return c.JSON(http.StatusOK, result)
}

func (s *Server) prune(all bool) (*types.PruneResult, error) {
	result := &types.PruneResult{}
	now := s.now()

	tasks, err := s.store.ListTasks()
	if err != nil {
		return nil, err
	}
	for _, task := range tasks {
		if !all && !task.Definition.Expires.Before(now) {
			continue
		}
		if err := s.store.DeleteTask(task.TaskID); err == nil {
			result.TasksRemoved++
		}
	}

	removed, err := s.store.DeletePurgeRequestsBefore(now.Add(-s.purgeRetention))
	if err != nil {
		return nil, err
	}
	result.PurgeRequestsRemoved = removed
	return result, nil
}
