package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/danpasecinic/taskaction/internal/types"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// PurgeCacheRequest represents a request to purge a worker cache.
type PurgeCacheRequest struct {
	CacheName string `json:"cacheName"`
}

// PurgeCache handles POST /api/v1/purge-cache/:provisionerId/:workerType.
// Records a purge that workers of the type pick up on their next poll.
func (s *Server) PurgeCache(c echo.Context) error {
	var req PurgeCacheRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	if strings.TrimSpace(req.CacheName) == "" {
		return badRequest(c, "cacheName is required")
	}

	purge := types.PurgeCacheRequest{
		ProvisionerID: c.Param("provisionerId"),
		WorkerType:    c.Param("workerType"),
		CacheName:     req.CacheName,
		Before:        s.now().UTC(),
	}
	if err := s.store.AddPurgeRequest(purge); err != nil {
		return internalError(c, err)
	}

	log.Info(
		"cache purge requested",
		zap.String("provisioner_id", purge.ProvisionerID),
		zap.String("worker_type", purge.WorkerType),
		zap.String("cache_name", purge.CacheName),
	)
	return c.NoContent(http.StatusNoContent)
}

// ListPurgeRequests handles GET /api/v1/purge-cache/:provisionerId/:workerType.
// The optional since query parameter (RFC 3339) limits the listing to
// newer requests.
func (s *Server) ListPurgeRequests(c echo.Context) error {
	var since time.Time
	if raw := c.QueryParam("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return badRequest(c, "since must be an RFC 3339 timestamp")
		}
		since = parsed
	}

	reqs, err := s.store.ListPurgeRequests(c.Param("provisionerId"), c.Param("workerType"), since)
	if err != nil {
		return internalError(c, err)
	}
	if reqs == nil {
		reqs = []types.PurgeCacheRequest{}
	}
	return c.JSON(http.StatusOK, map[string]any{"requests": reqs})
}
