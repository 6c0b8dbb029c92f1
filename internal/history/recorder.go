package history

import (
	"context"

	"github.com/danpasecinic/taskaction/internal/logger"
	"github.com/danpasecinic/taskaction/internal/slugid"
	"go.uber.org/zap"
)

var log = logger.NewLogAgent("history")

// Recorder stores task ids that look like real task ids and ignores the rest.
type Recorder struct {
	store Store
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// Record remembers taskID. Invalid ids are dropped silently and store
// failures are only logged: history is best effort.
func (r *Recorder) Record(ctx context.Context, taskID string) {
	if !slugid.Valid(taskID) {
		return
	}
	if err := r.store.Put(ctx, taskID); err != nil {
		log.Warn("failed to record task", zap.String("task_id", taskID), zap.Error(err))
	}
}
