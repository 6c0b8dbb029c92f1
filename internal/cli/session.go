package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/danpasecinic/taskaction/internal/dialog"
	"github.com/danpasecinic/taskaction/internal/gateway"
	"github.com/danpasecinic/taskaction/internal/history"
	"github.com/danpasecinic/taskaction/internal/logger"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var log = logger.NewLogAgent("cli")

// newGateway builds the gateway used by commands. Tests replace it.
var newGateway = func() gateway.Gateway {
	return gateway.NewClient(cfg.Client.RootURL, cfg.Client.Timeout).SetDebug(cfg.Client.Debug)
}

// session is one task page: the task, its orchestrator and the terminal
// acting as host.
type session struct {
	route   dialog.Route
	gateway gateway.Gateway
	history history.Store
	orch    *dialog.Orchestrator
	out     io.Writer
}

func openSession(ctx context.Context, taskID string, out io.Writer) (*session, error) {
	store, err := history.Open(ctx, cfg.History.Backend, cfg.History.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	s := &session{
		route:   dialog.Route{TaskID: taskID, LogURL: cfg.Client.LogURL},
		gateway: newGateway(),
		history: store,
		out:     out,
	}
	s.orch = dialog.New(s.gateway, history.NewRecorder(store), s)

	if err := s.load(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return s, nil
}

func (s *session) load(ctx context.Context) error {
	task, err := s.gateway.GetTask(ctx, s.route.TaskID)
	if err != nil {
		return fmt.Errorf("failed to get task: %s", gateway.FormatError(err))
	}
	s.orch.Observe(ctx, s.route, task)
	return nil
}

func (s *session) Close() error {
	return s.history.Close()
}

// Navigate prints the page the action leads to. A pre-filled creation
// page is printed as the YAML definition to submit.
func (s *session) Navigate(nav dialog.Navigation) {
	_, _ = fmt.Fprintf(s.out, "Open: %s\n", nav.Path)
	if nav.Task == nil {
		return
	}

	data, err := yaml.Marshal(nav.Task)
	if err != nil {
		log.Warn("failed to render task definition", zap.Error(err))
		return
	}
	_, _ = fmt.Fprintf(s.out, "---\n%s", data)
}

func (s *session) Notify(n dialog.Notification) {
	_, _ = fmt.Fprintf(s.out, "[%s] %s\n", n.Variant, n.Message)
}

func (s *session) RefetchTask(ctx context.Context) {
	if err := s.load(ctx); err != nil {
		log.Warn("failed to refetch task", zap.String("task_id", s.route.TaskID), zap.Error(err))
		return
	}
	if task := s.orch.Task(); task != nil && task.Status != nil {
		_, _ = fmt.Fprintf(s.out, "Task %s is now %s\n", s.route.TaskID, task.Status.State)
	}
}
