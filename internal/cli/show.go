package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/danpasecinic/taskaction/internal/dialog"
	"github.com/danpasecinic/taskaction/internal/types"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [taskId]",
	Short: "Show a task and its actions",
	Long:  `Show a task's status and the actions that can be run on it.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		s, err := openSession(cmd.Context(), args[0], out)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		printTask(out, s.orch.Task())
		_, _ = fmt.Fprintln(out)
		printMenu(out, s.orch.Menu())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func printTask(out io.Writer, task *types.Task) {
	_, _ = fmt.Fprintln(out, "Task Details:")
	_, _ = fmt.Fprintf(out, "  ID:            %s\n", task.TaskID)
	if task.Metadata.Name != "" {
		_, _ = fmt.Fprintf(out, "  Name:          %s\n", task.Metadata.Name)
	}
	_, _ = fmt.Fprintf(out, "  Worker Type:   %s/%s\n", task.ProvisionerID, task.WorkerType)
	_, _ = fmt.Fprintf(out, "  Task Group:    %s\n", task.TaskGroupID)
	if task.Status != nil {
		_, _ = fmt.Fprintf(out, "  State:         %s\n", task.Status.State)
		_, _ = fmt.Fprintf(out, "  Runs:          %d\n", len(task.Status.Runs))
	}
	_, _ = fmt.Fprintf(out, "  Created:       %s\n", task.Created.Format(time.RFC3339))
	_, _ = fmt.Fprintf(out, "  Deadline:      %s\n", task.Deadline.Format(time.RFC3339))
}

func printMenu(out io.Writer, items []dialog.MenuItem) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "ACTION\tLABEL\tKIND\tSTATUS")
	for _, item := range items {
		kind := "built-in"
		if item.Action.Kind == dialog.KindCustom {
			kind = string(item.Action.Custom.Kind)
		}
		status := "available"
		if item.Disabled {
			status = "busy"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", item.Action.Name(), item.Label, kind, status)
	}
	_ = w.Flush()
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}
