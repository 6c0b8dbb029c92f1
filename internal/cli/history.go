package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/danpasecinic/taskaction/internal/history"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently viewed tasks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.Open(cmd.Context(), cfg.History.Backend, cfg.History.DSN)
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		defer func() { _ = store.Close() }()

		limit := cfg.History.Limit
		if cmd.Flags().Changed("limit") {
			limit = historyLimit
		}

		entries, err := store.List(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("failed to list history: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			_, _ = fmt.Fprintln(out, "No tasks viewed yet")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintln(w, "TASK ID\tSEEN")
		for _, entry := range entries {
			_, _ = fmt.Fprintf(w, "%s\t%s ago\n", entry.TaskID, formatDuration(time.Since(entry.SeenAt)))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "maximum entries to list (default from config)")
}
