package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/danpasecinic/taskaction/internal/dialog"
	"github.com/danpasecinic/taskaction/internal/gateway"
	"github.com/spf13/cobra"
)

var (
	runInput  string
	runCaches []string
	runYes    bool
)

// confirm asks the user to accept the open dialog. Tests replace it.
var confirm = func(props dialog.Props) (bool, error) {
	accepted := false
	field := huh.NewConfirm().
		Title(props.Title).
		Description(props.Body).
		Value(&accepted).
		Affirmative(props.ConfirmText).
		Negative("Close")
	err := huh.NewForm(huh.NewGroup(field)).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return accepted, err
}

var runCmd = &cobra.Command{
	Use:   "run [taskId] [action]",
	Short: "Run an action on a task",
	Long: `Open the confirmation dialog for an action and submit it.

Custom actions read their input from --input (YAML or JSON, "-" for stdin);
without it the defaults from the action's schema are submitted. For
purge-caches every cache starts selected and each --cache flag toggles one.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		s, err := openSession(ctx, args[0], out)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		action, err := s.orch.Resolve(args[1])
		if err != nil {
			return err
		}

		if runInput != "" {
			if action.Kind != dialog.KindCustom {
				return fmt.Errorf("--input only applies to custom actions")
			}
			text, err := readInput(cmd.InOrStdin(), runInput)
			if err != nil {
				return err
			}
			if err := s.orch.SetForm(action.Name(), text); err != nil {
				return err
			}
		}

		if err := s.orch.Open(action); err != nil {
			return err
		}
		if len(runCaches) > 0 && action.Kind != dialog.KindPurgeCaches {
			return fmt.Errorf("--cache only applies to purge-caches")
		}
		for _, name := range runCaches {
			s.orch.ToggleCache(name)
		}

		props := s.orch.State().Props
		if !runYes {
			ok, err := confirm(props)
			if err != nil {
				return err
			}
			if !ok {
				s.orch.Dismiss()
				_, _ = fmt.Fprintln(out, "Dismissed")
				return nil
			}
		} else {
			printDialog(out, props)
		}

		if err := s.orch.Confirm(ctx); err != nil {
			return fmt.Errorf("%s failed: %s", action.Title(), gateway.FormatError(err))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runInput, "input", "i", "", "custom action input file (YAML or JSON, - for stdin)")
	runCmd.Flags().StringArrayVar(&runCaches, "cache", []string{}, "toggle a cache in the purge selection")
	runCmd.Flags().BoolVarP(&runYes, "yes", "y", false, "submit without asking for confirmation")
}

func printDialog(out io.Writer, props dialog.Props) {
	_, _ = fmt.Fprintln(out, props.Title)
	if props.Body != "" {
		_, _ = fmt.Fprintln(out, props.Body)
	}
}

func readInput(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), nil
}
