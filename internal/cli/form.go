package cli

import (
	"fmt"

	"github.com/danpasecinic/taskaction/internal/dialog"
	"github.com/spf13/cobra"
)

var formCmd = &cobra.Command{
	Use:   "form [taskId] [action]",
	Short: "Print the default input of a custom action",
	Long: `Print the YAML form a custom action starts with, built from its schema
defaults. Edit it and pass it back with "run --input".`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		s, err := openSession(cmd.Context(), args[0], out)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		action, err := s.orch.Resolve(args[1])
		if err != nil {
			return err
		}
		if action.Kind != dialog.KindCustom {
			return fmt.Errorf("%s is a built-in action and takes no input", action.Name())
		}

		text, _ := s.orch.Form(action.Name())
		_, _ = fmt.Fprint(out, text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(formCmd)
}
