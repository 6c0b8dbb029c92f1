package cli

import (
	"fmt"

	"github.com/danpasecinic/taskaction/internal/config"
	"github.com/danpasecinic/taskaction/internal/logger"
	"github.com/spf13/cobra"
)

var (
	cfgFile        string
	rootURL        string
	historyBackend string
	historyDSN     string
	logURL         string
	verbose        bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "taskaction",
	Short: "taskaction - act on queue tasks",
	Long: `taskaction shows the actions available for a task and runs them.

Built-in actions cancel, rerun, retrigger, schedule, edit, purge worker caches
and create interactive copies of a task. Custom actions declared by the task's
group are listed next to them and take their input as YAML.`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&rootURL, "root-url", "", "queue root URL")
	rootCmd.PersistentFlags().StringVar(&historyBackend, "history", "", "history backend (memory, sqlite, postgres)")
	rootCmd.PersistentFlags().StringVar(&historyDSN, "history-dsn", "", "history database path or URL")
	rootCmd.PersistentFlags().StringVar(&logURL, "log-url", "", "log viewer URL the task is opened from")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// initConfig loads the configuration and lets flags override it.
func initConfig(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("root-url") {
		loaded.Client.RootURL = rootURL
	}
	if flags.Changed("history") {
		loaded.History.Backend = historyBackend
	}
	if flags.Changed("history-dsn") {
		loaded.History.DSN = historyDSN
	}
	if flags.Changed("log-url") {
		loaded.Client.LogURL = logURL
	}
	if verbose {
		loaded.Log.Level = "debug"
		loaded.Client.Debug = true
	}
	if err := config.Validate(loaded); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if err := logger.Init(loaded.Log.Level, loaded.Log.JSON); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	cfg = loaded
	return nil
}
