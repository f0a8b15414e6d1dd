package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

var (
	verbose     bool
	plainOutput bool
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "prio",
	Short: "prio - build a task list and rank it with the analysis engine",
	Long: `prio keeps a working set of tasks, sends it to a remote analysis
engine for scoring, and shows the ranked result and the engine's top
suggestions.

Tasks are added one at a time with "prio add" or loaded in bulk from a
JSON array with "prio load". The working set is kept in a workspace file
between invocations. "prio session" opens an interactive terminal view.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose && LogLevel != nil {
			LogLevel.Set(slog.LevelDebug)
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "prio %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log engine requests to stderr")
	rootCmd.PersistentFlags().BoolVar(&plainOutput, "plain", false, "Print task cards as plain text")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
