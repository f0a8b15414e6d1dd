package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/prio/internal/core"
	"github.com/valter-silva-au/prio/internal/exchange"
	"github.com/valter-silva-au/prio/internal/render"
)

var (
	analyzeStrategy string
	suggestStrategy string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score the working set with the analysis engine",
	Long: `Send the working set to the analysis engine and replace it with the
scored result. Each task comes back with a priority label, a score and an
explanation.

Strategies: smart_balance, fastest_wins, high_impact, deadline_driven.
Without --strategy the configured default is used.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		strategy, err := resolveStrategy(analyzeStrategy)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
		defer stop()

		var res *exchange.AnalyzeResult
		err = updateWorkspace(func(*core.Store) error {
			var err error
			res, err = Session.Analyze(ctx, strategy)
			if err != nil {
				if errors.Is(err, core.ErrNoTasks) {
					return errors.New("add at least one task before analyzing")
				}
				return fmt.Errorf("analyzing tasks: %w", err)
			}
			return nil
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		echoed := res.Strategy
		if echoed == "" {
			echoed = strategy
		}
		fmt.Fprintf(out, "Analyzed using strategy: %s.\n", echoed)
		writeWarnings(out, res.Warnings)
		return render.Write(out, res.Tasks, plainOutput)
	},
}

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Ask the analysis engine which tasks to do next",
	Long: `Send the working set to the analysis engine and show its top
suggestions. The working set is not changed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		strategy, err := resolveStrategy(suggestStrategy)
		if err != nil {
			return err
		}
		if _, err := openWorkspace(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
		defer stop()

		res, err := Session.Suggest(ctx, strategy)
		if err != nil {
			if errors.Is(err, core.ErrNoTasks) {
				return errors.New("add at least one task before requesting suggestions")
			}
			return fmt.Errorf("fetching suggestions: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Top %d tasks suggested.\n", len(res.Tasks))
		writeWarnings(out, res.Warnings)
		return render.Write(out, res.Tasks, plainOutput)
	},
}

func writeWarnings(w io.Writer, warnings []string) {
	for _, msg := range warnings {
		fmt.Fprintf(w, "warning: %s\n", msg)
	}
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeStrategy, "strategy", "s", "", "Scoring strategy")
	suggestCmd.Flags().StringVarP(&suggestStrategy, "strategy", "s", "", "Scoring strategy")
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(suggestCmd)
}
