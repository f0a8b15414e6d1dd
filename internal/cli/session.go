package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Interactive terminal view for building and ranking tasks",
	Long: `Open an interactive view with a task form, a bulk JSON import area, the
strategy selector and both task lists.

Keys: enter adds the task in the form, tab moves between fields, ctrl+o
switches to bulk import (ctrl+s loads it), ctrl+r analyzes, ctrl+g fetches
suggestions, ctrl+t cycles the strategy, esc quits.

The working set is written back to the workspace file on exit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openWorkspace()
		if err != nil {
			return err
		}
		version := store.Version()

		ctx, cancel := context.WithCancel(commandContext(cmd))
		defer cancel()

		p := tea.NewProgram(newSessionModel(ctx, Session, DefaultStrategy), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("running session: %w", err)
		}

		if store.Version() != version {
			return saveWorkspace(store)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
}
