package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/prio/internal/core"
)

var loadCmd = &cobra.Command{
	Use:   "load <file|->",
	Short: "Replace the working set with tasks from a JSON array",
	Long: `Load a JSON array of tasks from a file, or from stdin when the argument
is "-". The loaded tasks replace the whole working set.

Tasks without an id get a fresh one. Every attribute in the file is kept,
including ones prio does not know about, so an exported analysis can be
loaded back unchanged.`,
	Example: `  prio load tasks.json
  prio export | prio load -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			data []byte
			err  error
		)
		if args[0] == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("reading tasks: %w", err)
		}

		var n int
		err = updateWorkspace(func(*core.Store) error {
			var err error
			n, err = Session.BulkLoad(string(data))
			if err != nil {
				return fmt.Errorf("loading tasks: %w", err)
			}
			return nil
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d task(s) from JSON.\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
}
