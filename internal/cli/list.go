package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/prio/internal/core"
	"github.com/valter-silva-au/prio/internal/render"
)

var exportOut string

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Show the working set as task cards",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openWorkspace()
		if err != nil {
			return err
		}
		return render.Write(cmd.OutOrStdout(), store.Tasks(), plainOutput)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the working set as a JSON array",
	Long: `Write the working set as a JSON array in the same format "prio load"
accepts. Analyzed tasks keep their score, priority label and explanation.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openWorkspace()
		if err != nil {
			return err
		}

		data, err := json.MarshalIndent(store.Tasks(), "", "  ")
		if err != nil {
			return fmt.Errorf("encoding tasks: %w", err)
		}
		data = append(data, '\n')

		if exportOut == "" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(exportOut, data, 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", exportOut, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d task(s) to %s\n", store.Len(), exportOut)
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every task from the working set",
	Long: `Remove every task from the working set. Identities already handed out
are not reused.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var n int
		err := updateWorkspace(func(store *core.Store) error {
			n = store.Len()
			store.Clear()
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d task(s).\n", n)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Write to a file instead of stdout")
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(clearCmd)
}
