package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/prio/internal/core"
	"github.com/valter-silva-au/prio/internal/render"
	"github.com/valter-silva-au/prio/pkg/models"
)

var (
	addTitle      string
	addDue        string
	addHours      string
	addImportance string
	addDeps       string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a task to the working set",
	Long: `Add one task to the working set. The task gets the next free numeric id.

Importance must be a whole number between 1 and 10. Estimated hours, when
given, must be a non-negative number. Dependencies are a comma-separated
list of task ids.`,
	Example: `  prio add --title "Fix login bug" --importance 8 --hours 2.5 --due 2025-12-01
  prio add --title "Write release notes" --importance 4 --deps "1,3"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var task models.Task
		err := updateWorkspace(func(*core.Store) error {
			var err error
			task, err = Session.Add(core.TaskInput{
				Title:          addTitle,
				DueDate:        addDue,
				EstimatedHours: addHours,
				Importance:     addImportance,
				Dependencies:   addDeps,
			})
			if err != nil {
				return fmt.Errorf("adding task: %w", err)
			}
			return nil
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Task added.")
		return render.Write(out, []models.Task{task}, plainOutput)
	},
}

func init() {
	addCmd.Flags().StringVarP(&addTitle, "title", "t", "", "Task title (required)")
	addCmd.Flags().StringVar(&addDue, "due", "", "Due date, e.g. 2025-12-01")
	addCmd.Flags().StringVar(&addHours, "hours", "", "Estimated hours")
	addCmd.Flags().StringVarP(&addImportance, "importance", "i", "", "Importance from 1 to 10 (required)")
	addCmd.Flags().StringVar(&addDeps, "deps", "", "Comma-separated ids this task depends on")
	rootCmd.AddCommand(addCmd)
}
