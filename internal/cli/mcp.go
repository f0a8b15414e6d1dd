package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	priomcp "github.com/valter-silva-au/prio/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the prio MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the prio MCP server on stdio",
	Long: `Start the prio MCP server on stdio transport.

The server exposes the working set as MCP tools that AI assistants can
call: add_task, load_tasks, list_tasks, analyze_tasks, suggest_tasks,
get_metrics. Changes are written back to the workspace file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := openWorkspace(); err != nil {
			return err
		}

		var workspace priomcp.Workspace
		if Workspace != nil {
			workspace = Workspace
		}
		srv := priomcp.NewServer(Session, MetricsCalc, workspace, DefaultStrategy, appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
