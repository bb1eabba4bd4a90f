package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/flowmesh/flowmesh/internal/cli"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	workflowFilter string
	statusFilter   string
	limit          int
)

var logsCmd = &cobra.Command{
	Use:   "logs [execution-id]",
	Short: "View workflow execution records",
	Long: `View execution records. Shows a specific execution or lists recent ones.

Examples:
  flowmesh logs                          # List recent executions
  flowmesh logs abc123                   # Show specific execution
  flowmesh logs --workflow lead-scoring  # Filter by workflow
  flowmesh logs --status failed          # Filter by status
  flowmesh logs --limit 50               # Show last 50 executions`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := cli.NewClient(viper.GetString("api.url"))

		if err := client.HealthCheck(); err != nil {
			fmt.Printf("❌ API health check failed: %v\n", err)
			fmt.Println("💡 Tip: Make sure the engine is running")
			os.Exit(1)
		}

		if len(args) == 1 {
			execution, err := client.GetExecution(args[0])
			if err != nil {
				fmt.Printf("❌ Failed to get execution: %v\n", err)
				os.Exit(1)
			}

			if outputJSON {
				data, _ := json.MarshalIndent(execution, "", "  ")
				fmt.Println(string(data))
				return
			}

			printExecution(execution)
			return
		}

		result, err := client.ListExecutions(workflowFilter, statusFilter, limit)
		if err != nil {
			fmt.Printf("❌ Failed to list executions: %v\n", err)
			os.Exit(1)
		}

		if outputJSON {
			data, _ := json.MarshalIndent(result, "", "  ")
			fmt.Println(string(data))
			return
		}

		if len(result.Executions) == 0 {
			fmt.Println("No executions found")
			return
		}

		fmt.Printf("Showing %d of %d executions:\n\n", len(result.Executions), result.Total)
		for _, e := range result.Executions {
			duration := "-"
			if e.DurationMs != nil {
				duration = fmt.Sprintf("%dms", *e.DurationMs)
			}
			fmt.Printf("  %s  %-10s  %-8s  %s\n",
				e.ID, e.Status, duration, e.WorkflowID)
		}
	},
}

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.Flags().StringVar(&workflowFilter, "workflow", "", "Filter by workflow ID")
	logsCmd.Flags().StringVar(&statusFilter, "status", "", "Filter by status (running, success, failed, cancelled)")
	logsCmd.Flags().IntVar(&limit, "limit", 20, "Number of executions to show")
}
