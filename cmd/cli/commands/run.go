package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/flowmesh/flowmesh/internal/cli"
	"github.com/flowmesh/flowmesh/internal/models"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var inputFile string

var runCmd = &cobra.Command{
	Use:   "run [workflow-file]",
	Short: "Run a workflow definition",
	Long: `Run a workflow definition against the engine and wait for the
terminal execution record.

Examples:
  flowmesh run workflow.json
  flowmesh run workflow.json --input trigger.json
  flowmesh run workflow.json --json`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		filename := args[0]

		data, err := os.ReadFile(filename)
		if err != nil {
			fmt.Printf("❌ Failed to read workflow file: %v\n", err)
			os.Exit(1)
		}

		var workflow models.Workflow
		if err := json.Unmarshal(data, &workflow); err != nil {
			fmt.Printf("❌ Invalid workflow JSON: %v\n", err)
			os.Exit(1)
		}

		triggerInput := map[string]interface{}{}
		if inputFile != "" {
			inputData, err := os.ReadFile(inputFile)
			if err != nil {
				fmt.Printf("❌ Failed to read input file: %v\n", err)
				os.Exit(1)
			}
			if err := json.Unmarshal(inputData, &triggerInput); err != nil {
				fmt.Printf("❌ Invalid trigger input JSON: %v\n", err)
				os.Exit(1)
			}
		}

		client := cli.NewClient(viper.GetString("api.url"))

		if err := client.HealthCheck(); err != nil {
			fmt.Printf("❌ API health check failed: %v\n", err)
			fmt.Println("💡 Tip: Make sure the engine is running")
			os.Exit(1)
		}

		fmt.Printf("🚀 Running workflow: %s\n", workflow.Name)

		execution, err := client.ExecuteWorkflow(&workflow, triggerInput)
		if err != nil {
			fmt.Printf("❌ Execution failed: %v\n", err)
			os.Exit(1)
		}

		if outputJSON {
			data, _ := json.MarshalIndent(execution, "", "  ")
			fmt.Println(string(data))
			return
		}

		printExecution(execution)

		if execution.Status == models.ExecutionStatusFailed {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&inputFile, "input", "", "JSON file with trigger input")
}

func printExecution(execution *models.Execution) {
	icon := "✅"
	switch execution.Status {
	case models.ExecutionStatusFailed:
		icon = "❌"
	case models.ExecutionStatusCancelled:
		icon = "🚫"
	case models.ExecutionStatusRunning:
		icon = "⏳"
	}

	fmt.Printf("\n%s Execution %s\n", icon, execution.ID)
	fmt.Printf("   Status:   %s\n", execution.Status)
	fmt.Printf("   Workflow: %s\n", execution.WorkflowID)
	fmt.Printf("   Started:  %s\n", execution.StartedAt.Format("2006-01-02 15:04:05"))
	if execution.DurationMs != nil {
		fmt.Printf("   Duration: %dms\n", *execution.DurationMs)
	}
	if execution.ErrorMessage != nil {
		fmt.Printf("   Error:    %s\n", *execution.ErrorMessage)
	}
}
