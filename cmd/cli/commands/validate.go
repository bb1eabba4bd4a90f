package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/flowmesh/flowmesh/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [workflow-file]",
	Short: "Validate a workflow definition",
	Long: `Validate a workflow definition file to ensure it meets all requirements.

The validator checks:
  - Required fields (id, name)
  - Node kinds and per-kind configuration
  - Connection endpoint consistency

Examples:
  flowmesh validate workflow.json
  flowmesh validate lead-scoring.json --json`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		filename := args[0]

		if _, err := os.Stat(filename); os.IsNotExist(err) {
			fmt.Printf("❌ Error: File '%s' not found\n", filename)
			os.Exit(1)
		}

		result, err := cli.ValidateWorkflowFile(filename)
		if err != nil {
			fmt.Printf("❌ Error validating workflow: %v\n", err)
			os.Exit(1)
		}

		if outputJSON {
			data, _ := json.MarshalIndent(result, "", "  ")
			fmt.Println(string(data))
		} else if result.Valid {
			fmt.Println("✅ Workflow is valid!")
		} else {
			fmt.Printf("❌ Workflow validation failed with %d error(s):\n\n", len(result.Errors))
			for i, e := range result.Errors {
				fmt.Printf("  %d. %s\n", i+1, e)
			}
		}

		if !result.Valid {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
