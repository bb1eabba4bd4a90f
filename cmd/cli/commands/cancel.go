package commands

import (
	"fmt"
	"os"

	"github.com/flowmesh/flowmesh/internal/cli"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel [execution-id]",
	Short: "Cancel a running execution",
	Long: `Request cancellation of a running execution. The engine stops the
execution at the next node boundary; nodes already in flight finish first.

Examples:
  flowmesh cancel 1b4e28ba-2fa1-11d2-883f-0016d3cca427`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := cli.NewClient(viper.GetString("api.url"))

		cancelled, err := client.CancelExecution(args[0])
		if err != nil {
			fmt.Printf("❌ Failed to cancel execution: %v\n", err)
			os.Exit(1)
		}

		if cancelled {
			fmt.Printf("🚫 Cancellation requested for %s\n", args[0])
		} else {
			fmt.Printf("⚠️  Execution %s is not running\n", args[0])
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(cancelCmd)
}
