package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile    string
	apiURL     string
	outputJSON bool
)

var rootCmd = &cobra.Command{
	Use:   "flowmesh",
	Short: "FlowMesh CLI - Run and inspect workflow executions",
	Long: `The FlowMesh CLI validates workflow definitions and runs them against
a FlowMesh engine instance.

Examples:
  flowmesh validate workflow.json
  flowmesh run workflow.json --input trigger.json
  flowmesh logs
  flowmesh logs <execution-id>
  flowmesh cancel <execution-id>`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.flowmesh.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "FlowMesh API URL")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output results in JSON format")

	viper.BindPFlag("api.url", rootCmd.PersistentFlags().Lookup("api-url"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".flowmesh")
	}

	viper.SetEnvPrefix("FLOWMESH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if !outputJSON {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}
