package main

import (
	"os"

	"github.com/flowmesh/flowmesh/cmd/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
