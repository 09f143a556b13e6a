package main

import (
	"fmt"
	"os"

	"github.com/platinummonkey/nxld/pkg/cli"
)

func main() {
	// Create root command
	rootCmd := cli.NewRootCommand(cli.NewApp())

	// Execute command
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
