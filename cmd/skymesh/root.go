package main

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "skymesh",
	Short: "SkyMesh boots and supervises a simulated drone network.",
	Long: `SkyMesh reads a topology document, compiles it into a graph of ` +
		`communicating node actors, and supervises the running network ` +
		`through a controller and an optional web monitor.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
