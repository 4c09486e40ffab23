package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/skylab-sim/skymesh/config"
	"github.com/skylab-sim/skymesh/simulation"
	"github.com/skylab-sim/skymesh/topology"
)

// Exit codes, one per failure class, so scripts can tell a bad document
// from a bad topology from an internal wiring defect.
const (
	exitBadDocument = 1
	exitBadTopology = 2
	exitBadBuild    = 3
	exitNodeFaults  = 4
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Boot a network from a topology document and supervise it.",
	Long: `run compiles the topology document into a channel fabric, starts ` +
		`every node in its own goroutine, and keeps the network alive until ` +
		`the process is interrupted.`,
	Run: func(cmd *cobra.Command, _ []string) {
		runNetwork(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("config", "c", "topology.yaml",
		"path of the topology document")
	runCmd.Flags().Bool("monitor", false,
		"serve the web monitor")
	runCmd.Flags().Int("monitor-port", 0,
		"port of the web monitor, random if 0")
	runCmd.Flags().Bool("open-browser", false,
		"open the monitor page in the system browser")
	runCmd.Flags().StringP("output", "o", "",
		"SQLite file to record the event stream into")
}

func runNetwork(cmd *cobra.Command) {
	// A missing .env file is fine; set variables still apply.
	_ = godotenv.Load()

	configPath, _ := cmd.Flags().GetString("config")
	monitorOn, _ := cmd.Flags().GetBool("monitor")
	monitorPort, _ := cmd.Flags().GetInt("monitor-port")
	openBrowser, _ := cmd.Flags().GetBool("open-browser")
	output, _ := cmd.Flags().GetString("output")

	doc, err := config.NewLoader().Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot load %s: %s\n", configPath, err)
		atexit.Exit(exitBadDocument)
	}

	model, err := doc.BuildModel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid topology:\n%s\n", err)
		atexit.Exit(exitBadTopology)
	}

	b := simulation.MakeBuilder().WithTopology(model)
	if monitorOn {
		b = b.WithMonitor()
		if monitorPort != 0 {
			b = b.WithMonitorPort(monitorPort)
		}
	}
	if output != "" {
		b = b.WithOutputFileName(output)
	}

	s, err := b.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot build network: %s\n", err)
		atexit.Exit(buildExitCode(err))
	}

	if openBrowser && s.Monitor() != nil {
		s.Monitor().WithBrowserLaunch()
	}

	if err := s.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Cannot start network: %s\n", err)
		atexit.Exit(exitBadBuild)
	}

	interrupted := make(chan os.Signal, 1)
	signal.Notify(interrupted, os.Interrupt, syscall.SIGTERM)
	<-interrupted

	fmt.Fprintln(os.Stderr, "Shutting down")
	s.Shutdown()

	if faults := s.Faults(); len(faults) > 0 {
		for _, f := range faults {
			fmt.Fprintf(os.Stderr, "Node %s faulted: %s\n", f.Node, f.Reason)
		}
		atexit.Exit(exitNodeFaults)
	}

	atexit.Exit(0)
}

// buildExitCode separates topology-level defects from build-time wiring
// and registry defects.
func buildExitCode(err error) int {
	var topoErr *topology.Error
	if errors.As(err, &topoErr) {
		return exitBadTopology
	}

	return exitBadBuild
}
