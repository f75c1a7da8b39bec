// Package main is the rtsyn CLI: a thin client over the supervisor
// daemon's control-plane socket, plus the `daemon run` and `run`
// subcommands that actually start the engine (§6 "CLI").
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath     string
	socketOverride string
)

var rootCmd = &cobra.Command{
	Use:   "rtsyn",
	Short: "RTSyn real-time signal-processing host",
	Long: `rtsyn is a real-time signal-processing host: a periodic execution
engine that runs a directed graph of plugins at a fixed frequency and
routes scalar signals between their ports.

Most subcommands are a thin client over the supervisor daemon's
control-plane socket; "daemon run" and the top-level "run" are the only
two that start the engine themselves.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "path to YAML config")
	rootCmd.PersistentFlags().StringVar(&socketOverride, "socket", "", "override the daemon control-plane socket path")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newDaemonCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "[RTSyn][ERROR] %v\n", err)
		os.Exit(1)
	}
}
