// Command nexus is the CLI entrypoint wiring together the agent runtime,
// model router, usage tracker, tool registry, and scheduler described by
// this repository's core agent specification: a personal, locally-hosted
// AI assistant runtime, not a multi-channel gateway.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"

	configPath string
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	root := buildRootCmd()
	if err := root.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "nexus",
		Short:        "nexus runs the personal agent core: router, tools, scheduler",
		Version:      fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "nexus.yaml", "path to the YAML config file")

	root.AddCommand(
		buildServeCmd(),
		buildRunCmd(),
		buildJobsCmd(),
	)
	return root
}
