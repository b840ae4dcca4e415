package main

import (
	"fmt"
	"os"

	"github.com/agentgraph/agentgraph/cmd/graphctl/commands"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "graphctl",
	Short: "agentgraph orchestration engine",
	Long: `
  ╦ ╦╔═╗╔═╗╔╗╔╔╦╗╔═╗╦═╗╔═╗╔═╗╔═╗╦ ╦
  ╠═╣║ ╦║╣ ║║║ ║ ║ ╦╠╦╝╠═╣╠═╝╠═╣╠═╣
  ╩ ╩╚═╝╚═╝╝╚╝ ╩ ╚═╝╩╚═╩ ╩╩  ╩ ╩╩ ╩
  Local-first graph orchestration for agentic coding sessions

  graphctl drives a run's node graph through its Control Plane: spawn
  nodes, wire handoff edges, post messages, resolve approvals, and
  watch the run's event stream — either against a running "graphctl
  serve" instance or, for "graphctl run", entirely in-process.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
}

func init() {
	rootCmd.SetVersionTemplate("graphctl version {{.Version}}\n")

	rootCmd.PersistentFlags().StringP("manifest", "m", "graph.yaml", "Path to manifest file")
	rootCmd.PersistentFlags().String("data-dir", ".agentgraph", "Run data directory")
	rootCmd.PersistentFlags().String("server", "http://127.0.0.1:8080", "graphctl serve address, for commands that talk to a running server")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug mode")
	rootCmd.PersistentFlags().StringP("output", "o", "auto", "Output format: auto, json, text, quiet")

	rootCmd.AddCommand(commands.NewInitCmd())
	rootCmd.AddCommand(commands.NewServeCmd())
	rootCmd.AddCommand(commands.NewRunCmd())
	rootCmd.AddCommand(commands.NewNodeCmd())
	rootCmd.AddCommand(commands.NewEdgeCmd())
	rootCmd.AddCommand(commands.NewMessageCmd())
	rootCmd.AddCommand(commands.NewApproveCmd())
	rootCmd.AddCommand(commands.NewPauseCmd())
	rootCmd.AddCommand(commands.NewResumeCmd())
	rootCmd.AddCommand(commands.NewStatusCmd())
	rootCmd.AddCommand(commands.NewLogsCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
