package commands

import (
	"fmt"
	"os"

	"github.com/agentgraph/agentgraph/internal/manifest"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewInitCmd creates the init command, grounded on the teacher's
// cmd/wave/commands/init.go (merge-free here since a graph.yaml
// has no persona/pipeline asset bundle to unpack — it is one small
// document).
func NewInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter graph.yaml manifest",
		Long: `Write a graph.yaml with a mock provider and an "orchestrator" role
template, enough to run "graphctl run" against without any external
adapter binaries installed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Root().PersistentFlags().GetString("manifest")
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			m := manifest.Manifest{
				APIVersion: "agentgraph/v1",
				Kind:       "Graph",
				Metadata:   manifest.Metadata{Name: "my-graph"},
				Providers: map[string]manifest.ProviderConfig{
					"mock": {Transport: "mock"},
					"claude": {
						Binary:          "claude",
						Transport:       "cli",
						Protocol:        "stream-json",
						ResumeSupported: true,
					},
				},
				RoleTemplates: map[string]string{
					"orchestrator": "You are the orchestrator. Break the task down, spawn nodes for distinct workstreams, and review their handoffs.",
				},
				Scheduler: manifest.SchedulerConfig{
					TickMS:         250,
					StallThreshold: 3,
				},
			}

			data, err := yaml.Marshal(m)
			if err != nil {
				return fmt.Errorf("marshal manifest: %w", err)
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing manifest")
	return cmd
}
