package commands

import (
	"fmt"

	"github.com/agentgraph/agentgraph/internal/model"
	"github.com/spf13/cobra"
)

// NewNodeCmd creates the "node" command group: add/list/remove/reset,
// thin HTTP clients over the Control Plane's createNode/getRun/
// deleteNode/resetNode operations (§6).
func NewNodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Manage a run's nodes",
	}
	cmd.AddCommand(newNodeAddCmd())
	cmd.AddCommand(newNodeListCmd())
	cmd.AddCommand(newNodeRemoveCmd())
	cmd.AddCommand(newNodeResetCmd())
	return cmd
}

func newNodeAddCmd() *cobra.Command {
	var (
		runID          string
		label          string
		roleTemplate   string
		provider       string
		spawnNodes     bool
		writeCode      bool
		writeDocs      bool
		runCommands    bool
		delegateOnly   bool
		edgeManagement string
		gated          bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Spawn a new node on a run",
		RunE: func(cmd *cobra.Command, args []string) error {
			if runID == "" {
				return fmt.Errorf("--run is required")
			}
			perm := model.PermissionsSkip
			if gated {
				perm = model.PermissionsGated
			}
			body := map[string]any{
				"label":        label,
				"roleTemplate": roleTemplate,
				"provider":     provider,
				"capabilities": map[string]any{
					"spawnNodes":     spawnNodes,
					"writeCode":      writeCode,
					"writeDocs":      writeDocs,
					"runCommands":    runCommands,
					"delegateOnly":   delegateOnly,
					"edgeManagement": edgeManagement,
				},
				"permissions": map[string]any{"permissionsMode": perm},
			}
			var node model.Node
			if err := clientFor(cmd).post(fmt.Sprintf("/runs/%s/nodes", runID), body, &node); err != nil {
				return err
			}
			return printJSON(node)
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Run id (required)")
	cmd.Flags().StringVar(&label, "label", "", "Node label")
	cmd.Flags().StringVar(&roleTemplate, "role", "", "Role template name")
	cmd.Flags().StringVar(&provider, "provider", "mock", "Provider name from the manifest")
	cmd.Flags().BoolVar(&spawnNodes, "can-spawn", false, "Allow this node to spawn other nodes")
	cmd.Flags().BoolVar(&writeCode, "can-write-code", true, "Allow this node to write code")
	cmd.Flags().BoolVar(&writeDocs, "can-write-docs", true, "Allow this node to write docs")
	cmd.Flags().BoolVar(&runCommands, "can-run-commands", true, "Allow this node to run shell commands")
	cmd.Flags().BoolVar(&delegateOnly, "delegate-only", false, "Node only delegates, never edits directly")
	cmd.Flags().StringVar(&edgeManagement, "edge-management", string(model.EdgeManagementSelf), "none, self, or all")
	cmd.Flags().BoolVar(&gated, "gated", false, "Require operator approval on every tool call")
	return cmd
}

func newNodeListCmd() *cobra.Command {
	var runID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a run's nodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if runID == "" {
				return fmt.Errorf("--run is required")
			}
			var snap struct {
				Nodes map[string]*model.Node `json:"nodes"`
			}
			if err := clientFor(cmd).get(fmt.Sprintf("/runs/%s", runID), &snap); err != nil {
				return err
			}
			return printJSON(snap.Nodes)
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "Run id (required)")
	return cmd
}

func newNodeRemoveCmd() *cobra.Command {
	var runID string
	cmd := &cobra.Command{
		Use:   "remove [nodeID]",
		Short: "Delete a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if runID == "" {
				return fmt.Errorf("--run is required")
			}
			return clientFor(cmd).delete(fmt.Sprintf("/runs/%s/nodes/%s", runID, args[0]))
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "Run id (required)")
	return cmd
}

func newNodeResetCmd() *cobra.Command {
	var runID string
	cmd := &cobra.Command{
		Use:   "reset [nodeID]",
		Short: "Reset a node's session, inbox, and stall state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if runID == "" {
				return fmt.Errorf("--run is required")
			}
			var node model.Node
			if err := clientFor(cmd).post(fmt.Sprintf("/runs/%s/nodes/%s/reset", runID, args[0]), nil, &node); err != nil {
				return err
			}
			return printJSON(node)
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "Run id (required)")
	return cmd
}
