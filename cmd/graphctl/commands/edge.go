package commands

import (
	"fmt"

	"github.com/agentgraph/agentgraph/internal/model"
	"github.com/spf13/cobra"
)

// NewEdgeCmd creates the "edge" command group: add/remove, thin HTTP
// clients over createEdge/deleteEdge (§6).
func NewEdgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edge",
		Short: "Manage a run's routing edges",
	}
	cmd.AddCommand(newEdgeAddCmd())
	cmd.AddCommand(newEdgeRemoveCmd())
	return cmd
}

func newEdgeAddCmd() *cobra.Command {
	var (
		runID         string
		from          string
		to            string
		edgeType      string
		label         string
		bidirectional bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a routing edge between two nodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if runID == "" {
				return fmt.Errorf("--run is required")
			}
			body := map[string]any{
				"fromNodeId":    from,
				"toNodeId":      to,
				"type":          edgeType,
				"label":         label,
				"bidirectional": bidirectional,
			}
			var edge model.Edge
			if err := clientFor(cmd).post(fmt.Sprintf("/runs/%s/edges", runID), body, &edge); err != nil {
				return err
			}
			return printJSON(edge)
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Run id (required)")
	cmd.Flags().StringVar(&from, "from", "", "Source node id (required)")
	cmd.Flags().StringVar(&to, "to", "", "Target node id (required)")
	cmd.Flags().StringVar(&edgeType, "type", string(model.EdgeTypeHandoff), "handoff or report")
	cmd.Flags().StringVar(&label, "label", "", "Optional edge label")
	cmd.Flags().BoolVar(&bidirectional, "bidirectional", false, "Route in both directions")
	return cmd
}

func newEdgeRemoveCmd() *cobra.Command {
	var runID string
	cmd := &cobra.Command{
		Use:   "remove [edgeID]",
		Short: "Delete a routing edge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if runID == "" {
				return fmt.Errorf("--run is required")
			}
			return clientFor(cmd).delete(fmt.Sprintf("/runs/%s/edges/%s", runID, args[0]))
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "Run id (required)")
	return cmd
}
