package commands

import (
	"fmt"

	"github.com/agentgraph/agentgraph/internal/model"
	"github.com/spf13/cobra"
)

// NewMessageCmd creates the "message" command: a thin HTTP client over
// postMessage (§6).
func NewMessageCmd() *cobra.Command {
	var (
		runID     string
		interrupt bool
	)

	cmd := &cobra.Command{
		Use:   "message [nodeID] [content]",
		Short: "Post an operator message into a node's inbox",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if runID == "" {
				return fmt.Errorf("--run is required")
			}
			body := map[string]any{"content": args[1], "interrupt": interrupt}
			var msg model.UserMessage
			if err := clientFor(cmd).post(fmt.Sprintf("/runs/%s/nodes/%s/messages", runID, args[0]), body, &msg); err != nil {
				return err
			}
			return printJSON(msg)
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Run id (required)")
	cmd.Flags().BoolVar(&interrupt, "interrupt", false, "Interrupt the node's current turn instead of waiting for it to finish")
	return cmd
}
