package commands

import (
	"fmt"

	"github.com/agentgraph/agentgraph/internal/model"
	"github.com/spf13/cobra"
)

// NewPauseCmd creates the "pause" command: updateRun{status:paused}.
func NewPauseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pause [runID]",
		Short: "Pause a run, interrupting every running node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := model.RunStatusPaused
			return clientFor(cmd).patch(fmt.Sprintf("/runs/%s", args[0]), map[string]any{"status": status}, nil)
		},
	}
	return cmd
}

// NewResumeCmd creates the "resume" command: updateRun{status:running},
// which re-enqueues a "Continue." message into every interrupted node.
func NewResumeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resume [runID]",
		Short: "Resume a paused run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := model.RunStatusRunning
			return clientFor(cmd).patch(fmt.Sprintf("/runs/%s", args[0]), map[string]any{"status": status}, nil)
		},
	}
	return cmd
}
