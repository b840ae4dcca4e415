package commands

import (
	"fmt"

	"github.com/agentgraph/agentgraph/internal/model"
	"github.com/spf13/cobra"
)

// NewApproveCmd creates the "approve" command group: list/allow/deny,
// thin HTTP clients over listApprovals/resolveApproval (§6).
func NewApproveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "approve",
		Aliases: []string{"approvals"},
		Short:   "List and resolve pending tool-call approvals",
	}
	cmd.AddCommand(newApprovalsListCmd())
	cmd.AddCommand(newApprovalResolveCmd("allow", model.ApprovalApproved))
	cmd.AddCommand(newApprovalResolveCmd("deny", model.ApprovalDenied))
	return cmd
}

func newApprovalsListCmd() *cobra.Command {
	var runID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending approvals",
		RunE: func(cmd *cobra.Command, args []string) error {
			if runID == "" {
				return fmt.Errorf("--run is required")
			}
			var approvals []model.Approval
			if err := clientFor(cmd).get(fmt.Sprintf("/runs/%s/approvals", runID), &approvals); err != nil {
				return err
			}
			return printJSON(approvals)
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "Run id (required)")
	return cmd
}

func newApprovalResolveCmd(use string, kind model.ApprovalResolutionKind) *cobra.Command {
	var (
		runID  string
		reason string
	)
	cmd := &cobra.Command{
		Use:   use + " [approvalID]",
		Short: fmt.Sprintf("Resolve an approval as %s", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if runID == "" {
				return fmt.Errorf("--run is required")
			}
			body := map[string]any{"kind": kind}
			if reason != "" {
				body["error"] = reason
			}
			return clientFor(cmd).post(fmt.Sprintf("/runs/%s/approvals/%s/resolve", runID, args[0]), body, nil)
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "Run id (required)")
	cmd.Flags().StringVar(&reason, "reason", "", "Reason recorded alongside a denial")
	return cmd
}
