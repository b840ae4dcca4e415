package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/agentgraph/agentgraph/internal/model"
	"github.com/agentgraph/agentgraph/internal/pathfmt"
	"github.com/spf13/cobra"
)

// ANSI color codes, grounded on cmd/wave/commands/status.go's palette.
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

func statusColor(status model.RunStatus) string {
	switch status {
	case model.RunStatusRunning:
		return colorGreen
	case model.RunStatusPaused:
		return colorYellow
	case model.RunStatusFailed:
		return colorRed
	default:
		return colorGray
	}
}

type runSnapshot struct {
	Run   model.Run              `json:"run"`
	Nodes map[string]*model.Node `json:"nodes"`
}

// NewStatusCmd creates the "status" command: getRun/listRuns (§6).
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [runID]",
		Short: "Show run status, or a single run's node detail",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Root().PersistentFlags().GetString("output")
			client := clientFor(cmd)

			if len(args) == 1 {
				var snap runSnapshot
				if err := client.get(fmt.Sprintf("/runs/%s", args[0]), &snap); err != nil {
					return err
				}
				if output == OutputFormatJSON {
					return printJSON(snap)
				}
				printRunDetail(snap)
				return nil
			}

			var runs []runSnapshot
			if err := client.get("/runs/", &runs); err != nil {
				return err
			}
			if output == OutputFormatJSON {
				return printJSON(runs)
			}
			printRunTable(runs)
			return nil
		},
	}
	return cmd
}

func printRunTable(runs []runSnapshot) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSTATUS\tMODE\tNODES\tCWD")
	for _, snap := range runs {
		c := statusColor(snap.Run.Status)
		fmt.Fprintf(w, "%s\t%s%s%s\t%s\t%d\t%s\n",
			snap.Run.ID, c, snap.Run.Status, colorReset, snap.Run.Mode, len(snap.Nodes), pathfmt.FileURI(snap.Run.Cwd))
	}
	w.Flush()
}

func printRunDetail(snap runSnapshot) {
	c := statusColor(snap.Run.Status)
	fmt.Printf("run %s  %s%s%s  mode=%s  cwd=%s\n", snap.Run.ID, c, snap.Run.Status, colorReset, snap.Run.Mode, pathfmt.FileURI(snap.Run.Cwd))
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NODE\tLABEL\tROLE\tSTATUS\tSUMMARY")
	for _, n := range snap.Nodes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", n.ID, n.Label, n.RoleTemplate, n.Status, n.Summary)
	}
	w.Flush()
}
