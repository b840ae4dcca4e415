package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/agentgraph/agentgraph/internal/event"
	"github.com/spf13/cobra"
)

// NewLogsCmd creates the "logs" command: reads a run's events.jsonl
// directly off disk (§6 "Persisted state layout": runs/<runId>/
// events.jsonl) rather than through the Control Plane, since the event
// log is this engine's durable local-first ground truth and is
// readable whether or not "graphctl serve" is currently running.
// Grounded on cmd/wave/commands/logs.go's tail/--follow shape.
func NewLogsCmd() *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs [runID]",
		Short: "Show a run's event log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Root().PersistentFlags().GetString("data-dir")
			output, _ := cmd.Root().PersistentFlags().GetString("output")
			path := filepath.Join(dataDir, "runs", args[0], "events.jsonl")

			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			defer f.Close()

			reader := bufio.NewReader(f)
			printFrom := func() error {
				for {
					line, err := reader.ReadString('\n')
					if len(line) > 0 {
						if perr := printLogLine(output, line); perr != nil {
							return perr
						}
					}
					if err != nil {
						return nil
					}
				}
			}
			if err := printFrom(); err != nil {
				return err
			}
			if !follow {
				return nil
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			ticker := time.NewTicker(300 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					if err := printFrom(); err != nil {
						return err
					}
				}
			}
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Stream new events as they are appended")
	return cmd
}

func printLogLine(output, line string) error {
	if output == OutputFormatJSON {
		fmt.Print(line)
		return nil
	}
	var e event.Event
	if err := json.Unmarshal([]byte(line), &e); err != nil {
		return fmt.Errorf("corrupt log line: %w", err)
	}
	fmt.Printf("%s  %-24s %s\n", e.Ts.Format(time.RFC3339), e.Type, e.ID)
	return nil
}
