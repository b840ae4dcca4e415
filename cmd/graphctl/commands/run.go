package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/agentgraph/agentgraph/internal/engine"
	"github.com/agentgraph/agentgraph/internal/event"
	"github.com/agentgraph/agentgraph/internal/manifest"
	"github.com/agentgraph/agentgraph/internal/model"
	"github.com/agentgraph/agentgraph/internal/scheduler"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewRunCmd creates the run command: an entirely in-process session
// (registry + scheduler, no HTTP server) that starts one run with a
// single orchestrator node, posts the task as its first message, and
// streams the run's event log to stdout until interrupted. Grounded on
// cmd/wave/commands/run.go's shape (resolve manifest, build the
// execution unit, stream progress, handle ctrl-c), replacing its
// single-pipeline-invocation body with a graph run's continuous
// scheduler loop.
func NewRunCmd() *cobra.Command {
	var (
		provider string
		auto     bool
	)

	cmd := &cobra.Command{
		Use:   "run [task]",
		Short: "Start a run with one orchestrator node, in-process",
		Long: `Create a run, spawn an orchestrator node against provider, post task
as its first message, and drive it with an in-process scheduler until
interrupted (ctrl-c pauses the run and exits).`,
		Example: `  graphctl run "Review the auth module and propose a refactor"
  graphctl run --provider claude --auto "Ship the onboarding redesign"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task := ""
			if len(args) == 1 {
				task = args[0]
			}

			manifestPath, _ := cmd.Root().PersistentFlags().GetString("manifest")
			dataDir, _ := cmd.Root().PersistentFlags().GetString("data-dir")
			output, _ := cmd.Root().PersistentFlags().GetString("output")

			m, err := manifest.Load(manifestPath)
			if err != nil {
				return fmt.Errorf("load manifest %s: %w", manifestPath, err)
			}
			if err := os.MkdirAll(dataDir, 0o755); err != nil {
				return fmt.Errorf("create data dir %s: %w", dataDir, err)
			}

			mode := model.ModeInteractive
			if auto {
				mode = model.ModeAuto
			}

			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("resolve cwd: %w", err)
			}

			reg, err := engine.NewRegistry(dataDir, m)
			if err != nil {
				return fmt.Errorf("open registry: %w", err)
			}
			h, err := reg.CreateRun(engine.CreateRunConfig{Mode: mode, Cwd: cwd})
			if err != nil {
				return fmt.Errorf("create run: %w", err)
			}

			nodeID := "node-" + uuid.NewString()
			status := model.NodeStatusIdle
			connection := model.ConnectionIdle
			label := "orchestrator"
			roleTemplate := "orchestrator"
			nth := model.NativeToolHandlingEngine
			caps := model.Capabilities{
				SpawnNodes:     true,
				WriteCode:      true,
				WriteDocs:      true,
				RunCommands:    true,
				EdgeManagement: model.EdgeManagementAll,
			}
			perms := model.Permissions{PermissionsMode: model.PermissionsSkip}
			patch := event.NodePatch{
				NodeID:             nodeID,
				Label:              &label,
				RoleTemplate:       &roleTemplate,
				Provider:           &provider,
				Status:             &status,
				Connection:         &connection,
				NativeToolHandling: &nth,
				Capabilities:       &caps,
				Permissions:        &perms,
			}
			if err := h.Store.Publish(event.New(h.ID, patch)); err != nil {
				return fmt.Errorf("spawn orchestrator node: %w", err)
			}

			if task != "" {
				h.Store.Runtime(nodeID).EnqueueMessage(model.UserMessage{
					ID:        "msg-" + uuid.NewString(),
					RunID:     h.ID,
					NodeID:    nodeID,
					Role:      "user",
					Content:   task,
					CreatedAt: time.Now(),
				})
			}

			if output != OutputFormatJSON {
				fmt.Fprintf(os.Stderr, "run %s: orchestrator node %s ready (ctrl-c pauses and exits)\n", h.ID, nodeID)
			}
			unsubscribe := h.Store.Subscribe(func(e event.Event) { printEvent(output, e) })
			defer unsubscribe()

			sched := scheduler.New(reg, scheduler.Config{})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			ticker := time.NewTicker(scheduler.DefaultTick)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					pauseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := scheduler.Pause(pauseCtx, h); err != nil {
						return fmt.Errorf("pause on exit: %w", err)
					}
					return nil
				case <-ticker.C:
					sched.Tick(ctx)
				}
			}
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "mock", "Provider name from the manifest for the orchestrator node")
	cmd.Flags().BoolVar(&auto, "auto", false, "Run in AUTO mode (orchestrator self-continues after each turn)")
	return cmd
}

func printEvent(output string, e event.Event) {
	if output == OutputFormatQuiet {
		return
	}
	fmt.Printf("%s  %-24s %s\n", e.Ts.Format(time.RFC3339), e.Type, e.RunID)
}
