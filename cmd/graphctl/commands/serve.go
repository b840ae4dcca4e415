package commands

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/agentgraph/agentgraph/internal/controlplane"
	"github.com/agentgraph/agentgraph/internal/engine"
	"github.com/agentgraph/agentgraph/internal/manifest"
	"github.com/agentgraph/agentgraph/internal/scheduler"
	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command for the Control Plane's HTTP
// server, grounded on the teacher's cmd/wave/commands/serve.go (same
// listen/serve/graceful-shutdown shape, adapted from a single dashboard
// handler to the Registry+Scheduler+Server trio this engine needs
// running together).
func NewServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the control plane: scheduler loop plus HTTP+SSE API",
		Long: `Start the Control Plane HTTP server (§6) and the Scheduler tick loop
(§4.2) that drives every active run's turns. Other graphctl subcommands
(node, edge, message, approve, status, pause, resume) are thin clients
against this server's API; logs reads a run's event log from disk.`,
		Example: `  graphctl serve
  graphctl serve --port 9090 --bind 0.0.0.0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			manifestPath, _ := cmd.Root().PersistentFlags().GetString("manifest")
			dataDir, _ := cmd.Root().PersistentFlags().GetString("data-dir")

			m, err := manifest.Load(manifestPath)
			if err != nil {
				return fmt.Errorf("load manifest %s: %w", manifestPath, err)
			}

			if err := os.MkdirAll(dataDir, 0o755); err != nil {
				return fmt.Errorf("create data dir %s: %w", dataDir, err)
			}
			reg, err := engine.NewRegistry(dataDir, m)
			if err != nil {
				return fmt.Errorf("open registry: %w", err)
			}

			schedCfg := scheduler.Config{}
			if m.Scheduler.TickMS > 0 {
				schedCfg.Tick = time.Duration(m.Scheduler.TickMS) * time.Millisecond
			}
			if m.Scheduler.StallThreshold > 0 {
				schedCfg.StallThreshold = m.Scheduler.StallThreshold
			}
			sched := scheduler.New(reg, schedCfg)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			go func() {
				if err := sched.Run(ctx); err != nil && err != context.Canceled {
					log.Printf("scheduler stopped: %v", err)
				}
			}()

			srv := controlplane.New(reg)
			addr := fmt.Sprintf("%s:%d", bind, port)
			listener, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", addr, err)
			}

			httpServer := &http.Server{
				Addr:         addr,
				Handler:      srv.Handler(),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 0, // no write deadline, so SSE subscribeEvents streams stay open
				IdleTimeout:  120 * time.Second,
			}

			fmt.Fprintf(os.Stderr, "graphctl control plane running at http://%s\n", addr)

			errCh := make(chan error, 1)
			go func() { errCh <- httpServer.Serve(listener) }()

			select {
			case err := <-errCh:
				if err != nil && err != http.ErrServerClosed {
					return fmt.Errorf("server error: %w", err)
				}
			case <-ctx.Done():
				log.Println("shutting down control plane...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := httpServer.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("server shutdown: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "Port to listen on")
	cmd.Flags().StringVar(&bind, "bind", "127.0.0.1", "Address to bind to")
	return cmd
}
