package main

import (
	"context"
	"fmt"
	"os/signal"
	"time"

	"github.com/nvandessel/bayesplot/internal/logging"
	"github.com/nvandessel/bayesplot/internal/ratelimit"
	"github.com/nvandessel/bayesplot/internal/session"
	"github.com/nvandessel/bayesplot/internal/widget"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the interactive prior/posterior panel",
		Long: `Start a local HTTP server with the interactive panel.

Each browser tab gets its own session holding the slider values and the
ten observation seeds. Moving a slider recomputes the plot from the held
seeds; "Regenerate observations" draws new ones.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			noOpen, _ := cmd.Flags().GetBool("no-open")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			logger := logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
			trace := logging.NewTraceLogger(cfg.Logging.TraceDir, cfg.Logging.Level)
			defer trace.Close()

			srv := widget.NewServer(widget.Options{
				Addr:            cfg.Server.Addr,
				Sessions:        session.NewStore(cfg.Server.SessionTTL, cfg.Defaults),
				Regenerate:      ratelimit.NewLimiter(cfg.Limits.RegenerateRate, cfg.Limits.RegenerateBurst),
				SessionTTL:      cfg.Server.SessionTTL,
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
				Logger:          logger,
				Trace:           trace,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), shutdownSignals...)
			defer stop()

			return runServer(cmd, ctx, srv, cfg.Server.OpenBrowser && !noOpen)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
	cmd.Flags().Bool("no-open", false, "Don't open the panel in a browser")

	return cmd
}

// runServer starts srv and blocks until ctx is cancelled or the server fails.
func runServer(cmd *cobra.Command, ctx context.Context, srv *widget.Server, open bool) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx) }()

	// Wait for server to start
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) && srv.Addr() == "" {
		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		case <-time.After(10 * time.Millisecond):
		}
	}

	addr := srv.Addr()
	if addr == "" {
		return fmt.Errorf("server failed to start")
	}

	url := "http://" + addr
	fmt.Fprintf(cmd.OutOrStdout(), "Panel running at %s\n", url)
	fmt.Fprintf(cmd.OutOrStdout(), "Press Ctrl-C to stop.\n")

	if open {
		if err := widget.OpenBrowser(url); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Could not open browser: %v\nOpen %s manually.\n", err, url)
		}
	}

	if err := <-errCh; err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
