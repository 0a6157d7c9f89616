package main

import (
	"os/signal"

	"github.com/nvandessel/bayesplot/internal/logging"
	"github.com/nvandessel/bayesplot/internal/mcp"
	"github.com/spf13/cobra"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Run as MCP server over stdio",
		Long: `Serve the posterior_update and posterior_regenerate tools over the
Model Context Protocol on stdin/stdout. Logs go to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			// stdout carries the protocol.
			logger := logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
			trace := logging.NewTraceLogger(cfg.Logging.TraceDir, cfg.Logging.Level)
			defer trace.Close()

			server, err := mcp.NewServer(&mcp.Config{
				Name:     "bayesplot",
				Version:  version,
				Defaults: cfg.Defaults,
				Logger:   logger,
				Trace:    trace,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), shutdownSignals...)
			defer stop()

			return server.Run(ctx)
		},
	}
}
