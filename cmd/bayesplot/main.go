package main

import (
	"fmt"
	"os"

	"github.com/nvandessel/bayesplot/internal/config"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bayesplot",
		Short: "Interactive prior/posterior plots for a Normal mean",
		Long: `bayesplot shows how a Normal prior on an unknown mean is updated by
observations drawn with known variance.

It serves an interactive panel with sliders for the prior mean, prior
standard deviation, likelihood standard deviation and number of
observations, renders the same plot to PNG, SVG, CSV or JSON, and exposes
the update as MCP tools.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.bayesplot/config.yaml)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newServeCmd(),
		newRenderCmd(),
		newMCPServerCmd(),
		newConfigCmd(),
	)

	return rootCmd
}

// loadConfig loads and validates the configuration named by --config.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWithFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
