// Command citysim runs the tile-grid city simulation.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/talgya/mini-city/internal/balance"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	rootCmd := &cobra.Command{
		Use:          "citysim",
		Short:        "Deterministic tile-grid city simulation",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(benchCmd())
	rootCmd.AddCommand(genCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadBalance returns the default balance or the YAML overlay at path.
func loadBalance(path string) (*balance.Config, error) {
	if path == "" {
		return balance.Default(), nil
	}
	cfg, err := balance.Load(path)
	if err != nil {
		return nil, err
	}
	slog.Info("balance loaded", "path", path)
	return cfg, nil
}
