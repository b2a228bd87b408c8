package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/mini-city/internal/api"
	"github.com/talgya/mini-city/internal/engine"
	"github.com/talgya/mini-city/internal/entropy"
	"github.com/talgya/mini-city/internal/persistence"
	"github.com/talgya/mini-city/internal/worldgen"
)

type runOptions struct {
	name        string
	size        int
	seed        int64
	dbPath      string
	port        int
	balancePath string
	speed       float64
	keep        int
}

func runCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a city in real time with the HTTP API and stream",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCity(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.name, "name", "New City", "city name for a freshly generated map")
	f.IntVar(&opts.size, "size", 64, "grid edge length for a freshly generated map")
	f.Int64Var(&opts.seed, "seed", 0, "world seed (0 = random)")
	f.StringVar(&opts.dbPath, "db", "data/citysim.db", "SQLite database path")
	f.IntVarP(&opts.port, "port", "p", 8080, "HTTP API port")
	f.StringVar(&opts.balancePath, "balance", "", "YAML balance overrides")
	f.Float64Var(&opts.speed, "speed", 1, "initial speed multiplier (0 = paused)")
	f.IntVar(&opts.keep, "keep", 24, "snapshots retained per city")
	return cmd
}

func runCity(ctx context.Context, opts runOptions) error {
	cfg, err := loadBalance(opts.balancePath)
	if err != nil {
		return err
	}

	db, err := persistence.Open(opts.dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	slog.Info("database opened", "path", opts.dbPath)

	state, err := db.LoadLatest("")
	switch {
	case errors.Is(err, persistence.ErrNoSnapshot):
		slog.Info("no saved city found, generating new map...")
		seed := opts.seed
		if seed == 0 {
			seed = entropy.CryptoSeed()
		}
		gen := worldgen.DefaultGenConfig()
		gen.Size = opts.size
		gen.Seed = seed
		grid, water := worldgen.Generate(gen)
		for _, tc := range worldgen.TerrainCounts(grid) {
			slog.Info("terrain", "type", tc.Type, "count", tc.Count)
		}
		state = engine.NewState(opts.name, grid, water, cfg)
		state.Seed = seed
		if err := db.SaveCity(state); err != nil {
			return err
		}
		if err := db.SaveSnapshot(state); err != nil {
			return fmt.Errorf("initial save: %w", err)
		}
	case err != nil:
		return fmt.Errorf("load city: %w", err)
	default:
		slog.Info("city restored",
			"city", state.Name,
			"date", state.Calendar.String(),
			"population", humanize.Comma(int64(state.Stats.Population)),
		)
	}

	rng := entropy.NewSeeded(state.Seed + int64(state.Calendar.TotalTicks))
	eng := engine.NewEngine(state, cfg, rng)
	eng.SetSpeed(opts.speed)

	adminKey := os.Getenv("CITYSIM_ADMIN_KEY")
	if adminKey == "" {
		slog.Warn("CITYSIM_ADMIN_KEY not set, admin POST endpoints will be disabled")
	}
	srv := api.NewServer(eng, db, opts.port, adminKey)

	eng.OnTick = func(s *engine.State, r engine.Report) {
		srv.Hub.Publish(s, &r)
	}
	eng.OnDay = func(s *engine.State, _ engine.Report) {
		if err := db.SaveStats(s); err != nil {
			slog.Error("stats save failed", "error", err)
		}
	}
	eng.OnMonth = func(s *engine.State) {
		if err := db.SaveSnapshot(s); err != nil {
			slog.Error("monthly save failed", "error", err)
			return
		}
		if n, err := db.PruneSnapshots(s.ID, opts.keep); err != nil {
			slog.Error("prune failed", "error", err)
		} else if n > 0 {
			slog.Info("old snapshots pruned", "count", n)
		}
	}

	srv.Start()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("city ready",
		"city", state.Name, "id", state.ID, "size", state.GridSize, "seed", state.Seed, "stream_seed", rng.Seed())
	eng.Run(ctx)

	slog.Info("final save...")
	if err := db.SaveSnapshot(eng.State()); err != nil {
		return fmt.Errorf("final save: %w", err)
	}
	slog.Info("shutdown complete")
	return nil
}
