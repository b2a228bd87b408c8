package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/mini-city/internal/engine"
	"github.com/talgya/mini-city/internal/entropy"
	"github.com/talgya/mini-city/internal/footprint"
	"github.com/talgya/mini-city/internal/scenario"
)

func benchCmd() *cobra.Command {
	var (
		size        int
		ticks       int
		seed        int64
		balancePath string
		noSkip      bool
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run ticks as fast as possible on a synthetic city and report throughput",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadBalance(balancePath)
			if err != nil {
				return err
			}
			cfg.DisableSkip = noSkip

			s := scenario.Suburb("bench", size, cfg)
			rng := entropy.NewSeeded(seed)
			sc := engine.NewScratch(size)

			var total engine.Report
			start := time.Now()
			for i := 0; i < ticks; i++ {
				var rep engine.Report
				s, rep = engine.Step(s, rng, sc, cfg)
				total.Add(rep)
			}
			elapsed := time.Since(start)

			if err := footprint.Verify(s.Grid); err != nil {
				return fmt.Errorf("footprint invariant broken after %d ticks: %w", ticks, err)
			}

			tiles := int64(size*size) * int64(ticks)
			fmt.Printf("grid        %dx%d\n", size, size)
			fmt.Printf("ticks       %s in %s\n", humanize.Comma(int64(ticks)), elapsed.Round(time.Millisecond))
			fmt.Printf("rate        %.1f ticks/sec\n", float64(ticks)/elapsed.Seconds())
			fmt.Printf("skipped     %s of %s tile updates\n", humanize.Comma(int64(total.Skipped)), humanize.Comma(tiles))
			fmt.Printf("rows cloned %s\n", humanize.Comma(int64(total.RowsCloned)))
			fmt.Printf("population  %s   jobs %s\n",
				humanize.Comma(int64(s.Stats.Population)), humanize.Comma(int64(s.Stats.Jobs)))
			fmt.Printf("events      spawned=%d upgraded=%d abandoned=%d fires=%d\n",
				total.Spawned, total.Upgraded, total.Abandoned, total.Ignited)
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&size, "size", 128, "grid edge length")
	f.IntVar(&ticks, "ticks", 1000, "ticks to run")
	f.Int64Var(&seed, "seed", 1, "random seed")
	f.StringVar(&balancePath, "balance", "", "YAML balance overrides")
	f.BoolVar(&noSkip, "no-skip", false, "disable the static-tile shortcut")
	return cmd
}
