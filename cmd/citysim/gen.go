package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/talgya/mini-city/internal/city"
	"github.com/talgya/mini-city/internal/worldgen"
)

func genCmd() *cobra.Command {
	var (
		size int
		seed int64
		show bool
	)

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a starting map and print its terrain summary",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg := worldgen.DefaultGenConfig()
			cfg.Size = size
			cfg.Seed = seed
			grid, water := worldgen.Generate(cfg)

			for _, tc := range worldgen.TerrainCounts(grid) {
				fmt.Printf("%-8s %6d\n", tc.Type, tc.Count)
			}
			for _, wb := range water {
				fmt.Printf("water body %d: %s, %d tiles around (%d,%d)\n",
					wb.ID, wb.Kind, wb.Tiles, wb.Centroid.X, wb.Centroid.Y)
			}
			if show {
				fmt.Print(render(grid))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&size, "size", 64, "grid edge length")
	f.Int64Var(&seed, "seed", 1, "world seed")
	f.BoolVar(&show, "show", false, "print an ASCII map")
	return cmd
}

func render(g *city.Grid) string {
	var b strings.Builder
	for y := 0; y < g.Size(); y++ {
		for x := 0; x < g.Size(); x++ {
			switch g.At(x, y).Building.Type {
			case city.TypeWater:
				b.WriteByte('~')
			case city.TypeTree:
				b.WriteByte('^')
			default:
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
