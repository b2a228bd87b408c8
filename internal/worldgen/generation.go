// Package worldgen builds the starting terrain for a new city using layered
// simplex noise: elevation decides water, a second layer places forest, and
// rivers trace steepest descent from the highlands.
package worldgen

import (
	"math"
	"math/rand"
	"sort"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/mini-city/internal/city"
)

// GenConfig holds world generation parameters.
type GenConfig struct {
	Size        int     // Grid edge length in tiles
	Seed        int64   // Noise seed (0 = random)
	SeaLevel    float64 // Elevation threshold for water (0.0-1.0)
	ForestLevel float64 // Forest noise threshold for trees (0.0-1.0)
	Rivers      int     // Maximum number of rivers to trace
	Coastline   bool    // Pull elevation down along one map edge
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Size:        64,
		SeaLevel:    0.28,
		ForestLevel: 0.62,
		Rivers:      2,
		Coastline:   true,
	}
}

// SmallTestConfig returns a tiny map for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Size:        24,
		Seed:        42,
		SeaLevel:    0.30,
		ForestLevel: 0.65,
		Rivers:      1,
	}
}

// Generate creates a grid of grass, trees and water plus metadata for each
// connected body of water.
func Generate(cfg GenConfig) (*city.Grid, []city.WaterBody) {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	elevNoise := opensimplex.NewNormalized(seed)
	forestNoise := opensimplex.NewNormalized(seed + 1)

	g := city.NewGrid(cfg.Size)
	elev := make([]float64, cfg.Size*cfg.Size)

	for y := 0; y < cfg.Size; y++ {
		for x := 0; x < cfg.Size; x++ {
			fx, fy := float64(x), float64(y)
			e := octaveNoise(elevNoise, fx, fy, 4, 0.06, 0.5)

			// Coastal shaping: the western edge slopes into the sea.
			if cfg.Coastline {
				d := fx / float64(cfg.Size)
				if d < 0.2 {
					e *= 0.4 + d*3
				}
			}
			elev[y*cfg.Size+x] = e

			t := g.At(x, y)
			t.LandValue = 20 + clampUnit(e)*30
			switch {
			case e < cfg.SeaLevel:
				t.Building.Type = city.TypeWater
			case octaveNoise(forestNoise, fx, fy, 3, 0.1, 0.5) > cfg.ForestLevel:
				t.Building.Type = city.TypeTree
			}
		}
	}

	placeRivers(g, elev, cfg, seed)
	return g, WaterBodies(g)
}

// placeRivers traces paths from high ground toward water, marking tiles as water.
func placeRivers(g *city.Grid, elev []float64, cfg GenConfig, seed int64) {
	if cfg.Rivers <= 0 {
		return
	}
	rng := rand.New(rand.NewSource(seed + 100))
	size := g.Size()

	var sources []city.Point
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if elev[y*size+x] > 0.65 && !g.At(x, y).IsWater() {
				sources = append(sources, city.Point{X: x, Y: y})
			}
		}
	}

	rng.Shuffle(len(sources), func(i, j int) {
		sources[i], sources[j] = sources[j], sources[i]
	})
	if len(sources) > cfg.Rivers {
		sources = sources[:cfg.Rivers]
	}
	for _, start := range sources {
		traceRiver(g, elev, start)
	}
}

// traceRiver follows the steepest descent from a source tile until reaching
// water or running out of downhill path.
func traceRiver(g *city.Grid, elev []float64, start city.Point) {
	size := g.Size()
	current := start
	visited := make(map[city.Point]bool)

	for step := 0; step < size*2; step++ {
		visited[current] = true
		t := g.At(current.X, current.Y)
		if t.IsWater() {
			break
		}
		t.Building.Type = city.TypeWater

		var best *city.Point
		bestElev := elev[current.Y*size+current.X]
		for _, d := range [4][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}} {
			n := city.Point{X: current.X + d[0], Y: current.Y + d[1]}
			if !g.InBounds(n.X, n.Y) || visited[n] {
				continue
			}
			if e := elev[n.Y*size+n.X]; e < bestElev {
				bestElev = e
				c := n
				best = &c
			}
		}
		if best == nil {
			break // Local minimum; the river pools here.
		}
		current = *best
	}
}

// WaterBodies labels each 4-connected region of water. Regions touching the
// map edge are oceans, the rest lakes. IDs follow scan order of each
// region's first tile.
func WaterBodies(g *city.Grid) []city.WaterBody {
	size := g.Size()
	seen := make([]bool, size*size)
	var bodies []city.WaterBody
	var queue []city.Point

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if seen[y*size+x] || !g.At(x, y).IsWater() {
				continue
			}
			seen[y*size+x] = true
			queue = append(queue[:0], city.Point{X: x, Y: y})
			n, sx, sy, edge := 0, 0, 0, false
			for len(queue) > 0 {
				p := queue[0]
				queue = queue[1:]
				n++
				sx += p.X
				sy += p.Y
				if p.X == 0 || p.Y == 0 || p.X == size-1 || p.Y == size-1 {
					edge = true
				}
				for _, d := range [4][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}} {
					nx, ny := p.X+d[0], p.Y+d[1]
					if !g.InBounds(nx, ny) || seen[ny*size+nx] || !g.At(nx, ny).IsWater() {
						continue
					}
					seen[ny*size+nx] = true
					queue = append(queue, city.Point{X: nx, Y: ny})
				}
			}
			kind := "lake"
			if edge {
				kind = "ocean"
			}
			bodies = append(bodies, city.WaterBody{
				ID:       len(bodies) + 1,
				Kind:     kind,
				Tiles:    n,
				Centroid: city.Point{X: sx / n, Y: sy / n},
			})
		}
	}
	return bodies
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// TerrainCount is one row of a terrain summary.
type TerrainCount struct {
	Type  city.BuildingType
	Count int
}

// TerrainCounts returns the distribution of building types, most common first.
func TerrainCounts(g *city.Grid) []TerrainCount {
	counts := make(map[city.BuildingType]int)
	for _, row := range g.Rows {
		for i := range row {
			counts[row[i].Building.Type]++
		}
	}
	out := make([]TerrainCount, 0, len(counts))
	for t, c := range counts {
		out = append(out, TerrainCount{Type: t, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out
}

func clampUnit(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
