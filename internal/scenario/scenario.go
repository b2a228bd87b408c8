// Package scenario lays out ready-made cities for benchmarks and demos using
// only the public player tools.
package scenario

import (
	"github.com/talgya/mini-city/internal/balance"
	"github.com/talgya/mini-city/internal/city"
	"github.com/talgya/mini-city/internal/engine"
)

// Block is the spacing between parallel roads.
const Block = 8

// Suburb returns a size×size city on flat grass: a road lattice every Block
// tiles, residential, commercial and industrial bands between the roads,
// and a power plant, water tower, police and fire station in every fourth
// block.
func Suburb(name string, size int, cfg *balance.Config) *engine.State {
	s := engine.NewState(name, city.NewGrid(size), nil, cfg)
	s.Stats.Money = 1 << 30

	for i := 0; i < size; i += Block {
		s = engine.DrawTrack(s, engine.LinePath(0, i, size-1, i), city.TypeRoad, cfg)
		s = engine.DrawTrack(s, engine.LinePath(i, 0, i, size-1), city.TypeRoad, cfg)
	}

	block := 0
	for by := 1; by < size; by += Block {
		for bx := 1; bx < size; bx += Block {
			w, h := min(Block-1, size-bx), min(Block-1, size-by)
			if block%4 == 0 {
				s = engine.PlaceBuilding(s, bx, by, city.TypePowerPlant)
				s = engine.PlaceBuilding(s, bx+3, by, city.TypeWaterTower)
				s = engine.PlaceBuilding(s, bx+4, by, city.TypePoliceStation)
				s = engine.PlaceBuilding(s, bx+5, by, city.TypeFireStation)
			}
			zone := city.Zones[block%3]
			s = engine.ZoneRect(s, city.Rect{X: bx, Y: by, W: w, H: h}, zone)
			block++
		}
	}
	s.Stats.Money = cfg.Budget.StartingMoney
	return s
}
