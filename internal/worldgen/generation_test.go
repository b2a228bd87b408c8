package worldgen

import (
	"reflect"
	"testing"

	"github.com/talgya/mini-city/internal/city"
)

func TestGenerateDeterministic(t *testing.T) {
	cfg := SmallTestConfig()
	a, wa := Generate(cfg)
	b, wb := Generate(cfg)
	if !reflect.DeepEqual(a, b) || !reflect.DeepEqual(wa, wb) {
		t.Fatalf("same seed produced different worlds")
	}
	if a.Size() != cfg.Size {
		t.Fatalf("size %d", a.Size())
	}
}

func TestGenerateProducesOnlyTerrain(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.Seed = 7
	g, _ := Generate(cfg)
	land := 0
	for _, row := range g.Rows {
		for x := range row {
			tile := &row[x]
			if tile.Kind() != city.KindTerrain {
				t.Fatalf("(%d,%d) is %s", tile.X, tile.Y, tile.Building.Type)
			}
			if tile.Zone != city.ZoneNone || tile.Owner != -1 {
				t.Fatalf("(%d,%d) not fresh terrain: %+v", tile.X, tile.Y, tile)
			}
			if tile.LandValue < 20 || tile.LandValue > 50 {
				t.Fatalf("land value %v out of range", tile.LandValue)
			}
			if !tile.IsWater() {
				land++
			}
		}
	}
	if land == 0 {
		t.Fatalf("generated an all-water map")
	}
}

func TestWaterBodies(t *testing.T) {
	g := city.NewGrid(8)
	set := func(x, y int) { *g.At(x, y) = city.NewTile(x, y, city.TypeWater) }
	// Ocean along the left edge.
	for y := 0; y < 8; y++ {
		set(0, y)
	}
	// 2x2 lake in the middle.
	set(4, 4)
	set(5, 4)
	set(4, 5)
	set(5, 5)

	bodies := WaterBodies(g)
	if len(bodies) != 2 {
		t.Fatalf("found %d bodies", len(bodies))
	}
	ocean, lake := bodies[0], bodies[1]
	if ocean.ID != 1 || ocean.Kind != "ocean" || ocean.Tiles != 8 {
		t.Fatalf("ocean %+v", ocean)
	}
	if lake.ID != 2 || lake.Kind != "lake" || lake.Tiles != 4 || lake.Centroid != (city.Point{X: 4, Y: 4}) {
		t.Fatalf("lake %+v", lake)
	}
}

func TestTerrainCountsSorted(t *testing.T) {
	g := city.NewGrid(4)
	*g.At(0, 0) = city.NewTile(0, 0, city.TypeTree)
	*g.At(1, 0) = city.NewTile(1, 0, city.TypeTree)
	*g.At(2, 0) = city.NewTile(2, 0, city.TypeWater)
	got := TerrainCounts(g)
	want := []TerrainCount{{city.TypeGrass, 13}, {city.TypeTree, 2}, {city.TypeWater, 1}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("TerrainCounts = %+v", got)
	}
}
