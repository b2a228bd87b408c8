package footprint

import (
	"testing"

	"github.com/talgya/mini-city/internal/city"
)

func zoned(size int, z city.Zone) *city.Grid {
	g := city.NewGrid(size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			g.At(x, y).Zone = z
		}
	}
	return g
}

func TestApplyAndResolve(t *testing.T) {
	g := zoned(10, city.ZoneResidential)
	b := city.NewBuilder(g)
	r := Apply(b, 2, 3, city.TypeMansion, city.ZoneResidential, 3)
	out := b.Grid()

	if r != (city.Rect{X: 2, Y: 3, W: 2, H: 2}) {
		t.Fatalf("rect: got %+v", r)
	}
	origin := out.At(2, 3)
	if origin.Building.Type != city.TypeMansion || origin.Building.ConstructionProgress != 0 {
		t.Fatalf("origin not an unfinished mansion: %+v", origin.Building)
	}
	for _, p := range []city.Point{{X: 3, Y: 3}, {X: 2, Y: 4}, {X: 3, Y: 4}} {
		c := out.At(p.X, p.Y)
		if !c.IsPlaceholder() {
			t.Fatalf("(%d,%d) should be a placeholder", p.X, p.Y)
		}
		ox, oy, ok := FindOrigin(out, p.X, p.Y)
		if !ok || ox != 2 || oy != 3 {
			t.Fatalf("(%d,%d) resolves to (%d,%d) ok=%v", p.X, p.Y, ox, oy, ok)
		}
	}
	if err := Verify(out); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if g.At(3, 4).IsPlaceholder() {
		t.Fatalf("source grid mutated")
	}
}

func TestFindOriginFallsBackWithoutOwner(t *testing.T) {
	g := zoned(10, city.ZoneCommercial)
	b := city.NewBuilder(g)
	Apply(b, 1, 1, city.TypeMall, city.ZoneCommercial, 5)
	b.Mut(3, 3).Owner = -1
	ox, oy, ok := FindOrigin(b, 3, 3)
	if !ok || ox != 1 || oy != 1 {
		t.Fatalf("fallback search: got (%d,%d) ok=%v", ox, oy, ok)
	}
	SweepOrphans(b)
	if b.At(3, 3).Owner != int32(b.Index(1, 1)) {
		t.Fatalf("sweep did not repair stale owner")
	}
}

func TestCanSpawnRejectsPlaceholderAndWrongZone(t *testing.T) {
	g := zoned(10, city.ZoneResidential)
	b := city.NewBuilder(g)
	Apply(b, 4, 4, city.TypeMansion, city.ZoneResidential, 3)

	if CanSpawn(b, 5, 5, 1, 1, city.ZoneResidential) {
		t.Fatalf("placeholder cell accepted for spawning")
	}
	if CanSpawn(b, 0, 0, 1, 1, city.ZoneIndustrial) {
		t.Fatalf("wrong zone accepted")
	}
	if CanSpawn(b, 9, 9, 2, 2, city.ZoneResidential) {
		t.Fatalf("out-of-bounds footprint accepted")
	}
	if !CanSpawn(b, 0, 0, 2, 2, city.ZoneResidential) {
		t.Fatalf("free zoned grass rejected")
	}
}

func TestFindFootprintPrefersRoadFrontage(t *testing.T) {
	g := zoned(10, city.ZoneResidential)
	// Road along row 6 below the candidate area.
	for x := 0; x < 10; x++ {
		g.At(x, 6).Building.Type = city.TypeRoad
		g.At(x, 6).Zone = city.ZoneNone
	}
	self := city.Rect{X: 4, Y: 4, W: 1, H: 1}
	r, ok := FindFootprintIncludingTile(g, 4, 4, 2, 2, city.ZoneResidential, self, false)
	if !ok {
		t.Fatalf("no footprint found")
	}
	if !r.Contains(4, 4) {
		t.Fatalf("footprint %+v does not include the tile", r)
	}
	if r.Y+r.H != 6 {
		t.Fatalf("expected placement touching the road, got %+v", r)
	}
	// Both candidates at Y=4 touch two road cells; scan order picks X=3.
	if r.X != 3 || r.Y != 4 {
		t.Fatalf("tie not broken by scan order: %+v", r)
	}
}

func TestFindFootprintConsolidation(t *testing.T) {
	g := zoned(6, city.ZoneResidential)
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			g.At(x, y).Building = city.Building{Type: city.TypeHouseSmall, Level: 1, ConstructionProgress: 100}
		}
	}
	self := city.Rect{X: 2, Y: 2, W: 1, H: 1}
	if _, ok := FindFootprintIncludingTile(g, 2, 2, 2, 2, city.ZoneResidential, self, false); ok {
		t.Fatalf("footprint found over houses without consolidation")
	}
	if _, ok := FindFootprintIncludingTile(g, 2, 2, 2, 2, city.ZoneResidential, self, true); !ok {
		t.Fatalf("consolidation should allow absorbing small houses")
	}
	g.At(1, 1).Building.OnFire = true
	g.At(3, 1).Building.OnFire = true
	g.At(1, 3).Building.OnFire = true
	g.At(3, 3).Building.OnFire = true
	if _, ok := FindFootprintIncludingTile(g, 2, 2, 2, 2, city.ZoneResidential, self, true); ok {
		t.Fatalf("burning houses must not be consolidated")
	}
}

func TestClearAndSweep(t *testing.T) {
	g := zoned(8, city.ZoneIndustrial)
	b := city.NewBuilder(g)
	Apply(b, 2, 2, city.TypeFactoryLarge, city.ZoneIndustrial, 4)

	Clear(b, 2, 2, true)
	out := b.Grid()
	for y := 2; y < 5; y++ {
		for x := 2; x < 5; x++ {
			c := out.At(x, y)
			if c.Building.Type != city.TypeGrass || c.Zone != city.ZoneIndustrial {
				t.Fatalf("(%d,%d) not reset to zoned grass: %+v", x, y, c)
			}
		}
	}

	// An orphaned placeholder with no origin in range is swept.
	b = city.NewBuilder(out)
	orphan := b.Mut(6, 6)
	orphan.Building = city.Building{Type: city.TypeEmpty}
	orphan.Owner = -1
	if n := SweepOrphans(b); n != 1 {
		t.Fatalf("swept %d cells, want 1", n)
	}
	if err := Verify(b.Grid()); err != nil {
		t.Fatalf("Verify after sweep: %v", err)
	}
}

func TestRoadAdjacency(t *testing.T) {
	g := city.NewGrid(6)
	g.At(1, 0).Building.Type = city.TypeRoad
	g.At(3, 1).Building.Type = city.TypeBridge
	if n := RoadAdjacency(g, city.Rect{X: 1, Y: 1, W: 2, H: 2}); n != 2 {
		t.Fatalf("RoadAdjacency = %d want 2", n)
	}
}
