package coverage

import (
	"testing"

	"github.com/talgya/mini-city/internal/balance"
	"github.com/talgya/mini-city/internal/city"
)

func gridWith(size int, typ city.BuildingType, x, y, level int) *city.Grid {
	g := city.NewGrid(size)
	t := g.At(x, y)
	t.Building = city.Building{Type: typ, Level: level, ConstructionProgress: 100}
	return g
}

func TestPowerIsBooleanWithinRadius(t *testing.T) {
	cfg := balance.Default()
	g := gridWith(40, city.TypePowerPlant, 5, 5, 1)
	s := Calculate(g, cfg)

	if !s.Powered(5, 5) || !s.Powered(20, 5) {
		t.Fatalf("tiles within range 15 should be powered")
	}
	if s.Powered(21, 5) {
		t.Fatalf("tile 16 away should not be powered")
	}
	if s.Powered(16, 16) { // 11²+11² = 242 > 225
		t.Fatalf("diagonal outside radius powered")
	}
}

func TestServiceCoverageFallsOffAndCaps(t *testing.T) {
	cfg := balance.Default()
	g := gridWith(40, city.TypePoliceStation, 10, 10, 1)
	s := Calculate(g, cfg)

	center := s.Level(city.ServicePolice, 10, 10)
	near := s.Level(city.ServicePolice, 13, 10)
	far := s.Level(city.ServicePolice, 22, 10)
	if center != 100 {
		t.Fatalf("coverage at source: got %v want 100", center)
	}
	if !(near < center && far < near) {
		t.Fatalf("coverage should fall with distance: %v %v %v", center, near, far)
	}
	if got := s.Level(city.ServicePolice, 24, 10); got != 0 {
		t.Fatalf("beyond range 13: got %v want 0", got)
	}

	// Two stations on the same tile sum but stay capped.
	g.At(11, 10).Building = city.Building{Type: city.TypePoliceStation, Level: 1, ConstructionProgress: 100}
	s = Calculate(g, cfg)
	if got := s.Level(city.ServicePolice, 10, 10); got != cfg.Coverage.Cap {
		t.Fatalf("overlapping coverage not capped: %v", got)
	}
}

func TestCoverageMonotonicInLevel(t *testing.T) {
	cfg := balance.Default()
	prev := -1.0
	for level := 1; level <= 5; level++ {
		s := Calculate(gridWith(64, city.TypeHospital, 2, 2, level), cfg)
		got := s.Level(city.ServiceHealth, 2+20, 2)
		if got < prev {
			t.Fatalf("level %d coverage %v below level %d coverage %v", level, got, level-1, prev)
		}
		prev = got
	}
	if r := EffectiveRange(10, 3, cfg); r != 14 {
		t.Fatalf("EffectiveRange(10, 3) = %v want 14", r)
	}
}

func TestIncompleteOrAbandonedSourcesIgnored(t *testing.T) {
	cfg := balance.Default()
	g := gridWith(20, city.TypeWaterTower, 5, 5, 1)
	g.At(5, 5).Building.ConstructionProgress = 50
	if Calculate(g, cfg).Watered(5, 5) {
		t.Fatalf("unfinished water tower supplies water")
	}
	g.At(5, 5).Building.ConstructionProgress = 100
	g.At(5, 5).Building.Abandoned = true
	if Calculate(g, cfg).Watered(5, 5) {
		t.Fatalf("abandoned water tower supplies water")
	}
}
