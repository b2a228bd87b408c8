package engine

import (
	"math"
	"testing"

	"github.com/talgya/mini-city/internal/balance"
	"github.com/talgya/mini-city/internal/city"
	"github.com/talgya/mini-city/internal/entropy"
	"github.com/talgya/mini-city/internal/footprint"
)

func testState(size int) (*State, *balance.Config) {
	cfg := balance.Default()
	s := NewState("test", city.NewGrid(size), nil, cfg)
	s.DisastersEnabled = false
	return s, cfg
}

// place writes a building straight into the grid, bypassing tool rules.
func place(s *State, x, y int, typ city.BuildingType, zone city.Zone, mut func(t *city.Tile)) *State {
	b := city.NewBuilder(s.Grid)
	footprint.Apply(b, x, y, typ, zone, max(1, city.SpecOf(typ).Rank))
	if mut != nil {
		mut(b.Mut(x, y))
	}
	return s.withGrid(b.Grid())
}

func completed(age float64) func(t *city.Tile) {
	return func(t *city.Tile) {
		t.Building.ConstructionProgress = 100
		t.Building.Age = age
	}
}

func withUtilities(s *State) *State {
	s = place(s, 0, 0, city.TypePowerPlant, city.ZoneNone, nil)
	return place(s, 2, 0, city.TypeWaterTower, city.ZoneNone, nil)
}

func TestAbandonmentRate(t *testing.T) {
	s, cfg := testState(8)
	s = withUtilities(s)
	s = place(s, 4, 4, city.TypeHouseSmall, city.ZoneResidential, completed(40))
	s.Stats.Demand.Residential = -100

	rng := entropy.NewSeeded(12345)
	sc := NewScratch(8)
	const trials = 10000
	abandoned := 0
	for i := 0; i < trials; i++ {
		next := SimulateTick(s, rng, sc, cfg)
		if next.Grid.At(4, 4).Building.Abandoned {
			abandoned++
		}
	}
	rate := float64(abandoned) / trials
	if rate < 0.015 || rate > 0.035 {
		t.Fatalf("abandonment rate %.4f outside [0.015, 0.035]", rate)
	}
	if s.Grid.At(4, 4).Building.Abandoned {
		t.Fatalf("input state mutated")
	}
}

func TestAbandonProbabilityComponents(t *testing.T) {
	cfg := balance.Default().Abandonment
	b := &city.Building{Level: 1, Powered: true, Watered: true}
	if p := AbandonProbability(b, -100, cfg); math.Abs(p-0.02) > 1e-12 {
		t.Fatalf("base capped at 0.02, got %v", p)
	}
	b = &city.Building{Level: 5}
	want := 0.02 + 0.01 + 0.003
	if p := AbandonProbability(b, -500, cfg); math.Abs(p-want) > 1e-12 {
		t.Fatalf("full penalties: got %v want %v", p, want)
	}
	if p := RecoveryProbability(5, cfg); p != 0 {
		t.Fatalf("no recovery below threshold, got %v", p)
	}
	if p := RecoveryProbability(1000, cfg); p != 0.12 {
		t.Fatalf("recovery capped at 0.12, got %v", p)
	}
}

func TestRecoveryClearsFootprintToZonedGrass(t *testing.T) {
	s, cfg := testState(8)
	s = place(s, 2, 2, city.TypeMansion, city.ZoneResidential, func(t *city.Tile) {
		t.Building.ConstructionProgress = 100
		t.Building.Abandoned = true
	})
	s.Stats.Demand.Residential = 100

	next := SimulateTick(s, entropy.Constant(0), NewScratch(8), cfg)
	for y := 2; y < 4; y++ {
		for x := 2; x < 4; x++ {
			c := next.Grid.At(x, y)
			if c.Building.Type != city.TypeGrass || c.Zone != city.ZoneResidential {
				t.Fatalf("(%d,%d) not zoned grass after recovery: %+v", x, y, c.Building)
			}
		}
	}
}

func TestEffectiveTaxLag(t *testing.T) {
	s, cfg := testState(4)
	s.TaxRate = 50
	s.EffectiveTaxRate = 9
	next := SimulateTick(s, entropy.NewSeeded(1), NewScratch(4), cfg)
	if got := next.EffectiveTaxRate - 9; math.Abs(got-1.23) > 1e-9 {
		t.Fatalf("effective tax moved %v, want 1.23", got)
	}
	if s.EffectiveTaxRate != 9 {
		t.Fatalf("input mutated")
	}
}

func TestDemandSmoothingAndBounds(t *testing.T) {
	s, cfg := testState(4)
	next := SimulateTick(s, entropy.NewSeeded(1), NewScratch(4), cfg)
	d := next.Stats.Demand
	want := Demand{Residential: 40 * 0.12, Commercial: 25 * 0.12, Industrial: 30 * 0.12}
	if math.Abs(d.Residential-want.Residential) > 1e-9 ||
		math.Abs(d.Commercial-want.Commercial) > 1e-9 ||
		math.Abs(d.Industrial-want.Industrial) > 1e-9 {
		t.Fatalf("smoothed demand: got %+v want %+v", d, want)
	}

	raw := rawDemand(Stats{Population: 1_000_000}, Census{}, 100, cfg.Demand)
	for _, v := range []float64{raw.Residential, raw.Commercial, raw.Industrial} {
		if v < -100 || v > 100 {
			t.Fatalf("raw demand out of bounds: %+v", raw)
		}
	}
	if raw.Residential != -100 {
		t.Fatalf("100%% tax should floor demand, got %v", raw.Residential)
	}

	prev := Demand{Residential: 100}
	got := smoothDemand(prev, Demand{Residential: -100}, cfg.Demand.Smoothing)
	if math.Abs(got.Residential-76) > 1e-9 {
		t.Fatalf("one smoothing step from 100 toward -100: got %v want 76", got.Residential)
	}
}

func TestSmoothingNeverOvershoots(t *testing.T) {
	k := balance.Default().Demand.Smoothing
	rng := entropy.NewSeeded(3)
	for i := 0; i < 1000; i++ {
		prev := Demand{Residential: entropy.Between(rng, -100, 100)}
		raw := Demand{Residential: entropy.Between(rng, -100, 100)}
		got := smoothDemand(prev, raw, k)
		step := math.Abs(got.Residential - prev.Residential)
		if step > k*math.Abs(raw.Residential-prev.Residential)+1e-9 {
			t.Fatalf("prev=%v raw=%v moved %v", prev.Residential, raw.Residential, step)
		}
	}
}

func TestTaxMultiplier(t *testing.T) {
	cfg := balance.Default().Demand
	if m := TaxMultiplier(9, cfg); m != 1 {
		t.Fatalf("neutral tax multiplier %v", m)
	}
	if m := TaxMultiplier(100, cfg); m != 0 {
		t.Fatalf("max tax multiplier %v", m)
	}
	if m := TaxMultiplier(200, cfg); m != 0 {
		t.Fatalf("multiplier must not go negative: %v", m)
	}
}

func TestStarterConstructionWithoutUtilities(t *testing.T) {
	s, cfg := testState(6)
	s = place(s, 3, 3, city.TypeHouseSmall, city.ZoneResidential, nil)
	rng := entropy.Constant(0.5)
	sc := NewScratch(6)

	want := []float64{30, 60, 90, 100, 100}
	for i, w := range want {
		s = SimulateTick(s, rng, sc, cfg)
		b := s.Grid.At(3, 3).Building
		if b.ConstructionProgress != w {
			t.Fatalf("tick %d: progress %v want %v", i+1, b.ConstructionProgress, w)
		}
		if (b.Population > 0) != (w == 100) {
			t.Fatalf("tick %d: population %d at progress %v", i+1, b.Population, w)
		}
	}
}

func TestNonStarterWaitsForUtilities(t *testing.T) {
	s, cfg := testState(12)
	s = place(s, 6, 6, city.TypeMansion, city.ZoneResidential, nil)
	sc := NewScratch(12)
	for i := 0; i < 20; i++ {
		s = SimulateTick(s, entropy.Constant(0.5), sc, cfg)
	}
	if p := s.Grid.At(6, 6).Building.ConstructionProgress; p != 0 {
		t.Fatalf("mansion progressed to %v without power or water", p)
	}

	s = withUtilities(s)
	prev := 0.0
	for i := 0; i < 10; i++ {
		s = SimulateTick(s, entropy.Constant(0.5), sc, cfg)
		p := s.Grid.At(6, 6).Building.ConstructionProgress
		if p < prev {
			t.Fatalf("construction went backwards: %v -> %v", prev, p)
		}
		prev = p
	}
	if prev != 100 {
		t.Fatalf("mansion not finished with utilities, progress %v", prev)
	}
}

func TestUpgradeInPlace(t *testing.T) {
	s, cfg := testState(12)
	s = withUtilities(s)
	s = place(s, 6, 6, city.TypeHouseSmall, city.ZoneResidential, func(t *city.Tile) {
		t.Building.ConstructionProgress = 100
		t.Building.Age = 13
		t.LandValue = 48
	})

	next := SimulateTick(s, entropy.Constant(0), NewScratch(12), cfg)
	b := next.Grid.At(6, 6).Building
	if b.Type != city.TypeHouseMedium || b.Level != 2 {
		t.Fatalf("expected in-place upgrade to house_medium level 2, got %s level %d", b.Type, b.Level)
	}
	if !b.Completed() || b.Population != 14 {
		t.Fatalf("in-place upgrade should stay complete with ladder population: %+v", b)
	}
}

func TestUpgradeClaimsLargerFootprint(t *testing.T) {
	s, cfg := testState(12)
	s = withUtilities(s)
	s = ZoneRect(s, city.Rect{X: 5, Y: 5, W: 3, H: 3}, city.ZoneResidential)
	s = place(s, 6, 6, city.TypeHouseSmall, city.ZoneResidential, func(t *city.Tile) {
		t.Building.ConstructionProgress = 100
		t.Building.Age = 100
		t.LandValue = 100
	})
	s.Stats.Demand.Residential = 80

	next := SimulateTick(s, entropy.Constant(0), NewScratch(12), cfg)
	if err := footprint.Verify(next.Grid); err != nil {
		t.Fatalf("footprint invariant: %v", err)
	}
	ox, oy, ok := footprint.FindOrigin(next.Grid, 6, 6)
	if !ok {
		t.Fatalf("(6,6) does not resolve to a building")
	}
	b := next.Grid.At(ox, oy).Building
	if b.Type != city.TypeApartmentHigh || b.Level != 5 {
		t.Fatalf("expected apartment_high level 5, got %s level %d", b.Type, b.Level)
	}
	if b.ConstructionProgress != 0 || b.Age < 100 {
		t.Fatalf("new footprint should restart construction and keep age: %+v", b)
	}
}

func TestFireBurnsDownWholeFootprint(t *testing.T) {
	s, cfg := testState(8)
	s.DisastersEnabled = true
	s = place(s, 2, 2, city.TypeMansion, city.ZoneResidential, func(t *city.Tile) {
		t.Building.ConstructionProgress = 100
		t.Building.OnFire = true
		t.Building.FireProgress = 99.5
	})

	next := SimulateTick(s, entropy.Constant(0.99), NewScratch(8), cfg)
	for y := 2; y < 4; y++ {
		for x := 2; x < 4; x++ {
			c := next.Grid.At(x, y)
			if c.Building.Type != city.TypeGrass || c.Zone != city.ZoneNone {
				t.Fatalf("(%d,%d) should be unzoned grass after burning down: %+v", x, y, c)
			}
		}
	}
}

func TestFireSpreadsAndRespectsToggle(t *testing.T) {
	s, cfg := testState(8)
	s.DisastersEnabled = true
	s = place(s, 2, 2, city.TypeHouseSmall, city.ZoneResidential, func(t *city.Tile) {
		t.Building.ConstructionProgress = 100
		t.Building.OnFire = true
	})
	s = place(s, 3, 2, city.TypeHouseSmall, city.ZoneResidential, completed(1))

	// 0.004 misses spontaneous ignition but is under the 0.005 spread chance.
	next := SimulateTick(s, entropy.Constant(0.004), NewScratch(8), cfg)
	if !next.Grid.At(3, 2).Building.OnFire {
		t.Fatalf("fire did not spread to the neighbour")
	}

	s.DisastersEnabled = false
	next = SimulateTick(s, entropy.Constant(0.004), NewScratch(8), cfg)
	if next.Grid.At(3, 2).Building.OnFire {
		t.Fatalf("fire spread with disasters disabled")
	}
	if next.Grid.At(2, 2).Building.FireProgress != 0 {
		t.Fatalf("fire advanced with disasters disabled")
	}
}

func TestMonthlySettlement(t *testing.T) {
	s, cfg := testState(8)
	s = withUtilities(s)
	s.Calendar = Calendar{Tick: 28, Day: 30, Month: 1, Year: 1}
	start := s.Stats.Money

	next := SimulateTick(s, entropy.NewSeeded(1), NewScratch(8), cfg)
	if next.Stats.Money != start {
		t.Fatalf("money changed mid-month: %d -> %d", start, next.Stats.Money)
	}
	next = SimulateTick(next, entropy.NewSeeded(1), NewScratch(8), cfg)
	if next.Calendar.Month != 2 || next.Calendar.Day != 1 {
		t.Fatalf("calendar did not roll the month: %+v", next.Calendar)
	}
	wantCost := cfg.Budget.PowerUpkeep + cfg.Budget.WaterUpkeep
	if next.Stats.Expenses != wantCost {
		t.Fatalf("expenses %d want %d", next.Stats.Expenses, wantCost)
	}
	if next.Stats.Money != start+next.Stats.Income-wantCost {
		t.Fatalf("money after settlement %d, want %d", next.Stats.Money, start+next.Stats.Income-wantCost)
	}
}

func TestRecomputeBudgetFunding(t *testing.T) {
	cfg := balance.Default()
	b := DefaultBudget()
	b.Police.Funding = 50
	b = RecomputeBudget(b, Census{PoliceStations: 2, Roads: 10}, cfg)
	if b.Police.Cost != cfg.Budget.PoliceUpkeep {
		t.Fatalf("half-funded police cost %d, want %d", b.Police.Cost, cfg.Budget.PoliceUpkeep)
	}
	if b.Transportation.Cost != 10*cfg.Budget.RoadUpkeep {
		t.Fatalf("road cost %d", b.Transportation.Cost)
	}
	if b.Total() != b.Police.Cost+b.Transportation.Cost {
		t.Fatalf("total %d", b.Total())
	}
}

func TestCalendar(t *testing.T) {
	cfg := balance.Default().Calendar
	c := NewCalendar()
	var days, months int
	for i := 0; i < 30*30*12; i++ {
		var d, m bool
		c, d, m = c.Advance(cfg)
		if d {
			days++
		}
		if m {
			months++
		}
	}
	if days != 360 || months != 12 {
		t.Fatalf("days=%d months=%d", days, months)
	}
	if c.Year != 2 || c.Month != 1 || c.Day != 1 || c.Tick != 0 {
		t.Fatalf("after one year: %+v", c)
	}

	c = NewCalendar()
	for i := 0; i < 225; i++ {
		c, _, _ = c.Advance(cfg)
	}
	if c.Hour != 12 {
		t.Fatalf("visual hour after half a visual day: %v", c.Hour)
	}
}

func TestDensityTarget(t *testing.T) {
	cfg := balance.Default().Growth
	if got := DensityTarget(0, 0, 0, 0, cfg); got != 1 {
		t.Fatalf("floor is level 1, got %d", got)
	}
	if got := DensityTarget(100, 100, 600, 100, cfg); got != 5 {
		t.Fatalf("ceiling is level 5, got %d", got)
	}
	// 48/24 + 28/28 = 3
	if got := DensityTarget(48, 28, 0, 30, cfg); got != 3 {
		t.Fatalf("DensityTarget = %d want 3", got)
	}
	p, allow := ConsolidationChance(100, cfg)
	if allow != true || math.Abs(p-(0.08+0.25+0.05)) > 1e-12 {
		t.Fatalf("ConsolidationChance(100) = %v, %v", p, allow)
	}
	if p, allow := ConsolidationChance(0, cfg); p != 0.08 || allow {
		t.Fatalf("ConsolidationChance(0) = %v, %v", p, allow)
	}
}

func TestOccupancyScalesAboveRank(t *testing.T) {
	cfg := balance.Default().Growth
	pop, _ := Occupancy(city.TypeHouseMedium, 2, cfg)
	if pop != 14 {
		t.Fatalf("rank-level population %d", pop)
	}
	pop, _ = Occupancy(city.TypeHouseMedium, 4, cfg)
	if pop != 21 {
		t.Fatalf("two levels above rank: %d want 21", pop)
	}
	_, jobs := Occupancy(city.TypeShopSmall, 1, cfg)
	if jobs != 6 {
		t.Fatalf("shop jobs %d", jobs)
	}
}
