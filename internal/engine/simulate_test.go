package engine_test

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/talgya/mini-city/internal/balance"
	"github.com/talgya/mini-city/internal/city"
	"github.com/talgya/mini-city/internal/engine"
	"github.com/talgya/mini-city/internal/entropy"
	"github.com/talgya/mini-city/internal/footprint"
	"github.com/talgya/mini-city/internal/scenario"
)

func run(s *engine.State, seed int64, ticks int, cfg *balance.Config) *engine.State {
	rng := entropy.NewSeeded(seed)
	sc := engine.NewScratch(s.GridSize)
	for i := 0; i < ticks; i++ {
		s = engine.SimulateTick(s, rng, sc, cfg)
	}
	return s
}

func TestSkipShortcutIsInvisible(t *testing.T) {
	cfg := balance.Default()
	full := balance.Default()
	full.DisableSkip = true

	start := scenario.Suburb("skip", 32, cfg)
	start.DisastersEnabled = true

	fast := run(start, 99, 150, cfg)
	slow := run(start, 99, 150, full)
	if !reflect.DeepEqual(fast, slow) {
		t.Fatalf("skipping static tiles changed the outcome: pop %d vs %d, money %d vs %d",
			fast.Stats.Population, slow.Stats.Population, fast.Stats.Money, slow.Stats.Money)
	}
	if fast.Stats.Population == 0 {
		t.Fatalf("city never grew, the comparison proves nothing")
	}
}

func TestDeterministicForSeed(t *testing.T) {
	cfg := balance.Default()
	start := scenario.Suburb("det", 24, cfg)
	a := run(start, 7, 120, cfg)
	b := run(start, 7, 120, cfg)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different cities")
	}
}

func TestTickLeavesInputUntouched(t *testing.T) {
	cfg := balance.Default()
	s := run(scenario.Suburb("immut", 24, cfg), 3, 40, cfg)
	before, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	next := engine.SimulateTick(s, entropy.NewSeeded(4), engine.NewScratch(24), cfg)
	after, _ := json.Marshal(s)
	if string(before) != string(after) {
		t.Fatalf("SimulateTick modified its input")
	}

	changed := map[int]bool{}
	for _, y := range city.ChangedRows(s.Grid, next.Grid) {
		changed[y] = true
	}
	for y := range s.Grid.Rows {
		shared := &s.Grid.Rows[y][0] == &next.Grid.Rows[y][0]
		if shared == changed[y] {
			t.Fatalf("row %d: shared=%v but reported changed=%v", y, shared, changed[y])
		}
	}
}

func TestLongRunInvariants(t *testing.T) {
	cfg := balance.Default()
	s := scenario.Suburb("long", 40, cfg)
	s.DisastersEnabled = true
	rng := entropy.NewSeeded(2024)
	sc := engine.NewScratch(40)

	for i := 1; i <= 600; i++ {
		s = engine.SimulateTick(s, rng, sc, cfg)
		for _, d := range []float64{s.Stats.Demand.Residential, s.Stats.Demand.Commercial, s.Stats.Demand.Industrial} {
			if d < -100 || d > 100 {
				t.Fatalf("tick %d: demand out of range %+v", i, s.Stats.Demand)
			}
		}
		if i%20 != 0 {
			continue
		}
		if err := footprint.Verify(s.Grid); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		for _, row := range s.Grid.Rows {
			for x := range row {
				b := &row[x].Building
				if b.ConstructionProgress < 0 || b.ConstructionProgress > 100 {
					t.Fatalf("tick %d: construction progress %v", i, b.ConstructionProgress)
				}
				if b.Population < 0 || b.Jobs < 0 {
					t.Fatalf("tick %d: negative occupancy %+v", i, b)
				}
			}
		}
	}
	if s.Calendar.TotalTicks != 600 {
		t.Fatalf("total ticks %d", s.Calendar.TotalTicks)
	}
}

func TestStarterGrowthWithoutUtilities(t *testing.T) {
	cfg := balance.Default()
	s := engine.NewState("starter", city.NewGrid(20), nil, cfg)
	s = engine.DrawTrack(s, engine.LinePath(0, 0, 19, 0), city.TypeRoad, cfg)
	s = engine.ZoneRect(s, city.Rect{X: 0, Y: 1, W: 20, H: 5}, city.ZoneResidential)

	rng := entropy.NewSeeded(11)
	sc := engine.NewScratch(20)
	for i := 0; i < 400; i++ {
		s = engine.SimulateTick(s, rng, sc, cfg)
		for _, row := range s.Grid.Rows {
			for x := range row {
				t2 := &row[x]
				if t2.Kind() == city.KindZoned && !city.SpecOf(t2.Building.Type).Starter {
					t.Fatalf("tick %d: %s appeared with no power or water", i, t2.Building.Type)
				}
			}
		}
	}
	if s.Stats.Population == 0 {
		t.Fatalf("no starter houses finished in 400 ticks")
	}
}

func TestEngineStepAndApply(t *testing.T) {
	cfg := balance.Default()
	eng := engine.NewEngine(scenario.Suburb("eng", 16, cfg), cfg, entropy.NewSeeded(5))

	days := 0
	ticks := 0
	eng.OnTick = func(*engine.State, engine.Report) { ticks++ }
	eng.OnDay = func(*engine.State, engine.Report) { days++ }

	for i := 0; i < cfg.Calendar.TicksPerDay; i++ {
		eng.Step()
	}
	if ticks != cfg.Calendar.TicksPerDay || days != 1 {
		t.Fatalf("ticks=%d days=%d", ticks, days)
	}
	if eng.State().Calendar.Day != 2 {
		t.Fatalf("calendar %+v", eng.State().Calendar)
	}

	if !eng.Apply(func(s *engine.State) *engine.State { return engine.SetTaxRate(s, 20) }) {
		t.Fatalf("tax change reported as no-op")
	}
	if eng.Apply(func(s *engine.State) *engine.State { return engine.SetTaxRate(s, 20) }) {
		t.Fatalf("repeated tax change reported as a change")
	}
	if eng.State().TaxRate != 20 {
		t.Fatalf("tax rate %v", eng.State().TaxRate)
	}

	eng.SetSpeed(-1)
	if eng.Speed() != 0 {
		t.Fatalf("negative speed should pause, got %v", eng.Speed())
	}
}
