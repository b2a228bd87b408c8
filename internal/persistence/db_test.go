package persistence

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/talgya/mini-city/internal/balance"
	"github.com/talgya/mini-city/internal/engine"
	"github.com/talgya/mini-city/internal/entropy"
	"github.com/talgya/mini-city/internal/scenario"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "city.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func grow(s *engine.State, ticks int, cfg *balance.Config) *engine.State {
	rng := entropy.NewSeeded(8)
	sc := engine.NewScratch(s.GridSize)
	for i := 0; i < ticks; i++ {
		s = engine.SimulateTick(s, rng, sc, cfg)
	}
	return s
}

func TestSnapshotRoundTrip(t *testing.T) {
	db := openTemp(t)
	cfg := balance.Default()

	if _, err := db.LoadLatest(""); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("empty db: got %v want ErrNoSnapshot", err)
	}

	s := grow(scenario.Suburb("saved", 24, cfg), 60, cfg)
	s.Seed = 42
	if err := db.SaveSnapshot(s); err != nil {
		t.Fatalf("save: %v", err)
	}
	later := grow(s, 10, cfg)
	if err := db.SaveSnapshot(later); err != nil {
		t.Fatalf("save later: %v", err)
	}

	got, err := db.LoadLatest(s.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Calendar != later.Calendar {
		t.Fatalf("loaded calendar %+v want %+v", got.Calendar, later.Calendar)
	}
	if !reflect.DeepEqual(got.Grid, later.Grid) {
		t.Fatalf("grid changed across save/load")
	}
	if got.Stats != later.Stats || got.Seed != 42 || got.Name != "saved" {
		t.Fatalf("state header changed: %+v", got.Stats)
	}

	// A loaded city keeps ticking like the original.
	a := grow(got, 5, cfg)
	b := grow(later, 5, cfg)
	if !reflect.DeepEqual(a.Grid, b.Grid) {
		t.Fatalf("resumed city diverged")
	}

	cities, err := db.Cities()
	if err != nil || len(cities) != 1 || cities[0].ID != s.ID || cities[0].GridSize != 24 {
		t.Fatalf("cities %+v err %v", cities, err)
	}

	n, err := db.PruneSnapshots(s.ID, 1)
	if err != nil || n != 1 {
		t.Fatalf("prune removed %d, err %v", n, err)
	}
	if got, err := db.LoadLatest(""); err != nil || got.Calendar != later.Calendar {
		t.Fatalf("prune dropped the newest snapshot: %v", err)
	}
}

func TestStatsHistory(t *testing.T) {
	db := openTemp(t)
	cfg := balance.Default()
	s := scenario.Suburb("history", 16, cfg)

	for i := 0; i < 3; i++ {
		s = grow(s, cfg.Calendar.TicksPerDay, cfg)
		if err := db.SaveStats(s); err != nil {
			t.Fatalf("save stats: %v", err)
		}
	}
	rows, err := db.StatsHistory(s.ID, 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}
	if rows[0].TotalTicks != s.Calendar.TotalTicks || rows[0].Day != 4 || rows[1].Day != 3 {
		t.Fatalf("rows not newest first: %+v", rows)
	}
	if rows[0].Population != s.Stats.Population || rows[0].DemandR != s.Stats.Demand.Residential {
		t.Fatalf("row content %+v", rows[0])
	}
}

func TestMeta(t *testing.T) {
	db := openTemp(t)
	if err := db.SaveMeta("last_city", "abc"); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveMeta("last_city", "def"); err != nil {
		t.Fatal(err)
	}
	v, err := db.GetMeta("last_city")
	if err != nil || v != "def" {
		t.Fatalf("GetMeta = %q, %v", v, err)
	}
	if _, err := db.GetMeta("missing"); err == nil {
		t.Fatalf("missing key returned no error")
	}
}
