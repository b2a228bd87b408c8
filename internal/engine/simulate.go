package engine

import (
	"math"

	"github.com/talgya/mini-city/internal/balance"
	"github.com/talgya/mini-city/internal/city"
	"github.com/talgya/mini-city/internal/coverage"
	"github.com/talgya/mini-city/internal/entropy"
	"github.com/talgya/mini-city/internal/footprint"
)

// Report counts what happened during one tick.
type Report struct {
	Spawned      int  `json:"spawned"`
	Completed    int  `json:"completed"`
	Upgraded     int  `json:"upgraded"`
	Consolidated int  `json:"consolidated"`
	Abandoned    int  `json:"abandoned"`
	Recovered    int  `json:"recovered"`
	Ignited      int  `json:"ignited"`
	Extinguished int  `json:"extinguished"`
	BurnedDown   int  `json:"burned_down"`
	Swept        int  `json:"swept"`
	Skipped      int  `json:"skipped"`
	RowsCloned   int  `json:"rows_cloned"`
	NewDay       bool `json:"new_day"`
	NewMonth     bool `json:"new_month"`
}

// Add accumulates counters from another report.
func (r *Report) Add(o Report) {
	r.Spawned += o.Spawned
	r.Completed += o.Completed
	r.Upgraded += o.Upgraded
	r.Consolidated += o.Consolidated
	r.Abandoned += o.Abandoned
	r.Recovered += o.Recovered
	r.Ignited += o.Ignited
	r.Extinguished += o.Extinguished
	r.BurnedDown += o.BurnedDown
	r.Swept += o.Swept
	r.Skipped += o.Skipped
	r.RowsCloned += o.RowsCloned
}

// SimulateTick advances the city one step. s is never modified; the result
// shares every grid row the tick did not touch.
func SimulateTick(s *State, rng entropy.Source, sc *Scratch, cfg *balance.Config) *State {
	next, _ := Step(s, rng, sc, cfg)
	return next
}

// ticker carries the per-tick context through the tile pass.
type ticker struct {
	cfg       *balance.Config
	rng       entropy.Source
	sc        *Scratch
	src       *city.Grid
	b         *city.Builder
	svc       *coverage.Services
	demand    Demand
	disasters bool
	report    Report
}

// Step is SimulateTick plus a report of the tick's events.
func Step(s *State, rng entropy.Source, sc *Scratch, cfg *balance.Config) (*State, Report) {
	sc.prepare(s.Grid)
	tk := &ticker{
		cfg:       cfg,
		rng:       rng,
		sc:        sc,
		src:       s.Grid,
		b:         city.NewBuilder(s.Grid),
		svc:       coverage.Calculate(s.Grid, cfg),
		demand:    s.Stats.Demand,
		disasters: s.DisastersEnabled,
	}

	size := s.Grid.Size()
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			i := y*size + x
			if sc.touched[i] {
				continue
			}
			kind := sc.kinds[i]
			if !cfg.DisableSkip && tk.static(s.Grid.At(x, y), kind, x, y) {
				tk.report.Skipped++
				continue
			}
			tk.update(x, y, kind)
		}
	}
	tk.report.Swept = footprint.SweepOrphans(tk.b)
	tk.report.RowsCloned = tk.b.RowsCloned()

	next := *s
	next.Grid = tk.b.Grid()
	next.Services = tk.svc
	next.EffectiveTaxRate = s.EffectiveTaxRate + (s.TaxRate-s.EffectiveTaxRate)*cfg.Demand.TaxLag
	next.Stats, next.Census = Aggregate(next.Grid, tk.svc, s.Stats, next.TaxRate, next.EffectiveTaxRate, cfg)
	next.Budget = RecomputeBudget(s.Budget, next.Census, cfg)
	next.Stats.Expenses = next.Budget.Total()

	var newMonth bool
	next.Calendar, tk.report.NewDay, newMonth = s.Calendar.Advance(cfg.Calendar)
	tk.report.NewMonth = newMonth
	if newMonth {
		next.Stats.Money += next.Stats.Income - next.Stats.Expenses
	}
	return &next, tk.report
}

// static reports whether the full update would leave the tile unchanged
// without drawing from the random source.
func (tk *ticker) static(t *city.Tile, kind city.Kind, x, y int) bool {
	switch kind {
	case city.KindTerrain:
		if t.IsWater() {
			return t.Pollution == 0
		}
		return t.Zone == city.ZoneNone && t.Pollution == 0
	case city.KindInfrastructure, city.KindBridge:
		return t.Pollution == 0 && tk.utilitiesSettled(t, x, y)
	case city.KindPlaceholder:
		return t.Pollution == 0
	case city.KindService:
		spec := city.SpecOf(t.Building.Type)
		if t.Building.OnFire || (tk.disasters && spec.Flammable) {
			return false
		}
		return t.Pollution == 0 && spec.Pollution == 0 && t.Building.Completed() &&
			tk.utilitiesSettled(t, x, y)
	case city.KindUnknown:
		return true
	}
	return false
}

func (tk *ticker) utilitiesSettled(t *city.Tile, x, y int) bool {
	return t.Building.Powered == tk.svc.Powered(x, y) && t.Building.Watered == tk.svc.Watered(x, y)
}

// update runs the full per-tile step for one cell.
func (tk *ticker) update(x, y int, kind city.Kind) {
	t := *tk.b.At(x, y)
	tk.decayPollution(&t)

	switch kind {
	case city.KindTerrain:
		if t.IsWater() {
			break
		}
		if t.Zone != city.ZoneNone {
			tk.landValue(&t, x, y)
			tk.b.Set(x, y, t)
			tk.spawn(x, y, t.Zone)
			return
		}
	case city.KindInfrastructure, city.KindBridge:
		t.Building.Powered = tk.svc.Powered(x, y)
		t.Building.Watered = tk.svc.Watered(x, y)
	case city.KindService:
		t.Building.Powered = tk.svc.Powered(x, y)
		t.Building.Watered = tk.svc.Watered(x, y)
		tk.emit(&t)
		if !tk.burn(&t, x, y) {
			return
		}
	case city.KindZoned:
		t.Building.Powered = tk.svc.Powered(x, y)
		t.Building.Watered = tk.svc.Watered(x, y)
		tk.emit(&t)
		tk.landValue(&t, x, y)
		if !tk.burn(&t, x, y) {
			return
		}
		if !tk.evolve(&t, x, y) {
			return
		}
		tk.crimeAndTraffic(&t, x, y)
	}
	tk.b.Set(x, y, t)
}

func (tk *ticker) decayPollution(t *city.Tile) {
	if t.Pollution == 0 {
		return
	}
	t.Pollution *= tk.cfg.Environment.PollutionDecay
	if t.Pollution < tk.cfg.Environment.PollutionEpsilon {
		t.Pollution = 0
	}
}

// emit keeps an active polluter's origin at its catalog pollution.
func (tk *ticker) emit(t *city.Tile) {
	b := &t.Building
	spec := city.SpecOf(b.Type)
	if spec.Pollution > 0 && b.Completed() && !b.Abandoned && t.Pollution < spec.Pollution {
		t.Pollution = spec.Pollution
	}
}

// landValue eases the tile toward what its services, utilities, greenery
// and pollution support.
func (tk *ticker) landValue(t *city.Tile, x, y int) {
	e := tk.cfg.Environment
	target := e.LandValueBase + tk.svc.Average(x, y)*e.LandValueService
	if tk.svc.Powered(x, y) {
		target += e.LandValueUtility
	}
	if tk.svc.Watered(x, y) {
		target += e.LandValueUtility
	}
	target += float64(tk.greenNeighbours(x, y)) * e.LandValueGreen
	target -= t.Pollution * e.LandValuePollution
	target = balance.Clamp(target, 0, 100)
	t.LandValue = balance.Lerp(t.LandValue, target, e.LandValueRate)
}

func (tk *ticker) greenNeighbours(x, y int) int {
	n := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if (dx == 0 && dy == 0) || !tk.src.InBounds(x+dx, y+dy) {
				continue
			}
			c := tk.src.At(x+dx, y+dy)
			if c.Building.Type == city.TypeTree || c.IsWater() || city.SpecOf(c.Building.Type).Park {
				n++
			}
		}
	}
	return n
}

func (tk *ticker) crimeAndTraffic(t *city.Tile, x, y int) {
	b := &t.Building
	occupants := float64(b.Population + b.Jobs)
	if occupants == 0 {
		t.Crime, t.Traffic = 0, 0
		return
	}
	police := tk.svc.Police[y*tk.svc.Size+x]
	t.Crime = math.Max(0, tk.cfg.Environment.CrimeBase*(1-police/100))
	t.Traffic = math.Min(100, occupants/tk.cfg.Environment.TrafficDivisor)
}
