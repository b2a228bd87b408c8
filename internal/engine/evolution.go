package engine

import (
	"math"

	"github.com/talgya/mini-city/internal/balance"
	"github.com/talgya/mini-city/internal/city"
	"github.com/talgya/mini-city/internal/entropy"
	"github.com/talgya/mini-city/internal/footprint"
	"github.com/talgya/mini-city/internal/reach"
)

// ConstructionStep returns the progress gained in one tick by a building of
// the given footprint area. roll is a uniform draw in [0,1).
func ConstructionStep(area int, roll float64, cfg balance.Growth) float64 {
	if area < 1 {
		area = 1
	}
	return (cfg.ConstructionBase + roll*cfg.ConstructionJitter) / math.Sqrt(float64(area))
}

// DensityTarget is the level a building's surroundings can support.
func DensityTarget(landValue, avgCoverage, age, demand float64, cfg balance.Growth) int {
	boost := math.Max(0, (demand-cfg.BoostThreshold)/cfg.BoostSpan) * cfg.BoostWeight
	v := landValue/cfg.LandValueDivisor + avgCoverage/cfg.CoverageDivisor + age/cfg.AgeDivisor + boost
	return balance.Clamp(int(math.Floor(v)), 1, 5)
}

// ConsolidationChance is the per-tick upgrade probability and whether the
// upgrade may swallow neighbouring small buildings.
func ConsolidationChance(demand float64, cfg balance.Growth) (p float64, allowConsolidation bool) {
	p = cfg.ConsolidationBase
	if demand > cfg.BoostThreshold {
		p += math.Min(cfg.ConsolidationDemandMax, (demand-cfg.BoostThreshold)/cfg.BoostSpan*cfg.ConsolidationDemandMax)
	}
	if demand > cfg.ConsolidationHighDemand {
		p += cfg.ConsolidationHighBonus
		allowConsolidation = true
	}
	return p, allowConsolidation
}

// AbandonProbability is the per-tick chance an eligible building is vacated.
func AbandonProbability(b *city.Building, demand float64, cfg balance.Abandonment) float64 {
	p := math.Min(cfg.MaxBase, math.Abs(demand-cfg.DemandThreshold)/cfg.Divisor)
	if !b.Powered {
		p += cfg.UtilityPenalty
	}
	if !b.Watered {
		p += cfg.UtilityPenalty
	}
	p += cfg.MaxLevelPenalty * float64(balance.Clamp(b.Level-1, 0, 4)) / 4
	return p
}

// RecoveryProbability is the per-tick chance an abandoned building is cleared.
func RecoveryProbability(demand float64, cfg balance.Abandonment) float64 {
	if demand <= cfg.RecoveryThreshold {
		return 0
	}
	return math.Min(cfg.RecoveryMax, (demand-cfg.RecoveryThreshold)/cfg.RecoveryDivisor)
}

// Occupancy returns population and jobs for a completed building at a level.
// Levels above the type's rank scale the catalog base.
func Occupancy(typ city.BuildingType, level int, cfg balance.Growth) (population, jobs int) {
	spec := city.SpecOf(typ)
	scale := 1.0
	if level > spec.Rank && spec.Rank > 0 {
		scale += cfg.LevelPopulationStep * float64(level-spec.Rank)
	}
	return int(float64(spec.Population) * scale), int(float64(spec.Jobs) * scale)
}

// spawn tries to start a starter building on zoned open land.
func (tk *ticker) spawn(x, y int, zone city.Zone) {
	demand := tk.demand.For(zone)
	if demand <= tk.cfg.Growth.SpawnMinDemand {
		return
	}
	if !reach.HasRoadAccess(tk.src, x, y, tk.cfg.Reach.MaxDistance, tk.sc.Reach) {
		return
	}
	p := tk.cfg.Growth.SpawnBase + math.Max(0, demand)/100*tk.cfg.Growth.SpawnDemandScale
	if !entropy.Chance(tk.rng, p) {
		return
	}
	starter, ok := city.StarterFor(zone)
	if !ok {
		return
	}
	w, h := city.Size(starter)
	if !footprint.CanSpawn(tk.b, x, y, w, h, zone) {
		return
	}
	r := footprint.Apply(tk.b, x, y, starter, zone, 1)
	tk.sc.touch(r)
	tk.report.Spawned++
}

// evolve advances a zoned origin through construction, activity, upgrade,
// abandonment and recovery. It returns false when the footprint was rewritten
// and t must be discarded.
func (tk *ticker) evolve(t *city.Tile, x, y int) bool {
	b := &t.Building
	spec := city.SpecOf(b.Type)
	demand := tk.demand.For(t.Zone)
	g := tk.cfg.Growth

	if b.Abandoned {
		b.Age += g.AgePerTick * tk.cfg.Abandonment.AbandonedAgeFactor
		b.Population, b.Jobs = 0, 0
		if entropy.Chance(tk.rng, RecoveryProbability(demand, tk.cfg.Abandonment)) {
			tk.sc.touch(footprint.Clear(tk.b, x, y, true))
			tk.report.Recovered++
			return false
		}
		return true
	}

	b.Age += g.AgePerTick

	if !b.Completed() {
		b.Population, b.Jobs = 0, 0
		if spec.Starter || (b.Powered && b.Watered) {
			b.ConstructionProgress += ConstructionStep(spec.Width*spec.Height, tk.rng.Float64(), g)
			if b.ConstructionProgress >= 100 {
				b.ConstructionProgress = 100
				b.Population, b.Jobs = Occupancy(b.Type, b.Level, g)
				tk.report.Completed++
			}
		}
		return true
	}

	b.Population, b.Jobs = Occupancy(b.Type, b.Level, g)
	if b.OnFire {
		return true
	}

	if upgraded, rewritten := tk.upgrade(t, x, y, demand); rewritten {
		return false
	} else if upgraded {
		return true
	}

	if demand < tk.cfg.Abandonment.DemandThreshold && b.Age > tk.cfg.Abandonment.MinAge {
		if entropy.Chance(tk.rng, AbandonProbability(b, demand, tk.cfg.Abandonment)) {
			b.Abandoned = true
			b.Population, b.Jobs = 0, 0
			tk.report.Abandoned++
		}
	}
	return true
}

// upgrade raises a completed building toward its density target. A larger
// type claims a new footprint through the builder (rewritten); a same-size
// type, or a failed footprint search, changes t in place (upgraded).
func (tk *ticker) upgrade(t *city.Tile, x, y int, demand float64) (upgraded, rewritten bool) {
	b := &t.Building
	g := tk.cfg.Growth
	if !b.Powered || !b.Watered || b.Age <= g.UpgradeMinAge {
		return false, false
	}
	target := DensityTarget(t.LandValue, tk.svc.Average(x, y), b.Age, demand, g)
	if target <= b.Level {
		return false, false
	}
	p, allowConsolidation := ConsolidationChance(demand, g)
	if !entropy.Chance(tk.rng, p) {
		return false, false
	}
	next, ok := city.LadderType(t.Zone, target)
	if !ok {
		return false, false
	}

	self := footprint.Of(tk.b, x, y)
	w, h := city.Size(next)
	if w <= self.W && h <= self.H {
		if w == self.W && h == self.H {
			b.Type = next
		}
		b.Level = target
		b.Population, b.Jobs = Occupancy(b.Type, b.Level, g)
		tk.report.Upgraded++
		return true, false
	}

	r, found := footprint.FindFootprintIncludingTile(tk.b, x, y, w, h, t.Zone, self, allowConsolidation)
	if !found {
		b.Level = min(5, b.Level+1)
		b.Population, b.Jobs = Occupancy(b.Type, b.Level, g)
		tk.report.Upgraded++
		return true, false
	}

	age, landValue, zone := b.Age, t.LandValue, t.Zone
	tk.sc.touch(footprint.Clear(tk.b, x, y, true))
	for cy := r.Y; cy < r.Y+r.H; cy++ {
		for cx := r.X; cx < r.X+r.W; cx++ {
			if c := tk.b.At(cx, cy); !c.IsOpenLand() {
				footprint.Clear(tk.b, cx, cy, true)
				tk.report.Consolidated++
			}
		}
	}
	tk.sc.touch(footprint.Apply(tk.b, r.X, r.Y, next, zone, target))
	origin := tk.b.Mut(r.X, r.Y)
	origin.Building.Age = age
	origin.LandValue = landValue
	tk.report.Upgraded++
	return true, true
}
