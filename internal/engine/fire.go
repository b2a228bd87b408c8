package engine

import (
	"github.com/talgya/mini-city/internal/city"
	"github.com/talgya/mini-city/internal/entropy"
	"github.com/talgya/mini-city/internal/footprint"
)

// burn runs one fire step on a flammable origin. It returns false when the
// building burned down and its footprint was cleared.
//
// A burning building either gets extinguished (chance grows with fire
// coverage) or burns further; at 100% it is gone. A building not on fire can
// ignite spontaneously or catch from burning neighbours.
func (tk *ticker) burn(t *city.Tile, x, y int) bool {
	if !tk.disasters || !city.SpecOf(t.Building.Type).Flammable {
		return true
	}
	f := tk.cfg.Fire
	b := &t.Building
	cov := tk.svc.Fire[y*tk.svc.Size+x]

	if b.OnFire {
		if entropy.Chance(tk.rng, cov/f.ExtinguishDivisor) {
			b.OnFire = false
			b.FireProgress = 0
			tk.report.Extinguished++
			return true
		}
		b.FireProgress += f.BurnRate
		if b.FireProgress >= 100 {
			tk.sc.touch(footprint.Clear(tk.b, x, y, false))
			tk.report.BurnedDown++
			return false
		}
		return true
	}

	if entropy.Chance(tk.rng, f.IgniteChance) {
		b.OnFire = true
		tk.report.Ignited++
		return true
	}
	if n := tk.adjacentFires(x, y); n > 0 {
		p := f.SpreadChance * float64(n) * (1 - cov/100*f.CoverageDamping)
		if entropy.Chance(tk.rng, p) {
			b.OnFire = true
			tk.report.Ignited++
		}
	}
	return true
}

// adjacentFires counts the cells bordering the footprint at (x, y) whose
// building was burning at the start of the tick.
func (tk *ticker) adjacentFires(x, y int) int {
	r := footprint.Of(tk.src, x, y)
	n := 0
	check := func(cx, cy int) {
		if !tk.src.InBounds(cx, cy) {
			return
		}
		c := tk.src.At(cx, cy)
		if c.IsPlaceholder() {
			ox, oy, ok := footprint.FindOrigin(tk.src, cx, cy)
			if !ok {
				return
			}
			c = tk.src.At(ox, oy)
		}
		if c.Building.OnFire {
			n++
		}
	}
	for cx := r.X; cx < r.X+r.W; cx++ {
		check(cx, r.Y-1)
		check(cx, r.Y+r.H)
	}
	for cy := r.Y; cy < r.Y+r.H; cy++ {
		check(r.X-1, cy)
		check(r.X+r.W, cy)
	}
	return n
}
