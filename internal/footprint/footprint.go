// Package footprint places, resolves and clears multi-tile buildings.
//
// A footprint is one origin tile holding the real Building plus placeholder
// cells (type "empty", level 0) whose Owner points back at the origin. No two
// footprints overlap and every placeholder resolves to exactly one origin.
package footprint

import (
	"fmt"

	"github.com/talgya/mini-city/internal/city"
)

// RoadWeight and AreaPenalty define the placement score:
// roadAdjacency*RoadWeight - area*AreaPenalty.
const (
	RoadWeight  = 1.0
	AreaPenalty = 0.25
)

// Of returns the footprint rectangle of the origin at (ox, oy).
func Of(v city.View, ox, oy int) city.Rect {
	w, h := city.Size(v.At(ox, oy).Building.Type)
	return city.Rect{X: ox, Y: oy, W: w, H: h}
}

// CanSpawn reports whether a w×h building of the given zone fits with its
// origin at (x, y): every cell in bounds, in the zone, and grass or tree.
// Placeholder cells never qualify, which is what prevents silent overlap.
func CanSpawn(v city.View, x, y, w, h int, zone city.Zone) bool {
	for cy := y; cy < y+h; cy++ {
		for cx := x; cx < x+w; cx++ {
			if !v.InBounds(cx, cy) {
				return false
			}
			t := v.At(cx, cy)
			if t.Zone != zone || !t.IsOpenLand() {
				return false
			}
		}
	}
	return true
}

// Apply writes a building of type typ with its origin at (x, y). Zoned
// buildings start under construction; everything else is placed complete.
// Pollution is stamped at the origin only. Callers must have checked the
// footprint is free.
func Apply(b *city.Builder, x, y int, typ city.BuildingType, zone city.Zone, level int) city.Rect {
	spec := city.SpecOf(typ)
	r := city.Rect{X: x, Y: y, W: spec.Width, H: spec.Height}
	originIdx := int32(b.Index(x, y))

	progress := 100.0
	if spec.Kind == city.KindZoned {
		progress = 0
	}

	for cy := r.Y; cy < r.Y+r.H; cy++ {
		for cx := r.X; cx < r.X+r.W; cx++ {
			t := b.Mut(cx, cy)
			t.Zone = zone
			t.Crime = 0
			t.Traffic = 0
			if cx == x && cy == y {
				t.Building = city.Building{Type: typ, Level: level, ConstructionProgress: progress}
				t.Owner = -1
				if spec.Pollution > t.Pollution {
					t.Pollution = spec.Pollution
				}
				continue
			}
			t.Building = city.Building{Type: city.TypeEmpty}
			t.Owner = originIdx
		}
	}
	return r
}

// FindFootprintIncludingTile searches every w×h placement that contains
// (x, y) for one whose cells are all grass or tree of the zone, cells of self
// (the upgrading building's current footprint), or, when allowConsolidation
// is set, small consolidatable buildings of the same zone. The placement with
// the highest score wins; ties go to the first in scan order.
func FindFootprintIncludingTile(v city.View, x, y, w, h int, zone city.Zone, self city.Rect, allowConsolidation bool) (city.Rect, bool) {
	var best city.Rect
	bestScore := 0.0
	found := false

	for oy := y - h + 1; oy <= y; oy++ {
		for ox := x - w + 1; ox <= x; ox++ {
			r := city.Rect{X: ox, Y: oy, W: w, H: h}
			if !eligible(v, r, zone, self, allowConsolidation) {
				continue
			}
			score := float64(RoadAdjacency(v, r))*RoadWeight - float64(r.Area())*AreaPenalty
			if !found || score > bestScore {
				best, bestScore, found = r, score, true
			}
		}
	}
	return best, found
}

func eligible(v city.View, r city.Rect, zone city.Zone, self city.Rect, allowConsolidation bool) bool {
	for cy := r.Y; cy < r.Y+r.H; cy++ {
		for cx := r.X; cx < r.X+r.W; cx++ {
			if !v.InBounds(cx, cy) {
				return false
			}
			if self.Contains(cx, cy) {
				continue
			}
			t := v.At(cx, cy)
			if t.Zone != zone {
				return false
			}
			if t.IsOpenLand() {
				continue
			}
			if allowConsolidation && Consolidatable(t) {
				continue
			}
			return false
		}
	}
	return true
}

// Consolidatable reports whether a tile holds a small zoned building that a
// larger footprint may absorb.
func Consolidatable(t *city.Tile) bool {
	spec := city.SpecOf(t.Building.Type)
	return spec.Kind == city.KindZoned && spec.Consolidatable &&
		spec.Width == 1 && spec.Height == 1 && !t.Building.OnFire
}

// RoadAdjacency counts road or bridge cells bordering the rectangle.
func RoadAdjacency(v city.View, r city.Rect) int {
	n := 0
	check := func(x, y int) {
		if v.InBounds(x, y) && v.At(x, y).IsRoadLike() {
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

// FindOrigin resolves any tile to the origin of the footprint it belongs to.
// Non-placeholder tiles are their own origin. Placeholders follow their
// back-reference and fall back to a backward search bounded by the largest
// footprint edge.
func FindOrigin(v city.View, x, y int) (int, int, bool) {
	t := v.At(x, y)
	if !t.IsPlaceholder() {
		return x, y, true
	}
	size := v.Size()
	if t.Owner >= 0 {
		ox, oy := int(t.Owner)%size, int(t.Owner)/size
		if covers(v, ox, oy, x, y) {
			return ox, oy, true
		}
	}
	for dy := 0; dy < city.MaxFootprint; dy++ {
		for dx := 0; dx < city.MaxFootprint; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if covers(v, x-dx, y-dy, x, y) {
				return x - dx, y - dy, true
			}
		}
	}
	return 0, 0, false
}

func covers(v city.View, ox, oy, x, y int) bool {
	if !v.InBounds(ox, oy) || (ox == x && oy == y) {
		return false
	}
	o := v.At(ox, oy)
	if o.IsPlaceholder() {
		return false
	}
	w, h := city.Size(o.Building.Type)
	if w*h <= 1 {
		return false
	}
	return x >= ox && x < ox+w && y >= oy && y < oy+h
}

// Clear reverts the whole footprint of the origin at (ox, oy) to grass.
func Clear(b *city.Builder, ox, oy int, keepZone bool) city.Rect {
	r := Of(b, ox, oy)
	for cy := r.Y; cy < r.Y+r.H; cy++ {
		for cx := r.X; cx < r.X+r.W; cx++ {
			if !b.InBounds(cx, cy) {
				continue
			}
			if (cx != ox || cy != oy) && !b.At(cx, cy).IsPlaceholder() {
				continue
			}
			b.Mut(cx, cy).ResetToGrass(keepZone)
		}
	}
	return r
}

// SweepOrphans reverts placeholders that no longer resolve to an origin and
// repairs stale back-references. It returns the number of cells swept.
func SweepOrphans(b *city.Builder) int {
	swept := 0
	size := b.Size()
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			t := b.At(x, y)
			if !t.IsPlaceholder() {
				continue
			}
			ox, oy, ok := FindOrigin(b, x, y)
			if !ok {
				b.Mut(x, y).ResetToGrass(true)
				swept++
				continue
			}
			if idx := int32(b.Index(ox, oy)); t.Owner != idx {
				b.Mut(x, y).Owner = idx
			}
		}
	}
	return swept
}

// Verify checks the footprint invariants over a whole grid: footprints do
// not overlap, cover only placeholders besides their origin, stay in bounds,
// and every placeholder is covered.
func Verify(v city.View) error {
	size := v.Size()
	owner := make([]int, size*size)
	for i := range owner {
		owner[i] = -1
	}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			t := v.At(x, y)
			if t.IsPlaceholder() {
				continue
			}
			r := Of(v, x, y)
			origin := y*size + x
			for cy := r.Y; cy < r.Y+r.H; cy++ {
				for cx := r.X; cx < r.X+r.W; cx++ {
					if !v.InBounds(cx, cy) {
						return fmt.Errorf("footprint of %s at (%d,%d) leaves the grid", t.Building.Type, x, y)
					}
					i := cy*size + cx
					if owner[i] >= 0 {
						return fmt.Errorf("cell (%d,%d) claimed by origins %d and %d", cx, cy, owner[i], origin)
					}
					if i != origin && !v.At(cx, cy).IsPlaceholder() {
						return fmt.Errorf("cell (%d,%d) inside %s at (%d,%d) is %s, want placeholder",
							cx, cy, t.Building.Type, x, y, v.At(cx, cy).Building.Type)
					}
					owner[i] = origin
				}
			}
		}
	}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if v.At(x, y).IsPlaceholder() && owner[y*size+x] < 0 {
				return fmt.Errorf("placeholder at (%d,%d) has no origin", x, y)
			}
		}
	}
	return nil
}
