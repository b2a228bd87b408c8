package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/mini-city/internal/balance"
	"github.com/talgya/mini-city/internal/bridge"
	"github.com/talgya/mini-city/internal/city"
	"github.com/talgya/mini-city/internal/footprint"
)

// Player tools. Every tool returns the input pointer unchanged when the
// action is illegal or would change nothing, so callers can detect a no-op
// with ==. Legal actions return a new State sharing untouched rows.

// ZoneTile sets the zone of one open-land tile. ZoneNone dezones it.
func ZoneTile(s *State, x, y int, zone city.Zone) *State {
	return ZoneRect(s, city.Rect{X: x, Y: y, W: 1, H: 1}, zone)
}

// ZoneRect zones every open-land tile in r. Water, roads and buildings are
// left alone.
func ZoneRect(s *State, r city.Rect, zone city.Zone) *State {
	b := city.NewBuilder(s.Grid)
	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			if !b.InBounds(x, y) {
				continue
			}
			t := b.At(x, y)
			if !t.IsOpenLand() || t.Zone == zone {
				continue
			}
			b.Mut(x, y).Zone = zone
		}
	}
	if !b.Changed() {
		return s
	}
	return s.withGrid(b.Grid())
}

// PlaceBuilding places a service, park or landmark with its origin at (x, y).
// Every footprint cell must be open land and the treasury must cover the cost.
func PlaceBuilding(s *State, x, y int, typ city.BuildingType) *State {
	spec := city.SpecOf(typ)
	if spec.Kind != city.KindService {
		return s
	}
	if s.Stats.Money < spec.Cost {
		return s
	}
	for cy := y; cy < y+spec.Height; cy++ {
		for cx := x; cx < x+spec.Width; cx++ {
			if !s.Grid.InBounds(cx, cy) || !s.Grid.At(cx, cy).IsOpenLand() {
				return s
			}
		}
	}
	b := city.NewBuilder(s.Grid)
	footprint.Apply(b, x, y, typ, city.ZoneNone, 1)
	next := s.withGrid(b.Grid())
	next.Stats.Money -= spec.Cost
	return next
}

// Bulldoze demolishes whatever stands at (x, y). Multi-tile buildings go
// as a whole; zoned buildings leave their zone behind. A bridge span reverts
// to water in full. Trees are cleared to grass.
func Bulldoze(s *State, x, y int) *State {
	if !s.Grid.InBounds(x, y) {
		return s
	}
	t := s.Grid.At(x, y)
	b := city.NewBuilder(s.Grid)

	switch t.Kind() {
	case city.KindTerrain:
		if t.Building.Type != city.TypeTree {
			return s
		}
		b.Mut(x, y).ResetToGrass(true)
	case city.KindInfrastructure:
		b.Mut(x, y).ResetToGrass(false)
	case city.KindBridge:
		for _, p := range bridgeSpan(s.Grid, x, y) {
			w := b.Mut(p.X, p.Y)
			*w = city.NewTile(p.X, p.Y, city.TypeWater)
			w.LandValue = t.LandValue
		}
	case city.KindPlaceholder, city.KindZoned, city.KindService:
		ox, oy, ok := footprint.FindOrigin(s.Grid, x, y)
		if !ok {
			b.Mut(x, y).ResetToGrass(true)
			break
		}
		footprint.Clear(b, ox, oy, s.Grid.At(ox, oy).Kind() == city.KindZoned)
	default:
		return s
	}
	if !b.Changed() {
		return s
	}
	return s.withGrid(b.Grid())
}

// bridgeSpan walks along a bridge's orientation from (x, y) in both directions.
func bridgeSpan(g *city.Grid, x, y int) []city.Point {
	info := g.At(x, y).Building.Bridge
	dx, dy := 1, 0
	if info != nil && info.Orientation == "ns" {
		dx, dy = 0, 1
	}
	same := func(cx, cy int) bool {
		if !g.InBounds(cx, cy) {
			return false
		}
		c := g.At(cx, cy)
		return c.Kind() == city.KindBridge && (info == nil || c.Building.Bridge == nil ||
			c.Building.Bridge.Orientation == info.Orientation)
	}
	sx, sy := x, y
	for same(sx-dx, sy-dy) {
		sx, sy = sx-dx, sy-dy
	}
	var span []city.Point
	for cx, cy := sx, sy; same(cx, cy); cx, cy = cx+dx, cy+dy {
		span = append(span, city.Point{X: cx, Y: cy})
	}
	return span
}

// DrawTrack lays road or rail along a drag path, then bridges any water the
// path crossed between two tiles of the same track. Crossing the other track
// type makes a road tile with a rail overlay. Tiles and bridge spans the
// treasury cannot cover are skipped; the treasury is never charged past zero.
func DrawTrack(s *State, path []city.Point, track city.BuildingType, cfg *balance.Config) *State {
	if track != city.TypeRoad && track != city.TypeRail {
		return s
	}
	money := s.Stats.Money
	b := city.NewBuilder(s.Grid)
	for _, p := range path {
		if !b.InBounds(p.X, p.Y) {
			continue
		}
		t := b.At(p.X, p.Y)
		cost := city.SpecOf(track).Cost
		switch {
		case t.IsOpenLand():
			if money < cost {
				break
			}
			money -= cost
			nt := city.NewTile(p.X, p.Y, track)
			nt.LandValue = t.LandValue
			nt.Pollution = t.Pollution
			nt.HasSubway = t.HasSubway
			*b.Mut(p.X, p.Y) = nt
		case t.Building.Type == city.TypeRoad && track == city.TypeRail && !t.HasRailOverlay:
			b.Mut(p.X, p.Y).HasRailOverlay = true
		case t.Building.Type == city.TypeRail && track == city.TypeRoad:
			w := b.Mut(p.X, p.Y)
			w.Building.Type = city.TypeRoad
			w.HasRailOverlay = true
		}
	}
	var spans []bridge.Span
	for _, sp := range bridge.Detect(b, path, track, cfg.Bridge) {
		if money < sp.Cost() {
			continue
		}
		money -= sp.Cost()
		spans = append(spans, sp)
	}
	bridge.Build(b, spans)
	if !b.Changed() {
		return s
	}
	next := s.withGrid(b.Grid())
	next.Stats.Money = money
	return next
}

// PlaceSubway lays a subway segment under a land tile.
func PlaceSubway(s *State, x, y int) *State {
	if !s.Grid.InBounds(x, y) {
		return s
	}
	t := s.Grid.At(x, y)
	if t.IsWater() || t.HasSubway {
		return s
	}
	b := city.NewBuilder(s.Grid)
	b.Mut(x, y).HasSubway = true
	return s.withGrid(b.Grid())
}

// SetTaxRate changes the player's rate, clamped to [0, 100]. Demand follows
// through the lagged effective rate.
func SetTaxRate(s *State, rate float64) *State {
	rate = balance.Clamp(rate, 0, 100)
	if rate == s.TaxRate {
		return s
	}
	next := *s
	next.TaxRate = rate
	return &next
}

// SetFunding changes one budget category's funding percentage.
func SetFunding(s *State, category string, pct int) *State {
	pct = balance.Clamp(pct, 0, 100)
	next := *s
	for _, c := range next.Budget.Categories() {
		if c.Name != category {
			continue
		}
		if c.Funding == pct {
			return s
		}
		c.Funding = pct
		return &next
	}
	return s
}

// SetDisasters toggles fires.
func SetDisasters(s *State, on bool) *State {
	if s.DisastersEnabled == on {
		return s
	}
	next := *s
	next.DisastersEnabled = on
	return &next
}

// Tool is a serialisable player action, as received from the API.
type Tool struct {
	Name     string            `json:"tool"`
	X        int               `json:"x"`
	Y        int               `json:"y"`
	X2       int               `json:"x2,omitempty"`
	Y2       int               `json:"y2,omitempty"`
	Zone     string            `json:"zone,omitempty"`
	Building city.BuildingType `json:"building,omitempty"`
	Value    float64           `json:"value,omitempty"`
	Category string            `json:"category,omitempty"`
	Path     []city.Point      `json:"path,omitempty"`
}

// ApplyTool dispatches a Tool. Malformed requests are errors; legal but
// ineffective actions return s unchanged with a nil error.
func ApplyTool(s *State, t Tool, cfg *balance.Config) (*State, error) {
	var next *State
	switch t.Name {
	case "zone":
		z, ok := city.ParseZone(t.Zone)
		if !ok {
			return s, fmt.Errorf("unknown zone %q", t.Zone)
		}
		next = ZoneRect(s, spanRect(t), z)
	case "build":
		if !city.Known(t.Building) {
			return s, fmt.Errorf("unknown building %q", t.Building)
		}
		next = PlaceBuilding(s, t.X, t.Y, t.Building)
	case "bulldoze":
		next = Bulldoze(s, t.X, t.Y)
	case "road", "rail":
		path := t.Path
		if len(path) == 0 {
			path = LinePath(t.X, t.Y, t.X2, t.Y2)
		}
		next = DrawTrack(s, path, city.BuildingType(t.Name), cfg)
	case "subway":
		next = PlaceSubway(s, t.X, t.Y)
	case "tax":
		next = SetTaxRate(s, t.Value)
	case "funding":
		next = SetFunding(s, t.Category, int(t.Value))
	case "disasters":
		next = SetDisasters(s, t.Value != 0)
	default:
		return s, fmt.Errorf("unknown tool %q", t.Name)
	}
	if next != s {
		slog.Debug("tool applied", "tool", t.Name, "x", t.X, "y", t.Y)
	}
	return next, nil
}

func spanRect(t Tool) city.Rect {
	x0, x1 := min(t.X, t.X2), max(t.X, t.X2)
	y0, y1 := min(t.Y, t.Y2), max(t.Y, t.Y2)
	if t.X2 == 0 && t.Y2 == 0 {
		x0, x1, y0, y1 = t.X, t.X, t.Y, t.Y
	}
	return city.Rect{X: x0, Y: y0, W: x1 - x0 + 1, H: y1 - y0 + 1}
}

// LinePath is the L-shaped drag from (x0, y0) to (x1, y1): horizontal first,
// then vertical.
func LinePath(x0, y0, x1, y1 int) []city.Point {
	var path []city.Point
	step := func(a, b int) int {
		if b < a {
			return -1
		}
		return 1
	}
	sx := step(x0, x1)
	for x := x0; x != x1+sx; x += sx {
		path = append(path, city.Point{X: x, Y: y0})
	}
	sy := step(y0, y1)
	for y := y0 + sy; y != y1+sy; y += sy {
		path = append(path, city.Point{X: x1, Y: y})
	}
	return path
}
