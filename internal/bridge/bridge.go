// Package bridge detects road and rail crossings over water along a drag
// path and materialises them as bridge tiles. Detection is deterministic;
// the only variation is a cosmetic style picked from a positional hash.
package bridge

import (
	"sort"

	"github.com/talgya/mini-city/internal/balance"
	"github.com/talgya/mini-city/internal/city"
)

// Bridge kinds by span length.
const (
	KindSmall      = "small"
	KindLarge      = "large"
	KindSuspension = "suspension"
)

var variants = map[string][]string{
	KindSmall:      {"wooden", "stone"},
	KindLarge:      {"truss", "arch", "beam"},
	KindSuspension: {"cable_stayed", "twin_tower"},
}

// Span is one detected crossing.
type Span struct {
	Tiles       []city.Point      `json:"tiles"`
	Kind        string            `json:"kind"`
	Variant     string            `json:"variant"`
	Orientation string            `json:"orientation"`
	Track       city.BuildingType `json:"track"`
}

// KindForSpan classifies a crossing of n water tiles. Spans longer than
// MaxSpan cannot be bridged.
func KindForSpan(n int, cfg balance.Bridge) (string, bool) {
	switch {
	case n < 1 || n > cfg.MaxSpan:
		return "", false
	case n == 1:
		return KindSmall, true
	case n <= cfg.LargeMaxSpan:
		return KindLarge, true
	default:
		return KindSuspension, true
	}
}

// Variant picks the cosmetic style for a span starting at (x, y).
func Variant(kind string, x, y int, cfg balance.Bridge) string {
	vs := variants[kind]
	if len(vs) == 0 {
		return ""
	}
	mod := cfg.VariantModulus
	if mod < 1 {
		mod = 100
	}
	h := (x*31 + y*17) % mod
	if h < 0 {
		h += mod
	}
	return vs[h%len(vs)]
}

// north, east, south, west
var dirs = [4][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}

// Detect scans outward from every path tile holding the given track type for
// a run of water ending in the same track type. Nothing is detected unless
// the path itself touched water. Spans into an existing bridge never match
// because a bridge is not the track type.
func Detect(v city.View, path []city.Point, track city.BuildingType, cfg balance.Bridge) []Span {
	touched := false
	for _, p := range path {
		if v.InBounds(p.X, p.Y) && v.At(p.X, p.Y).IsWater() {
			touched = true
			break
		}
	}
	if !touched {
		return nil
	}

	claimed := make(map[city.Point]bool)
	var spans []Span

	for _, p := range path {
		if !v.InBounds(p.X, p.Y) || v.At(p.X, p.Y).Building.Type != track {
			continue
		}
		for _, d := range dirs {
			var tiles []city.Point
			cx, cy := p.X+d[0], p.Y+d[1]
			for v.InBounds(cx, cy) && v.At(cx, cy).IsWater() && len(tiles) <= cfg.MaxSpan {
				tiles = append(tiles, city.Point{X: cx, Y: cy})
				cx, cy = cx+d[0], cy+d[1]
			}
			kind, ok := KindForSpan(len(tiles), cfg)
			if !ok || !v.InBounds(cx, cy) || v.At(cx, cy).Building.Type != track {
				continue
			}
			if anyClaimed(claimed, tiles) {
				continue
			}

			orientation := "ew"
			if d[1] != 0 {
				orientation = "ns"
			}
			canonicalize(tiles, orientation)
			for _, t := range tiles {
				claimed[t] = true
			}
			spans = append(spans, Span{
				Tiles:       tiles,
				Kind:        kind,
				Variant:     Variant(kind, tiles[0].X, tiles[0].Y, cfg),
				Orientation: orientation,
				Track:       track,
			})
		}
	}
	return spans
}

func anyClaimed(claimed map[city.Point]bool, tiles []city.Point) bool {
	for _, t := range tiles {
		if claimed[t] {
			return true
		}
	}
	return false
}

// canonicalize orders span tiles so start and end markers do not depend on
// which bank the scan began from: x-then-y for north-south spans, y-then-x
// for east-west spans.
func canonicalize(tiles []city.Point, orientation string) {
	sort.Slice(tiles, func(i, j int) bool {
		a, b := tiles[i], tiles[j]
		if orientation == "ns" {
			if a.X != b.X {
				return a.X < b.X
			}
			return a.Y < b.Y
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
}

// Cost is what building the span charges the treasury.
func (s Span) Cost() int {
	return len(s.Tiles) * city.SpecOf(city.TypeBridge).Cost
}

// Build writes bridge tiles for each span.
func Build(b *city.Builder, spans []Span) {
	for _, s := range spans {
		for i, p := range s.Tiles {
			info := &city.BridgeInfo{
				Kind:        s.Kind,
				Variant:     s.Variant,
				Orientation: s.Orientation,
				Position:    position(i, len(s.Tiles)),
				Track:       s.Track,
				Span:        len(s.Tiles),
				Index:       i,
			}
			t := b.Mut(p.X, p.Y)
			t.Zone = city.ZoneNone
			t.Owner = -1
			t.Building = city.Building{
				Type:                 city.TypeBridge,
				ConstructionProgress: 100,
				Bridge:               info,
			}
		}
	}
}

func position(i, n int) string {
	switch {
	case n == 1:
		return "single"
	case i == 0:
		return "start"
	case i == n-1:
		return "end"
	default:
		return "middle"
	}
}
