package city

import "testing"

func TestBuilderCopyOnWrite(t *testing.T) {
	src := NewGrid(8)
	b := NewBuilder(src)

	if b.Grid() != src {
		t.Fatalf("unchanged builder should return its source grid")
	}

	b.Mut(3, 2).Zone = ZoneResidential
	out := b.Grid()

	if src.At(3, 2).Zone != ZoneNone {
		t.Fatalf("source grid was mutated")
	}
	if out.At(3, 2).Zone != ZoneResidential {
		t.Fatalf("write not visible in result")
	}
	if b.RowsCloned() != 1 {
		t.Fatalf("rows cloned: got %d want 1", b.RowsCloned())
	}
	if got := ChangedRows(src, out); len(got) != 1 || got[0] != 2 {
		t.Fatalf("ChangedRows: got %v want [2]", got)
	}
}

func TestBuilderSetSkipsIdenticalTile(t *testing.T) {
	src := NewGrid(4)
	b := NewBuilder(src)
	b.Set(1, 1, *src.At(1, 1))
	if b.Changed() {
		t.Fatalf("Set with an identical tile cloned a row")
	}
}

func TestAtPanicsOutOfBounds(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	NewGrid(4).At(4, 0)
}

func TestLadderAndStarter(t *testing.T) {
	for _, z := range Zones {
		starter, ok := StarterFor(z)
		if !ok {
			t.Fatalf("no starter for %v", z)
		}
		spec := SpecOf(starter)
		if !spec.Starter || spec.Width != 1 || spec.Height != 1 {
			t.Fatalf("starter %s must be a 1x1 starter type", starter)
		}
		prevArea := 0
		for level := 1; level <= 5; level++ {
			typ, ok := LadderType(z, level)
			if !ok {
				t.Fatalf("missing ladder %v level %d", z, level)
			}
			s := SpecOf(typ)
			if s.Zone != z || s.Kind != KindZoned {
				t.Fatalf("%s: zone/kind mismatch", typ)
			}
			if s.Width > MaxFootprint || s.Height > MaxFootprint {
				t.Fatalf("%s exceeds MaxFootprint", typ)
			}
			if a := s.Width * s.Height; a < prevArea {
				t.Fatalf("%s: footprint shrinks up the ladder", typ)
			} else {
				prevArea = a
			}
		}
	}
	if _, ok := LadderType(ZoneNone, 1); ok {
		t.Fatalf("unzoned land has no ladder")
	}
}

func TestParseZone(t *testing.T) {
	for _, z := range []Zone{ZoneNone, ZoneResidential, ZoneCommercial, ZoneIndustrial} {
		got, ok := ParseZone(z.String())
		if !ok || got != z {
			t.Fatalf("ParseZone(%q) = %v, %v", z.String(), got, ok)
		}
	}
	if _, ok := ParseZone("swamp"); ok {
		t.Fatalf("unknown zone parsed")
	}
}
