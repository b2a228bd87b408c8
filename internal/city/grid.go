package city

import "fmt"

// Grid is a square tile array for one tick. Once published as part of a
// tick's output it is treated as immutable: rows are shared between ticks.
type Grid struct {
	GridSize int      `json:"size"`
	Rows     [][]Tile `json:"rows"`
}

// View is the read side shared by Grid and Builder.
type View interface {
	Size() int
	InBounds(x, y int) bool
	At(x, y int) *Tile
}

// NewGrid returns a size×size grid of unzoned grass.
func NewGrid(size int) *Grid {
	g := &Grid{GridSize: size, Rows: make([][]Tile, size)}
	for y := 0; y < size; y++ {
		row := make([]Tile, size)
		for x := 0; x < size; x++ {
			row[x] = NewTile(x, y, TypeGrass)
		}
		g.Rows[y] = row
	}
	return g
}

// Size returns the edge length.
func (g *Grid) Size() int { return g.GridSize }

// InBounds reports whether (x, y) is on the grid.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.GridSize && y < g.GridSize
}

// At returns the tile at (x, y). The pointer is read-only; callers that need
// to change a tile go through a Builder. Out-of-range access is a caller bug.
func (g *Grid) At(x, y int) *Tile {
	if !g.InBounds(x, y) {
		panic(fmt.Sprintf("city: tile (%d,%d) outside %dx%d grid", x, y, g.GridSize, g.GridSize))
	}
	return &g.Rows[y][x]
}

// Index flattens (x, y).
func (g *Grid) Index(x, y int) int { return y*g.GridSize + x }

// Builder produces the next grid from a source grid. Rows are cloned on first
// write; untouched rows stay shared with the source.
type Builder struct {
	src    *Grid
	out    *Grid
	owned  []bool
	cloned int
}

// NewBuilder starts a copy-on-write pass over src. src is never modified.
func NewBuilder(src *Grid) *Builder {
	out := &Grid{GridSize: src.GridSize, Rows: make([][]Tile, len(src.Rows))}
	copy(out.Rows, src.Rows)
	return &Builder{src: src, out: out, owned: make([]bool, len(src.Rows))}
}

// Size returns the edge length.
func (b *Builder) Size() int { return b.out.GridSize }

// InBounds reports whether (x, y) is on the grid.
func (b *Builder) InBounds(x, y int) bool { return b.out.InBounds(x, y) }

// At returns the current (possibly already rewritten) tile. Read-only.
func (b *Builder) At(x, y int) *Tile { return b.out.At(x, y) }

// Index flattens (x, y).
func (b *Builder) Index(x, y int) int { return b.out.Index(x, y) }

// Mut returns a writable tile, cloning its row on first use.
func (b *Builder) Mut(x, y int) *Tile {
	if !b.out.InBounds(x, y) {
		panic(fmt.Sprintf("city: write to (%d,%d) outside %dx%d grid", x, y, b.out.GridSize, b.out.GridSize))
	}
	if !b.owned[y] {
		b.out.Rows[y] = append([]Tile(nil), b.out.Rows[y]...)
		b.owned[y] = true
		b.cloned++
	}
	return &b.out.Rows[y][x]
}

// Set replaces the tile at (x, y) if it differs.
func (b *Builder) Set(x, y int, t Tile) {
	if *b.At(x, y) == t {
		return
	}
	*b.Mut(x, y) = t
}

// Changed reports whether any row was rewritten.
func (b *Builder) Changed() bool { return b.cloned > 0 }

// RowsCloned returns how many rows were copied.
func (b *Builder) RowsCloned() int { return b.cloned }

// Grid returns the result. If nothing changed it is the source grid itself.
func (b *Builder) Grid() *Grid {
	if b.cloned == 0 {
		return b.src
	}
	return b.out
}

// ChangedRows lists the rows of next that are not shared with prev. Grids
// produced by a Builder share untouched rows with their source, so this is a
// pointer comparison per row. Different sizes report every row.
func ChangedRows(prev, next *Grid) []int {
	var rows []int
	for y := range next.Rows {
		if prev == nil || prev.GridSize != next.GridSize || len(next.Rows[y]) == 0 ||
			&prev.Rows[y][0] != &next.Rows[y][0] {
			rows = append(rows, y)
		}
	}
	return rows
}
