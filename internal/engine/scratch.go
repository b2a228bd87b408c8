package engine

import (
	"github.com/talgya/mini-city/internal/city"
	"github.com/talgya/mini-city/internal/reach"
)

// Scratch is caller-owned working memory for SimulateTick. One Scratch may
// serve any number of sequential ticks but never two at once.
type Scratch struct {
	size    int
	Reach   *reach.Scratch
	kinds   []city.Kind
	touched []bool
}

// NewScratch sizes working memory for a size×size grid.
func NewScratch(size int) *Scratch {
	n := size * size
	return &Scratch{
		size:    size,
		Reach:   reach.NewScratch(size),
		kinds:   make([]city.Kind, n),
		touched: make([]bool, n),
	}
}

// prepare classifies every tile of g once and clears the touched set,
// reallocating if the grid size changed since the last tick.
func (sc *Scratch) prepare(g *city.Grid) {
	size := g.Size()
	if sc.size != size || sc.Reach == nil {
		*sc = *NewScratch(size)
	}
	clear(sc.touched)
	for y := 0; y < size; y++ {
		row := g.Rows[y]
		for x := range row {
			sc.kinds[y*size+x] = row[x].Kind()
		}
	}
}

// touch marks every cell of r as rewritten this tick.
func (sc *Scratch) touch(r city.Rect) {
	for y := r.Y; y < r.Y+r.H; y++ {
		if y < 0 || y >= sc.size {
			continue
		}
		for x := r.X; x < r.X+r.W; x++ {
			if x < 0 || x >= sc.size {
				continue
			}
			sc.touched[y*sc.size+x] = true
		}
	}
}
