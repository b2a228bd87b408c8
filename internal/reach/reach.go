// Package reach answers the zone-local road access question with a bounded
// breadth-first search. It is deliberately not a pathfinder: a contiguous
// block of one zone can develop from road frontage on its perimeter, and the
// hop bound keeps the cost per query small.
package reach

import "github.com/talgya/mini-city/internal/city"

// DefaultMaxDistance is the hop bound used by the tick.
const DefaultMaxDistance = 8

// Scratch is the caller-owned working memory for HasRoadAccess. Visited
// cells are tracked with a generation stamp so nothing is cleared between
// calls. A Scratch must not be shared between goroutines.
type Scratch struct {
	size  int
	stamp []uint32
	gen   uint32
	queue []int32
	dist  []uint8
}

// NewScratch allocates buffers for a size×size grid.
func NewScratch(size int) *Scratch {
	n := size * size
	return &Scratch{
		size:  size,
		stamp: make([]uint32, n),
		queue: make([]int32, n),
		dist:  make([]uint8, n),
	}
}

// Fits reports whether the scratch can serve a grid of the given size.
func (s *Scratch) Fits(size int) bool {
	return s != nil && s.size == size
}

func (s *Scratch) next() uint32 {
	s.gen++
	if s.gen == 0 {
		for i := range s.stamp {
			s.stamp[i] = 0
		}
		s.gen = 1
	}
	return s.gen
}

var dirs = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// HasRoadAccess reports whether a road or bridge lies within maxDistance hops
// of (x, y) along a 4-connected path of same-zone, non-water tiles.
func HasRoadAccess(v city.View, x, y, maxDistance int, sc *Scratch) bool {
	if !v.InBounds(x, y) || maxDistance < 1 {
		return false
	}
	size := v.Size()
	if !sc.Fits(size) {
		sc = NewScratch(size)
	}
	if maxDistance > 255 {
		maxDistance = 255
	}
	zone := v.At(x, y).Zone
	gen := sc.next()

	start := int32(y*size + x)
	sc.stamp[start] = gen
	sc.dist[start] = 0
	sc.queue[0] = start
	head, tail := 0, 1

	for head < tail {
		cur := sc.queue[head]
		head++
		cx, cy := int(cur)%size, int(cur)/size
		d := int(sc.dist[cur])

		for _, dir := range dirs {
			nx, ny := cx+dir[0], cy+dir[1]
			if nx < 0 || ny < 0 || nx >= size || ny >= size {
				continue
			}
			ni := int32(ny*size + nx)
			if sc.stamp[ni] == gen {
				continue
			}
			sc.stamp[ni] = gen
			t := v.At(nx, ny)
			if t.IsRoadLike() {
				return true
			}
			if d+1 >= maxDistance || t.IsWater() || t.Zone != zone {
				continue
			}
			sc.dist[ni] = uint8(d + 1)
			sc.queue[tail] = ni
			tail++
		}
	}
	return false
}

// AdjacentRoad reports whether any 4-neighbour of (x, y) is a road or bridge.
func AdjacentRoad(v city.View, x, y int) bool {
	for _, dir := range dirs {
		nx, ny := x+dir[0], y+dir[1]
		if v.InBounds(nx, ny) && v.At(nx, ny).IsRoadLike() {
			return true
		}
	}
	return false
}
