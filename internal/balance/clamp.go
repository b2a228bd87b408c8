package balance

import "golang.org/x/exp/constraints"

// Clamp bounds v to [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp moves from toward to by the fraction t.
func Lerp[T constraints.Float](from, to, t T) T {
	return from + (to-from)*t
}
