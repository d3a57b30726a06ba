package align

import "golang.org/x/exp/constraints"

// clamp bounds x to the closed interval [lo, hi].
func clamp[T constraints.Ordered](x, lo, hi T) T {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
