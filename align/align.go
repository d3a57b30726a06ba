/*
Package align matches a theoretical fragment spectrum against an observed
one. Three modes are offered: a banded dynamic-programming alignment for
absolute (Dalton) tolerances, a nearest-neighbor binary search for
relative (ppm) tolerances, and a greedy intensity-weighted alignment used
to prepare cross-correlation inputs.
*/
package align

import (
	"errors"
	"sort"

	"github.com/openxlink/xlinkid/xlerr"
	"github.com/openxlink/xlinkid/xlink"
)

var errUnsorted = errors.New("align: input peaks not sorted by m/z")

// Match is one (theoretical, observed) matched-peak index pair.
type Match struct {
	TheoreticalIndex int
	ObservedIndex    int
}

// Options configures a single aligner invocation.
type Options struct {
	Tolerance       float64 // Da window (already converted from ppm if needed)
	IntensityCutoff float64 // min(i,j)/max(i,j) must be >= this to accept a match
	RequireCharge   bool    // when true, charge annotations must agree (0 = wildcard)
}

func chargeCompatible(a, b int, require bool) bool {
	if !require {
		return true
	}
	if a == 0 || b == 0 {
		return true
	}
	return a == b
}

// intensityOK applies the min/max intensity-ratio cutoff. A zero
// intensity marks an unannotated peak (theoretical spectra carry no
// measured intensity); the ratio test only applies when both peaks carry
// one.
func intensityOK(a, b, cutoff float64) bool {
	if a == 0 || b == 0 {
		return true
	}
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo/hi >= cutoff
}

// Banded performs the absolute-tolerance (Da) alignment mode: a
// dynamic-programming cost matrix with gap cost equal to the tolerance,
// banded so cells far outside any plausible match window are skipped.
//
// theoretical and observed must each be sorted ascending by m/z.
func Banded(theoretical []xlink.TheoreticalPeak, observed []xlink.Peak, opts Options) ([]Match, error) {
	if !sortedTheoretical(theoretical) || !sortedObserved(observed) {
		return nil, xlerr.New(xlerr.InvalidInput, "align.Banded", errUnsorted)
	}
	m, n := len(theoretical), len(observed)
	if m == 0 || n == 0 {
		return nil, nil
	}

	const inf = 1e18
	cost := make([][]float64, m+1)
	for i := range cost {
		cost[i] = make([]float64, n+1)
	}
	for i := 1; i <= m; i++ {
		cost[i][0] = cost[i-1][0] + opts.Tolerance
	}
	for j := 1; j <= n; j++ {
		cost[0][j] = cost[0][j-1] + opts.Tolerance
	}

	// left and right bound the band of observed indices worth considering
	// for each theoretical row: the left frontier advances once the
	// observed m/z falls more than tolerance behind the theoretical, and
	// the right frontier stops once the observed m/z leads by more than
	// tolerance.
	left := 1
	for i := 1; i <= m; i++ {
		theoMZ := theoretical[i-1].MZ
		for left <= n && observed[left-1].MZ < theoMZ-opts.Tolerance {
			left++
		}
		right := left
		for right <= n && observed[right-1].MZ <= theoMZ+opts.Tolerance {
			right++
		}
		if right < n && observed[right-1].MZ-theoMZ <= opts.Tolerance {
			right++
		}
		right = clamp(right, left, n)

		lo := clamp(left-1, 1, n)
		for j := 1; j <= n; j++ {
			if j < lo || j > right+1 {
				cost[i][j] = cost[i][j-1] + opts.Tolerance
				if skip := cost[i-1][j] + opts.Tolerance; skip < cost[i][j] {
					cost[i][j] = skip
				}
				continue
			}

			diag := inf
			if withinBand(theoretical[i-1], observed[j-1], opts) {
				diag = cost[i-1][j-1] + absDiff(theoretical[i-1].MZ, observed[j-1].MZ)
			}
			skipTheo := cost[i-1][j] + opts.Tolerance
			skipObs := cost[i][j-1] + opts.Tolerance

			best := skipTheo
			if skipObs < best {
				best = skipObs
			}
			if diag < best {
				best = diag
			}
			cost[i][j] = best
		}
	}

	var matches []Match
	i, j := m, n
	for i > 0 && j > 0 {
		switch {
		case withinBand(theoretical[i-1], observed[j-1], opts) &&
			cost[i][j] == cost[i-1][j-1]+absDiff(theoretical[i-1].MZ, observed[j-1].MZ):
			matches = append(matches, Match{TheoreticalIndex: i - 1, ObservedIndex: j - 1})
			i--
			j--
		case cost[i][j] == cost[i-1][j]+opts.Tolerance:
			i--
		default:
			j--
		}
	}
	reverseMatches(matches)
	return matches, nil
}

// Nearest performs the relative-tolerance (ppm) alignment mode: for each
// theoretical peak, binary search for the nearest observed peak and accept
// it if within tolerance and intensity ratio. On an intensity-ratio
// rejection, the theoretical index backs up by one so the observed peak
// remains available to an adjacent theoretical peak.
func Nearest(theoretical []xlink.TheoreticalPeak, observed []xlink.Peak, tolerancePPM float64, intensityCutoff float64) ([]Match, error) {
	if !sortedTheoretical(theoretical) || !sortedObserved(observed) {
		return nil, xlerr.New(xlerr.InvalidInput, "align.Nearest", errUnsorted)
	}
	var matches []Match
	consumed := make(map[int]bool)

	backedUp := make([]bool, len(theoretical))
	for i := 0; i < len(theoretical); i++ {
		theoMZ := theoretical[i].MZ
		tol := theoMZ * tolerancePPM * 1e-6
		idx := nearestObservedIndex(observed, theoMZ, consumed)
		if idx < 0 {
			continue
		}
		if absDiff(observed[idx].MZ, theoMZ) > tol {
			continue
		}
		if !intensityOK(theoretical[i].Intensity, observed[idx].Intensity, intensityCutoff) {
			// back up so i-1 (after the loop's i++) retries with this
			// observed peak still free, at most once per position
			if i > 0 && !backedUp[i] {
				backedUp[i] = true
				i -= 2
			}
			continue
		}
		matches = append(matches, Match{TheoreticalIndex: i, ObservedIndex: idx})
		consumed[idx] = true
	}
	return matches, nil
}

func nearestObservedIndex(observed []xlink.Peak, mz float64, consumed map[int]bool) int {
	idx := sort.Search(len(observed), func(k int) bool { return observed[k].MZ >= mz })
	best, bestDist := -1, 1e18
	for _, cand := range []int{idx - 1, idx, idx + 1} {
		if cand < 0 || cand >= len(observed) || consumed[cand] {
			continue
		}
		d := absDiff(observed[cand].MZ, mz)
		if d < bestDist {
			best, bestDist = cand, d
		}
	}
	return best
}

// Weighted performs the intensity-weighted greedy alignment used to
// prepare the cross-correlation inputs: theoretical peaks are visited in
// descending intensity order, and each claims the most intense unclaimed
// observed peak within tolerance whose intensity ratio clears the cutoff.
func Weighted(theoretical []xlink.TheoreticalPeak, observed []xlink.Peak, opts Options) ([]Match, error) {
	if !sortedTheoretical(theoretical) || !sortedObserved(observed) {
		return nil, xlerr.New(xlerr.InvalidInput, "align.Weighted", errUnsorted)
	}

	order := make([]int, len(theoretical))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return theoretical[order[a]].Intensity > theoretical[order[b]].Intensity
	})

	consumed := make(map[int]bool, len(observed))
	var matches []Match
	for _, ti := range order {
		t := theoretical[ti]
		lo := sort.Search(len(observed), func(k int) bool { return observed[k].MZ >= t.MZ-opts.Tolerance })
		best, bestIntensity := -1, -1.0
		for j := lo; j < len(observed) && observed[j].MZ <= t.MZ+opts.Tolerance; j++ {
			if consumed[j] {
				continue
			}
			if !intensityOK(t.Intensity, observed[j].Intensity, opts.IntensityCutoff) {
				continue
			}
			if observed[j].Intensity > bestIntensity {
				best, bestIntensity = j, observed[j].Intensity
			}
		}
		if best >= 0 {
			matches = append(matches, Match{TheoreticalIndex: ti, ObservedIndex: best})
			consumed[best] = true
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].TheoreticalIndex < matches[j].TheoreticalIndex })
	return matches, nil
}

func withinBand(t xlink.TheoreticalPeak, o xlink.Peak, opts Options) bool {
	if absDiff(t.MZ, o.MZ) >= opts.Tolerance {
		return false
	}
	if !intensityOK(t.Intensity, o.Intensity, opts.IntensityCutoff) {
		return false
	}
	return chargeCompatible(t.Charge, o.Charge, opts.RequireCharge)
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}

func sortedTheoretical(peaks []xlink.TheoreticalPeak) bool {
	return sort.SliceIsSorted(peaks, func(i, j int) bool { return peaks[i].MZ < peaks[j].MZ })
}

func sortedObserved(peaks []xlink.Peak) bool {
	return sort.SliceIsSorted(peaks, func(i, j int) bool { return peaks[i].MZ < peaks[j].MZ })
}

func reverseMatches(m []Match) {
	for i, j := 0, len(m)-1; i < j; i, j = i+1, j-1 {
		m[i], m[j] = m[j], m[i]
	}
}
