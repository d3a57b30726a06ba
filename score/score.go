/*
Package score computes the sub-scores of a cross-link candidate against an
observed spectrum (pre-score, match-odds, weighted TIC, intensity sum, and
the common/cross-link cross-correlations) and the composite ranking score,
which weights every sub-score except the pre-score.
*/
package score

import (
	"math"
	"sort"

	"github.com/openxlink/xlinkid/config"
	"github.com/openxlink/xlinkid/xlink"
)

// maxDigestLength and minDigestLength are the fixed peptide-length bounds
// weighted TIC uses to synthesize a beta-chain length for MONO/LOOP
// candidates, which have no real second chain.
const (
	maxDigestLength = 50.0
	minDigestLength = 5.0
)

// PreScore is the fraction of theoretical peaks matched: the geometric
// mean of the two chains' fractions for CROSS, the single alpha fraction
// for MONO/LOOP. The form is selected by isCrossLink rather than inferred
// from ionsBeta: a genuine CROSS candidate whose beta chain has zero
// theoretical ions must return 0, not silently fall back to the
// single-chain form.
func PreScore(matchedAlpha, ionsAlpha, matchedBeta, ionsBeta int, isCrossLink bool) float64 {
	if !isCrossLink {
		if ionsAlpha == 0 {
			return 0
		}
		return float64(matchedAlpha) / float64(ionsAlpha)
	}
	if ionsAlpha == 0 || ionsBeta == 0 {
		return 0
	}
	return math.Sqrt((float64(matchedAlpha) / float64(ionsAlpha)) * (float64(matchedBeta) / float64(ionsBeta)))
}

// CumulativeBinomial is the standard binomial CDF P(X < k), clamped to the
// largest representable value strictly below 1.0 when numerical error
// pushes the sum to or past 1, mirroring nexttoward(1.0, 0.0).
func CumulativeBinomial(n, k int, p float64) float64 {
	if p < 1e-99 {
		if k == 0 {
			return 1
		}
		return 0
	}
	if 1-p < 1e-99 {
		if k != n {
			return 1
		}
		return 0
	}
	if k > n {
		return 1
	}

	var cumulative float64
	for j := 0; j < k; j++ {
		cumulative += binomialCoefficient(n, j) * math.Pow(p, float64(j)) * math.Pow(1-p, float64(n-j))
	}
	if cumulative >= 1.0 {
		cumulative = math.Nextafter(1.0, 0.0)
	}
	return cumulative
}

func binomialCoefficient(n, k int) float64 {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	result := 1.0
	for i := 0; i < k; i++ {
		result *= float64(n-i) / float64(i+1)
	}
	return result
}

// MatchOdds is −log(1 − CumBinom(n_theo, n_matched, p) + 1e-5), clipped to
// 0 when negative. chargeDivisor is n_charges for cross-link ions; pass 1
// for common ions, which have no charge divisor in the original formula.
func MatchOdds(theoreticalMZs []float64, matchedCount int, fragmentTolerance float64, unit config.ToleranceUnit, chargeDivisor int) float64 {
	theoSize := len(theoreticalMZs)
	if theoSize == 0 {
		return 0
	}
	theoRange := theoreticalMZs[theoSize-1] - theoreticalMZs[0]
	if theoRange <= 0 {
		return 0
	}

	var sum float64
	for _, mz := range theoreticalMZs {
		sum += mz
	}
	mean := sum / float64(theoSize)
	toleranceTh := config.ToleranceDalton(mean, fragmentTolerance, unit)

	if chargeDivisor < 1 {
		chargeDivisor = 1
	}
	exponent := float64(theoSize) / float64(chargeDivisor)
	base := 1 - 2*toleranceTh/(0.5*theoRange)
	if base < 0 {
		base = 0
	}
	aPrioriP := 1 - math.Pow(base, exponent)

	matchOdds := -math.Log(1 - CumulativeBinomial(theoSize, matchedCount, aPrioriP) + 1e-5)
	if matchOdds < 0 {
		return 0
	}
	return matchOdds
}

// WeightedTIC is the weighted-total-ion-current score. For MONO/LOOP
// candidates (isCrossLink == false) the beta chain is synthetic: its
// length is (maxDigestLength + minDigestLength − alphaSize) and it
// contributes zero matched intensity.
func WeightedTIC(alphaSize, betaSize int, intensitySumAlpha, intensitySumBeta, totalCurrent float64, isCrossLink bool) float64 {
	if totalCurrent == 0 {
		return 0
	}
	if !isCrossLink {
		betaSize = int(maxDigestLength+minDigestLength) - alphaSize
		intensitySumBeta = 0
	}

	aaTotal := float64(alphaSize + betaSize)
	if aaTotal == 0 {
		return 0
	}

	invMax := 1 / (minDigestLength / (minDigestLength + maxDigestLength))
	invFracAlpha := 1 / (float64(alphaSize) / aaTotal)
	invFracBeta := 1 / (float64(betaSize) / aaTotal)
	weightAlpha := invFracAlpha / invMax
	weightBeta := invFracBeta / invMax

	return weightAlpha*(intensitySumAlpha/totalCurrent) + weightBeta*(intensitySumBeta/totalCurrent)
}

// IntensitySum sums the observed intensities at every matched index,
// counting each observed peak once even if it was matched by several
// theoretical ions (e.g. by both ion classes).
func IntensitySum(observed []xlink.Peak, matchedObservedIndices []int) float64 {
	unique := make(map[int]bool, len(matchedObservedIndices))
	for _, idx := range matchedObservedIndices {
		unique[idx] = true
	}
	var sum float64
	for idx := range unique {
		sum += observed[idx].Intensity
	}
	return sum
}

// CrossCorrelation builds constant-bin-width intensity vectors (bin width =
// toleranceDa) over m/z from 0 up to the larger of the observed and
// theoretical maxima, and returns the sum of Pearson correlations across
// shifts [-5, +5] bins, normalized by the spectrum's own auto-correlation
// sum, computed once via AutoCorrSum and passed in.
func CrossCorrelation(observed []xlink.Peak, theoretical []xlink.TheoreticalPeak, toleranceDa float64, autoCorrSum float64) float64 {
	if len(observed) == 0 || len(theoretical) == 0 || toleranceDa <= 0 {
		return 0
	}

	maxMZ := observed[len(observed)-1].MZ
	if theoretical[len(theoretical)-1].MZ > maxMZ {
		maxMZ = theoretical[len(theoretical)-1].MZ
	}
	tableSize := int(math.Ceil(maxMZ/toleranceDa)) + 2

	obsTable := make([]float64, tableSize)
	for _, p := range observed {
		bin := int(math.Ceil(p.MZ / toleranceDa))
		if bin >= 0 && bin < tableSize {
			obsTable[bin] += p.Intensity
		}
	}
	theoTable := make([]float64, tableSize)
	for _, p := range theoretical {
		bin := int(math.Ceil(p.MZ / toleranceDa))
		if bin >= 0 && bin < tableSize {
			theoTable[bin] += p.Intensity
		}
	}

	if autoCorrSum <= 0 {
		return 0
	}

	const maxShift = 5
	var total float64
	for shift := -maxShift; shift <= maxShift; shift++ {
		total += shiftedPearson(obsTable, theoTable, shift)
	}
	return total / autoCorrSum
}

// AutoCorrSum computes the same shifted-correlation sum of the observed
// spectrum against itself, the denominator CrossCorrelation normalizes by.
// It depends only on the spectrum, so compute it once and reuse it across
// every candidate.
func AutoCorrSum(observed []xlink.Peak, toleranceDa float64) float64 {
	if len(observed) == 0 || toleranceDa <= 0 {
		return 0
	}
	maxMZ := observed[len(observed)-1].MZ
	tableSize := int(math.Ceil(maxMZ/toleranceDa)) + 2
	table := make([]float64, tableSize)
	for _, p := range observed {
		bin := int(math.Ceil(p.MZ / toleranceDa))
		if bin >= 0 && bin < tableSize {
			table[bin] += p.Intensity
		}
	}
	const maxShift = 5
	var total float64
	for shift := -maxShift; shift <= maxShift; shift++ {
		total += shiftedPearson(table, table, shift)
	}
	return total
}

// shiftedPearson is the Pearson correlation between a and b shifted by
// shift bins, over the overlapping bins; 0 when either side has no
// variance there.
func shiftedPearson(a, b []float64, shift int) float64 {
	meanA := mean(a)
	meanB := mean(b)
	var sum, varA, varB float64
	for i := range a {
		j := i + shift
		if j < 0 || j >= len(b) {
			continue
		}
		da, db := a[i]-meanA, b[j]-meanB
		sum += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}
	return sum / math.Sqrt(varA*varB)
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

// Composite combines the five sub-scores with the configured weights.
// sc.PreScore is informational and does not enter the composite.
func Composite(sc xlink.SubScores, weights config.ScoreWeights) float64 {
	return weights.XCorrX*sc.XCorrX +
		weights.XCorrC*sc.XCorrC +
		weights.MatchOdds*sc.MatchOdds +
		weights.WTIC*sc.WTIC +
		weights.IntSum*sc.IntSum
}

// TopK selects the best-scoring k matches: rank 1 is the best, ties
// broken by insertion order (earlier index wins).
func TopK(matches []xlink.MatchRecord, k int) []xlink.MatchRecord {
	if k <= 0 || k >= len(matches) {
		sorted := append([]xlink.MatchRecord{}, matches...)
		stableSortByCompositeDesc(sorted)
		return sorted
	}

	remaining := append([]xlink.MatchRecord{}, matches...)
	stableSortByCompositeDesc(remaining)
	return remaining[:k]
}

func stableSortByCompositeDesc(matches []xlink.MatchRecord) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Composite > matches[j].Composite
	})
}
