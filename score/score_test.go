package score

import (
	"math"
	"testing"

	"github.com/openxlink/xlinkid/config"
	"github.com/openxlink/xlinkid/xlink"
)

func TestPreScoreCrossLink(t *testing.T) {
	got := PreScore(3, 6, 2, 4, true)
	want := math.Sqrt((3.0 / 6.0) * (2.0 / 4.0))
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("PreScore = %v, want %v", got, want)
	}
}

func TestPreScoreMonoZeroIons(t *testing.T) {
	if got := PreScore(0, 0, 0, 0, false); got != 0 {
		t.Errorf("PreScore with zero ionsAlpha = %v, want 0", got)
	}
}

func TestPreScoreCrossLinkZeroBetaIonsReturnsZero(t *testing.T) {
	// A genuine CROSS candidate with zero theoretical beta ions must return
	// 0, not fall back to the single-chain MONO/LOOP form just because
	// ionsBeta == 0.
	if got := PreScore(3, 6, 0, 0, true); got != 0 {
		t.Errorf("PreScore with isCrossLink=true and zero ionsBeta = %v, want 0", got)
	}
}

func TestCumulativeBinomialClampsBelowOne(t *testing.T) {
	got := CumulativeBinomial(5, 5, 0.999999999999)
	if got >= 1.0 {
		t.Errorf("CumulativeBinomial = %v, want strictly < 1.0", got)
	}
}

func TestMatchOddsNonNegative(t *testing.T) {
	theoMZs := []float64{100, 150, 200, 250, 300}
	got := MatchOdds(theoMZs, 2, 20, config.PPM, 2)
	if got < 0 {
		t.Errorf("MatchOdds = %v, want >= 0", got)
	}
}

func TestWeightedTICMonoSynthesizesBetaChain(t *testing.T) {
	got := WeightedTIC(10, 0, 500, 0, 1000, false)
	if got <= 0 {
		t.Errorf("WeightedTIC for mono-link = %v, want > 0", got)
	}
}

func TestIntensitySumCountsEachObservedPeakOnce(t *testing.T) {
	observed := []xlink.Peak{{MZ: 100, Intensity: 10}, {MZ: 200, Intensity: 20}}
	got := IntensitySum(observed, []int{0, 0, 1})
	if got != 30 {
		t.Errorf("IntensitySum = %v, want 30 (each index counted once)", got)
	}
}

func TestPreScoreKnownValue(t *testing.T) {
	// 4/10 matched on alpha, 3/8 on beta: sqrt(0.4 * 0.375) = 0.3873.
	got := PreScore(4, 10, 3, 8, true)
	want := 0.3873
	if math.Abs(got-want) > 1e-4 {
		t.Errorf("PreScore(4,10,3,8) = %v, want %v", got, want)
	}
}

func TestMatchOddsKnownValue(t *testing.T) {
	// P(X < 5) for X ~ Binomial(20, 0.05): sum of the first five binomial
	// terms, 0.9974. The corresponding odds are -log(1 - 0.9974 + 1e-5).
	cum := CumulativeBinomial(20, 5, 0.05)
	if math.Abs(cum-0.9974) > 1e-3 {
		t.Errorf("CumulativeBinomial(20,5,0.05) = %v, want ~0.9974", cum)
	}
	got := -math.Log(1 - cum + 1e-5)
	if math.Abs(got-5.958) > 1e-2 {
		t.Errorf("match-odds = %v, want ~5.958", got)
	}
}

func TestCompositeWeightsAllFiveSubscores(t *testing.T) {
	weights := config.DefaultScoreWeights()
	sc := xlink.SubScores{XCorrX: 1, XCorrC: 1, MatchOdds: 1, WTIC: 1, IntSum: 1}
	got := Composite(sc, weights)
	want := weights.XCorrX + weights.XCorrC + weights.MatchOdds + weights.WTIC + weights.IntSum
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Composite = %v, want %v", got, want)
	}
}

func TestTopKOrdersDescendingAndTruncates(t *testing.T) {
	matches := []xlink.MatchRecord{
		{AlphaSequence: "A", Composite: 1.0},
		{AlphaSequence: "B", Composite: 3.0},
		{AlphaSequence: "C", Composite: 2.0},
	}
	top := TopK(matches, 2)
	if len(top) != 2 {
		t.Fatalf("len(top) = %d, want 2", len(top))
	}
	if top[0].AlphaSequence != "B" || top[1].AlphaSequence != "C" {
		t.Errorf("TopK order = %v, %v; want B, C", top[0].AlphaSequence, top[1].AlphaSequence)
	}
}
