/*
Package pipeline drives the worker pool that carries each observed
spectrum through its processing stages: precursor filtering, candidate
enumeration, scoring, and ranking. Cancellation is cooperative and
checked only at spectrum boundaries; progress is reported via atomic
counters safe to read while a run is in flight.
*/
package pipeline

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/openxlink/xlinkid/align"
	"github.com/openxlink/xlinkid/candidate"
	"github.com/openxlink/xlinkid/config"
	"github.com/openxlink/xlinkid/fragment"
	"github.com/openxlink/xlinkid/precursor"
	"github.com/openxlink/xlinkid/score"
	"github.com/openxlink/xlinkid/xlerr"
	"github.com/openxlink/xlinkid/xlink"
)

// Progress is a point-in-time snapshot of the run, safe to read
// concurrently with Run via atomic loads.
type Progress struct {
	SpectraProcessed int64
	SpectraTotal     int64
	SpectraSkipped   int64
}

// Runner owns the shared read-only tables (peptides, cross-link species)
// and schedules one worker goroutine per logical slot, bounded by
// cfg.NumWorkers.
type Runner struct {
	Peptides []xlink.Peptide
	Species  []xlink.CrossLinkSpecies
	Config   config.Config
	Logger   *slog.Logger

	processed atomic.Int64
	skipped   atomic.Int64
	total     atomic.Int64
}

// NewRunner builds a Runner with the fully enumerated, precursor-filtered
// species list already in hand (produced once from the combined precursor
// mass list of every observed spectrum, then shared read-only across
// workers).
func NewRunner(peptides []xlink.Peptide, species []xlink.CrossLinkSpecies, cfg config.Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{Peptides: peptides, Species: species, Config: cfg, Logger: logger}
}

// Progress returns a snapshot safe to call from any goroutine while Run is
// in flight.
func (r *Runner) Progress() Progress {
	return Progress{
		SpectraProcessed: r.processed.Load(),
		SpectraTotal:     r.total.Load(),
		SpectraSkipped:   r.skipped.Load(),
	}
}

// Run processes every observed spectrum through the full state machine and
// returns results reassembled in input order, regardless of which worker
// finished first: each worker tags its result with the spectrum's
// original index.
//
// Cancellation is cooperative at spectrum boundaries only: ctx is checked
// once per spectrum dequeue, never inside the scoring loop for a single
// spectrum.
func (r *Runner) Run(ctx context.Context, spectra []xlink.ObservedSpectrum) []xlink.SpectrumResult {
	r.total.Store(int64(len(spectra)))

	numWorkers := r.Config.NumWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	if numWorkers > len(spectra) && len(spectra) > 0 {
		numWorkers = len(spectra)
	}

	type job struct {
		index    int
		spectrum xlink.ObservedSpectrum
	}
	jobs := make(chan job, len(spectra))
	for i, sp := range spectra {
		jobs <- job{index: i, spectrum: sp}
	}
	close(jobs)

	results := make([]xlink.SpectrumResult, len(spectra))
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				select {
				case <-ctx.Done():
					r.skipped.Add(1)
					results[j.index] = xlink.SpectrumResult{SpectrumIndex: j.index, NativeID: j.spectrum.NativeID}
					continue
				default:
				}

				results[j.index] = r.processSpectrum(j.index, j.spectrum)
				r.processed.Add(1)
			}
		}()
	}
	wg.Wait()

	return results
}

// processSpectrum carries one spectrum through FILTERED → ENUMERATED →
// SCORED → RANKED. A FILTERED-stage rejection or an aligner InvalidInput
// error yields an empty result, never a panic or abort of the whole run.
func (r *Runner) processSpectrum(index int, spectrum xlink.ObservedSpectrum) xlink.SpectrumResult {
	result := xlink.SpectrumResult{SpectrumIndex: index, NativeID: spectrum.NativeID}

	if len(spectrum.Peaks) < 2*r.Config.MinPeptideSize {
		return result
	}
	if spectrum.Precursor.Charge < r.Config.MinPrecursorCharge || spectrum.Precursor.Charge > r.Config.MaxPrecursorCharge {
		return result
	}
	if !spectrum.Sorted() {
		r.Logger.Error("observed spectrum not sorted by m/z, skipping",
			"native_id", spectrum.NativeID, "error", xlerr.New(xlerr.InvalidInput, "pipeline.processSpectrum", nil))
		return result
	}

	candidates := r.enumerateCandidatesForPrecursor(spectrum.Precursor.Mass)
	if len(candidates) == 0 {
		return result
	}

	autoCorr := score.AutoCorrSum(spectrum.Peaks, fragmentToleranceDa(r.Config, spectrum.Precursor.Mass))

	var matches []xlink.MatchRecord
	for _, cand := range candidates {
		record, ok := r.scoreCandidate(cand, spectrum, autoCorr)
		if !ok {
			continue
		}
		matches = append(matches, record)
	}

	ranked := score.TopK(matches, r.Config.TopK)
	result.Matches = ranked
	return result
}

// enumerateCandidatesForPrecursor narrows the shared species table to the
// species matching this spectrum's precursor mass, then expands to
// concrete anchor-site candidates. In a larger deployment this filter
// would use the same binary-search membership test as the Precursor
// Enumerator; here it simply re-checks membership against the one
// precursor mass this spectrum carries.
func (r *Runner) enumerateCandidatesForPrecursor(precursorMass float64) []xlink.CrossLinkCandidate {
	var matching []xlink.CrossLinkSpecies
	for _, sp := range r.Species {
		tol := config.ToleranceDalton(sp.Mass, r.Config.PrecursorTolerance, r.Config.PrecursorToleranceUnit)
		if absDiff(sp.Mass, precursorMass) <= tol {
			matching = append(matching, sp)
		}
	}
	if len(matching) == 0 {
		return nil
	}
	return candidate.Build(matching, r.Peptides, r.Config)
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}

func fragmentToleranceDa(cfg config.Config, referenceMass float64) float64 {
	return config.ToleranceDalton(referenceMass, cfg.FragmentTolerance, cfg.FragmentToleranceUnit)
}

// scoreCandidate generates the theoretical spectrum, aligns it against the
// observed peaks, and computes every sub-score. It returns ok == false for
// a candidate whose theoretical common or cross-link spectrum is empty
// (e.g. a loop-link spanning the entire peptide), which is skipped with
// no penalty.
func (r *Runner) scoreCandidate(cand xlink.CrossLinkCandidate, spectrum xlink.ObservedSpectrum, autoCorr float64) (xlink.MatchRecord, bool) {
	alpha := r.Peptides[cand.Species.AlphaIndex]
	var beta xlink.Peptide
	if cand.Species.BetaIndex >= 0 {
		beta = r.Peptides[cand.Species.BetaIndex]
	}

	theo := fragment.Generate(cand, alpha, beta, spectrum.Precursor.Charge, r.Config.FragmentOptions)

	// Common and cross-link ions are aligned separately so each class
	// gets its own fragment tolerance.
	commonTheo, commonIdx := peaksOfClass(theo, xlink.Common)
	xlinkTheo, xlinkIdx := peaksOfClass(theo, xlink.XLink)
	if len(commonTheo) == 0 || len(xlinkTheo) == 0 {
		return xlink.MatchRecord{}, false
	}

	matchesCommon, err := r.alignFragments(commonTheo, commonIdx, spectrum, r.Config.FragmentTolerance)
	if err != nil {
		r.Logger.Error("aligner rejected candidate", "native_id", spectrum.NativeID, "error", err)
		return xlink.MatchRecord{}, false
	}
	matchesXLink, err := r.alignFragments(xlinkTheo, xlinkIdx, spectrum, r.Config.FragmentToleranceXLinks)
	if err != nil {
		r.Logger.Error("aligner rejected candidate", "native_id", spectrum.NativeID, "error", err)
		return xlink.MatchRecord{}, false
	}
	matches := append(matchesCommon, matchesXLink...)
	if len(matches) == 0 {
		return xlink.MatchRecord{}, false
	}

	counts, annotations, matchedObservedIdx := tallyMatches(theo, spectrum.Peaks, matches)

	isCrossLink := cand.Species.Kind == xlink.Cross
	preScore := score.PreScore(
		counts.CommonAlphaMatched+counts.XLinkAlphaMatched, counts.CommonAlphaTheoretical+counts.XLinkAlphaTheoretical,
		counts.CommonBetaMatched+counts.XLinkBetaMatched, counts.CommonBetaTheoretical+counts.XLinkBetaTheoretical,
		isCrossLink,
	)

	// cross-link ions are generated at charges 1..pc-1, or 2..pc-1 for CROSS
	xlinkCharges := spectrum.Precursor.Charge - 1
	if isCrossLink {
		xlinkCharges--
	}
	matchOddsXLink := score.MatchOdds(theoMZs(theo, xlink.XLink), counts.XLinkAlphaMatched+counts.XLinkBetaMatched, r.Config.FragmentToleranceXLinks, r.Config.FragmentToleranceUnit, xlinkCharges)
	matchOddsCommon := score.MatchOdds(theoMZs(theo, xlink.Common), counts.CommonAlphaMatched+counts.CommonBetaMatched, r.Config.FragmentTolerance, r.Config.FragmentToleranceUnit, 1)

	intensitySum := score.IntensitySum(spectrum.Peaks, matchedObservedIdx)
	wtic := score.WeightedTIC(len(alpha.Sequence), len(beta.Sequence), intensitySumForChain(spectrum, theo, matches, fragment.ChainAlpha), intensitySumForChain(spectrum, theo, matches, fragment.ChainBeta), spectrum.TotalIonCurrent(), isCrossLink)

	toleranceDa := fragmentToleranceDa(r.Config, spectrum.Precursor.Mass)
	xcorrC := score.CrossCorrelation(spectrum.Peaks, commonTheo, toleranceDa, autoCorr)
	xcorrX := score.CrossCorrelation(spectrum.Peaks, xlinkTheo, toleranceDa, autoCorr)

	subScores := xlink.SubScores{
		PreScore:  preScore,
		MatchOdds: matchOddsXLink + matchOddsCommon,
		WTIC:      wtic,
		IntSum:    intensitySum,
		XCorrC:    xcorrC,
		XCorrX:    xcorrX,
	}

	record := xlink.MatchRecord{
		AlphaSequence: alpha.Sequence,
		PosAlpha:      cand.PosAlpha,
		LinkerMass:    cand.Species.LinkerMass,
		Kind:          cand.Species.Kind,
		Composite:     score.Composite(subScores, r.Config.Weights),
		Scores:        subScores,
		Counts:        counts,
		Annotations:   annotations,
	}
	switch cand.Species.Kind {
	case xlink.Cross:
		record.BetaSequence = beta.Sequence
		record.PosBeta = cand.PosBeta
	case xlink.Loop:
		record.PosBeta = cand.PosBeta
	}
	record.Fingerprint = xlink.Fingerprint(record, r.Config.HashAlgorithm)
	return record, true
}

func theoMZs(spec xlink.TheoreticalSpectrum, class xlink.IonClass) []float64 {
	var out []float64
	for _, p := range spec.Peaks {
		if p.Class == class {
			out = append(out, p.MZ)
		}
	}
	sort.Float64s(out)
	return out
}

// peaksOfClass extracts one ion class from a theoretical spectrum along
// with each extracted peak's index in the full spectrum, so per-class
// alignment results can be mapped back.
func peaksOfClass(spec xlink.TheoreticalSpectrum, class xlink.IonClass) ([]xlink.TheoreticalPeak, []int) {
	var out []xlink.TheoreticalPeak
	var idx []int
	for i, p := range spec.Peaks {
		if p.Class == class {
			out = append(out, p)
			idx = append(idx, i)
		}
	}
	return out, idx
}

// alignFragments aligns one ion class against the observed peaks in the
// mode the fragment tolerance unit selects (nearest-neighbor for ppm,
// banded dynamic programming for Dalton), then remaps the returned
// theoretical indices into the full theoretical spectrum.
func (r *Runner) alignFragments(peaks []xlink.TheoreticalPeak, idx []int, spectrum xlink.ObservedSpectrum, tol float64) ([]align.Match, error) {
	if len(peaks) == 0 {
		return nil, nil
	}
	var matches []align.Match
	var err error
	if r.Config.FragmentToleranceUnit == config.PPM {
		matches, err = align.Nearest(peaks, spectrum.Peaks, tol, r.Config.IntensityCutoff)
	} else {
		matches, err = align.Banded(peaks, spectrum.Peaks, align.Options{
			Tolerance:       tol,
			IntensityCutoff: r.Config.IntensityCutoff,
		})
	}
	if err != nil {
		return nil, err
	}
	for i := range matches {
		matches[i].TheoreticalIndex = idx[matches[i].TheoreticalIndex]
	}
	return matches, nil
}

func tallyMatches(theo xlink.TheoreticalSpectrum, observed []xlink.Peak, matches []align.Match) (xlink.MatchedCounts, []xlink.FragmentAnnotation, []int) {
	var counts xlink.MatchedCounts
	for _, p := range theo.Peaks {
		switch {
		case p.Class == xlink.Common && p.Chain == fragment.ChainAlpha:
			counts.CommonAlphaTheoretical++
		case p.Class == xlink.Common && p.Chain == fragment.ChainBeta:
			counts.CommonBetaTheoretical++
		case p.Class == xlink.XLink && p.Chain == fragment.ChainAlpha:
			counts.XLinkAlphaTheoretical++
		case p.Class == xlink.XLink && p.Chain == fragment.ChainBeta:
			counts.XLinkBetaTheoretical++
		}
	}

	annotations := make([]xlink.FragmentAnnotation, 0, len(matches))
	matchedObservedIdx := make([]int, 0, len(matches))
	for _, m := range matches {
		t := theo.Peaks[m.TheoreticalIndex]
		o := observed[m.ObservedIndex]
		switch {
		case t.Class == xlink.Common && t.Chain == fragment.ChainAlpha:
			counts.CommonAlphaMatched++
		case t.Class == xlink.Common && t.Chain == fragment.ChainBeta:
			counts.CommonBetaMatched++
		case t.Class == xlink.XLink && t.Chain == fragment.ChainAlpha:
			counts.XLinkAlphaMatched++
		case t.Class == xlink.XLink && t.Chain == fragment.ChainBeta:
			counts.XLinkBetaMatched++
		}
		annotations = append(annotations, xlink.FragmentAnnotation{
			ObservedMZ:        o.MZ,
			ObservedIntensity: o.Intensity,
			Label:             t.Label,
			Charge:            t.Charge,
			Class:             t.Class,
		})
		matchedObservedIdx = append(matchedObservedIdx, m.ObservedIndex)
	}
	return counts, annotations, matchedObservedIdx
}

// intensitySumForChain sums observed intensities of peaks matched to
// theoretical ions belonging to the given chain, used to split intensity
// between alpha and beta for the weighted-TIC sub-score.
func intensitySumForChain(spectrum xlink.ObservedSpectrum, theo xlink.TheoreticalSpectrum, matches []align.Match, chain int) float64 {
	var sum float64
	for _, m := range matches {
		if theo.Peaks[m.TheoreticalIndex].Chain == chain {
			sum += spectrum.Peaks[m.ObservedIndex].Intensity
		}
	}
	return sum
}

// PrecursorMasses extracts the sorted precursor neutral masses from a
// spectrum set, the input precursor.Enumerate expects.
func PrecursorMasses(spectra []xlink.ObservedSpectrum) []float64 {
	masses := make([]float64, len(spectra))
	for i, s := range spectra {
		masses[i] = s.Precursor.Mass
	}
	sort.Float64s(masses)
	return masses
}

// EnumerateSpecies is a thin convenience wrapper over precursor.Enumerate,
// kept here so callers building a Runner don't need to import the
// precursor package directly for the common case.
func EnumerateSpecies(peptides []xlink.Peptide, spectra []xlink.ObservedSpectrum, cfg config.Config) []xlink.CrossLinkSpecies {
	sort.Slice(peptides, func(i, j int) bool { return peptides[i].Mass < peptides[j].Mass })
	return precursor.Enumerate(peptides, PrecursorMasses(spectra), cfg)
}
