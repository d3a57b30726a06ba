/*
Package precursor enumerates candidate cross-link species (mono-link,
loop-link, and inter-peptide cross-link) whose total mass falls within
precursor tolerance of at least one observed precursor.
*/
package precursor

import (
	"runtime"
	"sort"
	"sync"

	"github.com/openxlink/xlinkid/config"
	"github.com/openxlink/xlinkid/residue"
	"github.com/openxlink/xlinkid/xlink"
)

// Enumerate returns every CrossLinkSpecies whose mass lies within
// precursor tolerance of at least one mass in observedMasses.
//
// peptides must be sorted by Mass ascending (the inter-peptide loop relies
// on it for its early-exit/skip-forward optimization). observedMasses must
// be sorted ascending.
//
// The alpha-peptide loop is split across workers, each building its own
// species buffer; the buffers are concatenated in alpha order at the end,
// so the output is deterministic regardless of scheduling.
func Enumerate(peptides []xlink.Peptide, observedMasses []float64, cfg config.Config) []xlink.CrossLinkSpecies {
	if len(observedMasses) == 0 || len(peptides) == 0 {
		return nil
	}

	workers := cfg.NumWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(peptides) {
		workers = len(peptides)
	}

	chunkSize := (len(peptides) + workers - 1) / workers
	buffers := make([][]xlink.CrossLinkSpecies, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunkSize
		hi := lo + chunkSize
		if hi > len(peptides) {
			hi = len(peptides)
		}
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			buffers[w] = enumerateAlphaRange(peptides, lo, hi, observedMasses, cfg)
		}(w, lo, hi)
	}
	wg.Wait()

	var species []xlink.CrossLinkSpecies
	for _, buf := range buffers {
		species = append(species, buf...)
	}
	return species
}

// enumerateAlphaRange runs the per-alpha enumeration for peptides[lo:hi],
// with the inter-peptide partner loop still ranging over the full
// peptide slice.
func enumerateAlphaRange(peptides []xlink.Peptide, lo, hi int, observedMasses []float64, cfg config.Config) []xlink.CrossLinkSpecies {
	var species []xlink.CrossLinkSpecies
	minObserved, maxObserved := observedMasses[0], observedMasses[len(observedMasses)-1]
	side1, side2 := cfg.AnchorSide1(), cfg.AnchorSide2()

	for i := lo; i < hi; i++ {
		p := peptides[i]
		// Mono-link: peptide + each configured mono-link mass.
		for _, monoMass := range cfg.MonoLinkMasses {
			candidateMass := p.Mass + monoMass
			if withinTolerance(candidateMass, observedMasses, cfg) {
				species = append(species, xlink.CrossLinkSpecies{
					Kind:       xlink.Mono,
					AlphaIndex: i,
					BetaIndex:  -1,
					LinkerMass: monoMass,
					Mass:       candidateMass,
				})
			}
		}

		// Loop-link: requires at least one anchor of each side within the
		// same peptide, considering terminal policies.
		if hasAnchorOfSide(p.Sequence, p.Position, side1, cfg.AllowNTermLinking, cfg.AllowCTermLinking) &&
			hasAnchorOfSide(p.Sequence, p.Position, side2, cfg.AllowNTermLinking, cfg.AllowCTermLinking) {
			candidateMass := p.Mass + cfg.LinkerMass
			if withinTolerance(candidateMass, observedMasses, cfg) {
				species = append(species, xlink.CrossLinkSpecies{
					Kind:       xlink.Loop,
					AlphaIndex: i,
					BetaIndex:  -1,
					LinkerMass: cfg.LinkerMass,
					Mass:       candidateMass,
				})
			}
		}

		// Inter-peptide cross-link: ordered pair (i, j), i <= j. The inner
		// loop exits early once the partner's mass is too heavy to ever
		// fall in tolerance (peptides sorted by mass), and skips forward
		// past partners still too light.
		tol := toleranceFor(p.Mass+cfg.LinkerMass, cfg)
		upperBound := maxObserved - cfg.LinkerMass - p.Mass + tol
		lowerBound := minObserved - cfg.LinkerMass - p.Mass - tol

		for j := i; j < len(peptides); j++ {
			q := peptides[j]
			if q.Mass > upperBound {
				break
			}
			if q.Mass < lowerBound {
				continue
			}
			candidateMass := p.Mass + q.Mass + cfg.LinkerMass
			if !withinTolerance(candidateMass, observedMasses, cfg) {
				continue
			}
			species = append(species, xlink.CrossLinkSpecies{
				Kind:       xlink.Cross,
				AlphaIndex: i,
				BetaIndex:  j,
				LinkerMass: cfg.LinkerMass,
				Mass:       candidateMass,
			})
		}
	}

	return species
}

// hasAnchorOfSide reports whether seq has a residue matching side, or
// (when the corresponding terminal-linking flag is set) whether either
// permitted terminus of this peptide counts as a side-anchor position.
func hasAnchorOfSide(seq string, pos xlink.PositionTag, side residue.AnchorSet, allowN, allowC bool) bool {
	for i := 0; i < len(seq); i++ {
		if side.Contains(seq[i]) {
			return true
		}
	}
	if allowN && pos == xlink.NTerm {
		return true
	}
	if allowC && pos == xlink.CTerm {
		return true
	}
	return false
}

func toleranceFor(mass float64, cfg config.Config) float64 {
	return config.ToleranceDalton(mass, cfg.PrecursorTolerance, cfg.PrecursorToleranceUnit)
}

// withinTolerance tests species membership by binary search on the sorted
// observed mass list for the interval [mass-err, mass+err]. The tolerance
// is computed from the candidate mass, not the observed mass; for ppm the
// difference is negligible relative to the mass itself.
func withinTolerance(mass float64, observedMasses []float64, cfg config.Config) bool {
	err := toleranceFor(mass, cfg)
	lo := sort.SearchFloat64s(observedMasses, mass-err)
	hi := sort.SearchFloat64s(observedMasses, nextAfter(mass+err))
	return lo < hi
}

// nextAfter nudges x up by a negligible epsilon so SearchFloat64s'
// "first index >= x" semantics behave like an inclusive upper bound.
func nextAfter(x float64) float64 {
	return x + 1e-9
}
