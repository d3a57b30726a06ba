/*
Package fragment generates theoretical fragment-ion spectra for cross-link
candidates, partitioned into common ions (backbone fragments not spanning
a linker anchor) and cross-link ions (fragments that carry the linker and,
for inter-peptide links, the intact partner peptide).

Ion labels follow the usual proteomics convention: a prefix letter (a, b,
c on the N-terminal side; x, y, z on the C-terminal side), the 1-based
backbone position, and a trailing "++"/"+++" for multiply charged ions.
*/
package fragment

import (
	"fmt"
	"sort"

	"github.com/openxlink/xlinkid/config"
	"github.com/openxlink/xlinkid/residue"
	"github.com/openxlink/xlinkid/xlink"
)

// ionOffset is the neutral mass added to the sum of residue masses to form
// each N-terminal (a/b/c) or C-terminal (x/y/z) ion series, relative to the
// bare residue sum for that prefix/suffix run.
const (
	aIonOffset = -27.994915 // loses CO relative to b
	bIonOffset = 0.0
	cIonOffset = 17.02655 // +NH3

	xIonOffset = 43.989829 // y + CO - H2, i.e. +CO2
	yIonOffset = 18.010565
	zIonOffset = 1.991840 // y - NH3 + ... (z-dot radical ion approximation)
)

const (
	waterLossMass   = 18.010565
	ammoniaLossMass = 17.026549
	isotopeSpacing  = 1.00335
)

// waterLossEligible and ammoniaLossEligible report whether residue aa can
// carry a water (S/T/E/D) or ammonia (R/K/N/Q) neutral loss.
func waterLossEligible(aa byte) bool {
	switch aa {
	case 'S', 'T', 'E', 'D':
		return true
	}
	return false
}

func ammoniaLossEligible(aa byte) bool {
	switch aa {
	case 'R', 'K', 'N', 'Q':
		return true
	}
	return false
}

// Chain identifies which peptide in a candidate a fragment series belongs
// to, matching xlink.TheoreticalPeak.Chain (0 = alpha, 1 = beta).
const (
	ChainAlpha = 0
	ChainBeta  = 1
)

// Generate builds the labeled, m/z-sorted theoretical spectrum for one
// candidate at the given precursor charge.
func Generate(cand xlink.CrossLinkCandidate, alpha, beta xlink.Peptide, precursorCharge int, opts config.FragmentOptions) xlink.TheoreticalSpectrum {
	var peaks []xlink.TheoreticalPeak

	// A LOOP candidate has both its anchors on the same (alpha) chain, so
	// a fragment is common only if it spans neither site. MONO has a
	// single anchor and CROSS's two anchors live on different chains, so
	// the second anchor argument is unused (-2) in both those cases.
	secondAnchor := noAnchor
	if cand.Species.Kind == xlink.Loop {
		secondAnchor = cand.PosBeta
	}
	peaks = append(peaks, generateChain(cand, alpha, beta, ChainAlpha, cand.PosAlpha, secondAnchor, precursorCharge, opts)...)
	if cand.Species.Kind == xlink.Cross {
		peaks = append(peaks, generateChain(cand, beta, alpha, ChainBeta, cand.PosBeta, noAnchor, precursorCharge, opts)...)
	}

	if opts.AddPrecursorPeaks {
		peaks = append(peaks, precursorPeaks(cand, alpha, beta, precursorCharge)...)
	}
	if opts.AddAbundantImmoniumIons {
		peaks = append(peaks, immoniumIons(alpha, ChainAlpha)...)
		if cand.Species.Kind == xlink.Cross {
			peaks = append(peaks, immoniumIons(beta, ChainBeta)...)
		}
	}

	sort.Slice(peaks, func(i, j int) bool { return peaks[i].MZ < peaks[j].MZ })
	return xlink.TheoreticalSpectrum{Peaks: peaks}
}

// noAnchor marks an absent second anchor position. It is distinct from
// the terminal link-site sentinels (-1 for the N-terminus, len(seq) for
// the C-terminus).
const noAnchor = -2

// generateChain produces every configured ion series for one peptide
// chain, partitioned into common ions (not spanning anchorPos or
// anchorPos2) and cross-link ions (spanning either). anchorPos2 is
// noAnchor except for LOOP's alpha chain, whose two anchors both live on
// this same sequence.
func generateChain(cand xlink.CrossLinkCandidate, pep, partner xlink.Peptide, chain, anchorPos, anchorPos2, precursorCharge int, opts config.FragmentOptions) []xlink.TheoreticalPeak {
	seq := pep.Sequence
	n := len(seq)
	if n == 0 {
		return nil
	}

	// Fold terminal link-site sentinels onto the first/last residue index:
	// a linker on the N-terminus travels with every N-terminal fragment
	// exactly as one on residue 0 would, and likewise for the C-terminus.
	anchorPos = foldTerminus(anchorPos, n)
	anchorPos2 = foldTerminus(anchorPos2, n)

	prefixMass := make([]float64, n+1) // prefixMass[i] = sum of residue masses of seq[0:i]
	for i := 0; i < n; i++ {
		prefixMass[i+1] = prefixMass[i] + residue.Mass(seq[i])
	}
	total := prefixMass[n]

	linkerContribution := cand.Species.LinkerMass
	partnerMass := 0.0
	if cand.Species.Kind == xlink.Cross {
		partnerMass = partner.Mass
	}

	var out []xlink.TheoreticalPeak

	addSeries := func(enabled bool, prefix string, offset float64, fromNTerm bool) {
		if !enabled {
			return
		}
		for i := 1; i < n; i++ {
			if !opts.AddFirstPrefixIon && i == 1 && fromNTerm {
				continue
			}
			var residueSum float64
			var spansAnchor bool
			var class xlink.IonClass

			if fromNTerm {
				residueSum = prefixMass[i]
				spansAnchor = anchorPos < i || (anchorPos2 != noAnchor && anchorPos2 < i)
			} else {
				residueSum = total - prefixMass[n-i]
				// C-terminal ion of length i covers residues [n-i, n).
				spansAnchor = anchorPos >= n-i || (anchorPos2 != noAnchor && anchorPos2 >= n-i)
			}

			neutralMass := residueSum + offset
			class = xlink.Common
			if spansAnchor {
				class = xlink.XLink
				neutralMass += linkerContribution
				if cand.Species.Kind == xlink.Cross {
					neutralMass += partnerMass
				}
			}

			minCharge := 1
			maxCharge := precursorCharge - 1
			if class == xlink.XLink && cand.Species.Kind == xlink.Cross {
				minCharge = 2
			}

			for z := minCharge; z <= maxCharge; z++ {
				label := fmt.Sprintf("%s%d", prefix, i)
				if z > 1 {
					label += chargeSuffix(z)
				}
				mz := (neutralMass + float64(z)*residue.ProtonMass) / float64(z)
				out = append(out, xlink.TheoreticalPeak{
					Peak:  xlink.Peak{MZ: mz, Charge: z},
					Label: label,
					Class: class,
					Chain: chain,
				})

				if opts.AddIsotopes {
					for k := 1; k <= opts.MaxIsotope; k++ {
						out = append(out, xlink.TheoreticalPeak{
							Peak:  xlink.Peak{MZ: mz + float64(k)*isotopeSpacing/float64(z), Charge: z},
							Label: fmt.Sprintf("%s+%di", label, k),
							Class: class,
							Chain: chain,
						})
					}
				}

				if opts.AddLosses {
					if lossResidue, ok := lossSiteWater(seq, i, fromNTerm); ok && waterLossEligible(lossResidue) {
						out = append(out, lossPeak(label, mz, z, waterLossMass, "-H2O", class, chain))
					}
					if lossResidue, ok := lossSiteAmmonia(seq, i, fromNTerm); ok && ammoniaLossEligible(lossResidue) {
						out = append(out, lossPeak(label, mz, z, ammoniaLossMass, "-NH3", class, chain))
					}
				}
			}
		}
	}

	addSeries(opts.AddAIons, "a", aIonOffset, true)
	addSeries(opts.AddBIons, "b", bIonOffset, true)
	addSeries(opts.AddCIons, "c", cIonOffset, true)
	addSeries(opts.AddXIons, "x", xIonOffset, false)
	addSeries(opts.AddYIons, "y", yIonOffset, false)
	addSeries(opts.AddZIons, "z", zIonOffset, false)

	return out
}

func lossPeak(baseLabel string, mz float64, z int, lossMass float64, suffix string, class xlink.IonClass, chain int) xlink.TheoreticalPeak {
	return xlink.TheoreticalPeak{
		Peak:  xlink.Peak{MZ: mz - lossMass/float64(z), Charge: z},
		Label: baseLabel + suffix,
		Class: class,
		Chain: chain,
	}
}

// lossSiteWater/lossSiteAmmonia report the residue at the fragment's newly
// exposed terminus, the residue whose side chain could plausibly carry the
// neutral loss. Only the cleavage-boundary residue is considered, keeping
// the loss-peak count linear in the ladder length.
func lossSiteWater(seq string, length int, fromNTerm bool) (byte, bool) {
	return lossSite(seq, length, fromNTerm)
}

func lossSiteAmmonia(seq string, length int, fromNTerm bool) (byte, bool) {
	return lossSite(seq, length, fromNTerm)
}

func lossSite(seq string, length int, fromNTerm bool) (byte, bool) {
	if fromNTerm {
		if length-1 < len(seq) {
			return seq[length-1], true
		}
		return 0, false
	}
	idx := len(seq) - length
	if idx >= 0 && idx < len(seq) {
		return seq[idx], true
	}
	return 0, false
}

func foldTerminus(pos, n int) int {
	switch {
	case pos == noAnchor:
		return noAnchor
	case pos < 0:
		return 0
	case pos >= n:
		return n - 1
	}
	return pos
}

func chargeSuffix(z int) string {
	s := ""
	for i := 0; i < z; i++ {
		s += "+"
	}
	return s
}

// precursorPeaks emits the intact-candidate precursor m/z at charges 1..precursorCharge.
func precursorPeaks(cand xlink.CrossLinkCandidate, alpha, beta xlink.Peptide, precursorCharge int) []xlink.TheoreticalPeak {
	neutral := alpha.Mass + cand.Species.LinkerMass
	if cand.Species.Kind == xlink.Cross {
		neutral += beta.Mass
	}
	var out []xlink.TheoreticalPeak
	for z := 1; z <= precursorCharge; z++ {
		mz := (neutral + float64(z)*residue.ProtonMass) / float64(z)
		out = append(out, xlink.TheoreticalPeak{
			Peak:  xlink.Peak{MZ: mz, Charge: z},
			Label: fmt.Sprintf("[M+%dH]%s", z, chargeSuffix(z)),
			Class: xlink.Common,
			Chain: ChainAlpha,
		})
	}
	return out
}

// immoniumIons emits the abundant immonium ions (residue mass - CO + proton)
// for the residues known to produce diagnostically useful immonium peaks.
func immoniumIons(pep xlink.Peptide, chain int) []xlink.TheoreticalPeak {
	const coMass = 27.994915
	diagnostic := map[byte]bool{'W': true, 'Y': true, 'F': true, 'H': true, 'R': true, 'K': true, 'C': true}
	var out []xlink.TheoreticalPeak
	for i := 0; i < len(pep.Sequence); i++ {
		aa := pep.Sequence[i]
		if !diagnostic[aa] {
			continue
		}
		mz := residue.Mass(aa) - coMass + residue.ProtonMass
		out = append(out, xlink.TheoreticalPeak{
			Peak:  xlink.Peak{MZ: mz, Charge: 1},
			Label: fmt.Sprintf("imm(%c)", aa),
			Class: xlink.Common,
			Chain: chain,
		})
	}
	return out
}
