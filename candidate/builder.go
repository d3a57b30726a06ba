/*
Package candidate expands surviving CrossLinkSpecies into concrete
candidates, one per legal (site_alpha, site_beta) anchor pair.
*/
package candidate

import (
	"github.com/openxlink/xlinkid/config"
	"github.com/openxlink/xlinkid/residue"
	"github.com/openxlink/xlinkid/xlink"
)

// Build expands species into concrete CrossLinkCandidate values, choosing
// every legal anchor-site combination per species kind. peptides is the
// same index-addressed slice the species were enumerated against.
func Build(species []xlink.CrossLinkSpecies, peptides []xlink.Peptide, cfg config.Config) []xlink.CrossLinkCandidate {
	side1, side2 := cfg.AnchorSide1(), cfg.AnchorSide2()

	var out []xlink.CrossLinkCandidate
	for _, sp := range species {
		alpha := peptides[sp.AlphaIndex]
		switch sp.Kind {
		case xlink.Mono:
			for _, pos := range anchorSites(alpha, side1, side2, cfg) {
				out = append(out, xlink.CrossLinkCandidate{Species: sp, PosAlpha: pos, PosBeta: -1})
			}

		case xlink.Loop:
			// Loop-link sites are ordered pairs (i, j), i < j, with i a
			// side-1 anchor and j a side-2 anchor: one candidate per
			// distinct position pair, not per (i,j)/(j,i) direction.
			// N-/C-terminal sentinel positions (-1, len(seq)) sort
			// correctly against real residue indices under plain integer
			// comparison, so p1 < p2 alone enforces the ordering.
			sites1 := sideSites(alpha, side1, cfg.AllowNTermLinking, cfg.AllowCTermLinking)
			sites2 := sideSites(alpha, side2, cfg.AllowNTermLinking, cfg.AllowCTermLinking)
			for _, p1 := range sites1 {
				for _, p2 := range sites2 {
					if p1 >= p2 {
						continue
					}
					out = append(out, xlink.CrossLinkCandidate{Species: sp, PosAlpha: p1, PosBeta: p2})
				}
			}

		case xlink.Cross:
			beta := peptides[sp.BetaIndex]
			sitesAlpha := sideSites(alpha, side1, cfg.AllowNTermLinking, cfg.AllowCTermLinking)
			sitesBeta := sideSites(beta, side2, cfg.AllowNTermLinking, cfg.AllowCTermLinking)
			for _, pa := range sitesAlpha {
				for _, pb := range sitesBeta {
					out = append(out, xlink.CrossLinkCandidate{Species: sp, PosAlpha: pa, PosBeta: pb})
				}
			}
			// the reciprocal assignment (side1 on beta, side2 on alpha) is a
			// distinct candidate whenever the two anchor sets differ.
			if !sameSet(side1, side2) {
				sitesAlpha2 := sideSites(alpha, side2, cfg.AllowNTermLinking, cfg.AllowCTermLinking)
				sitesBeta2 := sideSites(beta, side1, cfg.AllowNTermLinking, cfg.AllowCTermLinking)
				for _, pa := range sitesAlpha2 {
					for _, pb := range sitesBeta2 {
						out = append(out, xlink.CrossLinkCandidate{Species: sp, PosAlpha: pa, PosBeta: pb})
					}
				}
			}
		}
	}
	return out
}

// sideSites returns every byte offset into pep.Sequence eligible to bear
// one side of a cross-linker: residues in side, plus -1 (N-terminus) or
// len(seq) (C-terminus) sentinel offsets when the corresponding terminal
// policy and position tag allow it.
func sideSites(pep xlink.Peptide, side residue.AnchorSet, allowN, allowC bool) []int {
	var sites []int
	for i := 0; i < len(pep.Sequence); i++ {
		if side.Contains(pep.Sequence[i]) {
			sites = append(sites, i)
		}
	}
	if allowN && pep.Position == xlink.NTerm {
		sites = append(sites, -1)
	}
	if allowC && pep.Position == xlink.CTerm {
		sites = append(sites, len(pep.Sequence))
	}
	return sites
}

// anchorSites is the mono-link variant: any site from either side counts,
// since a mono-link caps a single reactive residue regardless of which
// side's chemistry defined it.
func anchorSites(pep xlink.Peptide, side1, side2 residue.AnchorSet, cfg config.Config) []int {
	seen := make(map[int]bool)
	var sites []int
	for _, s := range sideSites(pep, side1, cfg.AllowNTermLinking, cfg.AllowCTermLinking) {
		if !seen[s] {
			seen[s] = true
			sites = append(sites, s)
		}
	}
	for _, s := range sideSites(pep, side2, cfg.AllowNTermLinking, cfg.AllowCTermLinking) {
		if !seen[s] {
			seen[s] = true
			sites = append(sites, s)
		}
	}
	return sites
}

func sameSet(a, b residue.AnchorSet) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
