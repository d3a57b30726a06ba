/*
Package digest turns a protein sequence into modified peptide candidates
with computed monoisotopic masses and N/C-terminus position tags.

Invalid inputs (an empty protein, or one whose peptides are all too short,
ambiguous or anchor-less) simply yield an empty peptide list; there is no
failure mode here. An enzyme rule that never cleaves yields the whole
protein as a single peptide.
*/
package digest

import (
	"log/slog"
	"sort"

	"github.com/mroth/weightedrand"

	"github.com/openxlink/xlinkid/config"
	"github.com/openxlink/xlinkid/residue"
	"github.com/openxlink/xlinkid/xlink"
)

// Digest enumerates every distinct peptide substring of protein satisfying
// the enzyme rule, annotates its position tag, discards peptides
// containing ambiguity codes or lacking any usable anchor, deduplicates by
// unmodified string, then expands the fixed x variable modification
// product per peptide.
func Digest(protein string, spec EnzymeSpec, cfg config.Config) []xlink.Peptide {
	if len(protein) == 0 {
		return nil
	}

	sites := cleavageSites(protein, spec)
	side1, side2 := cfg.AnchorSide1(), cfg.AnchorSide2()

	type rawPeptide struct {
		seq string
		pos xlink.PositionTag
	}
	seen := make(map[string]bool)
	var raw []rawPeptide

	for startIdx := 0; startIdx < len(sites); startIdx++ {
		start := 0
		if startIdx > 0 {
			start = sites[startIdx-1] + 1
		}
		for missed := 0; missed <= spec.MissedCleavages && startIdx+missed < len(sites); missed++ {
			end := sites[startIdx+missed] // inclusive index of last residue
			seq := protein[start : end+1]
			if len(seq) < spec.MinPeptideSize {
				continue
			}
			if residue.IsAmbiguous(seq) {
				continue
			}
			if seen[seq] {
				continue
			}
			seen[seq] = true

			posTag := xlink.Internal
			if start == 0 {
				posTag = xlink.NTerm
			}
			// A peptide spanning the whole protein keeps the N_TERM tag;
			// both termini being linkable is handled via the anchor check
			// below, not the tag itself.
			if end == len(protein)-1 && posTag != xlink.NTerm {
				posTag = xlink.CTerm
			}

			if !hasUsableAnchor(seq, posTag, side1, side2, cfg) {
				continue
			}

			raw = append(raw, rawPeptide{seq: seq, pos: posTag})
		}
	}

	var peptides []xlink.Peptide
	for _, rp := range raw {
		peptides = append(peptides, expandModifications(rp.seq, rp.pos, cfg)...)
	}
	return peptides
}

// hasUsableAnchor reports whether seq contains at least one anchor residue
// for either cross-link side, or whether its terminus permits terminal
// linking.
func hasUsableAnchor(seq string, pos xlink.PositionTag, side1, side2 residue.AnchorSet, cfg config.Config) bool {
	for i := 0; i < len(seq); i++ {
		if side1.Contains(seq[i]) || side2.Contains(seq[i]) {
			return true
		}
	}
	if cfg.AllowNTermLinking && pos == xlink.NTerm {
		return true
	}
	if cfg.AllowCTermLinking && pos == xlink.CTerm {
		return true
	}
	return false
}

// mass computes the monoisotopic mass of an unmodified peptide sequence:
// sum of residue masses plus water.
func mass(seq string) float64 {
	sum := residue.WaterMassMonoisotopic
	for i := 0; i < len(seq); i++ {
		sum += residue.Mass(seq[i])
	}
	return sum
}

// expandModifications enumerates the Cartesian product of fixed and
// variable modifications for one unmodified peptide, bounded by
// cfg.MaxVariableModsPerPeptide. Fixed modifications always apply at every
// matching site; each variable modification is either applied at all of its
// matching sites or not at all, as long as the total number of variable-mod
// sites stays within the cap.
func expandModifications(seq string, pos xlink.PositionTag, cfg config.Config) []xlink.Peptide {
	fixedDelta, fixedNames := applyFixed(seq, pos, cfg.FixedModifications)

	combos := variableCombinations(seq, pos, cfg.VariableModifications, cfg.MaxVariableModsPerPeptide)
	if limit := cfg.MaxModCombinationsPerPeptide; limit > 0 && len(combos) > limit {
		slog.Warn("modification product exceeds cap, sampling",
			"peptide", seq, "combinations", len(combos), "cap", limit)
		combos = sampleCombinations(combos, limit)
	}

	peptides := make([]xlink.Peptide, 0, len(combos))
	for _, c := range combos {
		names := append(append([]string{}, fixedNames...), c.names...)
		peptides = append(peptides, xlink.Peptide{
			Sequence:      seq,
			Mass:          mass(seq) + fixedDelta + c.delta,
			Position:      pos,
			Modifications: names,
		})
	}
	return peptides
}

// applyFixed sums the mass delta of every fixed modification whose target
// residue (or matching terminus) occurs in seq. Unlike variable mods,
// fixed modifications apply at every matching site, not 0-or-1.
func applyFixed(seq string, pos xlink.PositionTag, mods []residue.Modification) (delta float64, names []string) {
	for _, m := range mods {
		applied := false
		for i := 0; i < len(seq); i++ {
			if seq[i] == m.Target {
				delta += m.MassDelta
				applied = true
			}
		}
		if m.N_Terminal && pos == xlink.NTerm {
			delta += m.MassDelta
			applied = true
		}
		if m.C_Terminal && pos == xlink.CTerm {
			delta += m.MassDelta
			applied = true
		}
		if applied {
			names = append(names, m.Name)
		}
	}
	return delta, names
}

type modCombo struct {
	delta   float64
	names   []string
	nSites  int // number of variable-mod sites used, for sampling weight
}

// variableCombinations returns every subset of the applicable variable
// modifications whose combined site count is at most maxPerPeptide, always
// including the unmodified (empty) combination first.
func variableCombinations(seq string, pos xlink.PositionTag, mods []residue.Modification, maxPerPeptide int) []modCombo {
	// Each variable mod is tracked as "applied at all its matching sites"
	// vs "not applied"; full per-site combinatorics would blow up the
	// space far past any useful combination cap.
	type option struct {
		mod    residue.Modification
		sites  int
		delta  float64
		name   string
	}
	var options []option
	for _, m := range mods {
		sites := 0
		for i := 0; i < len(seq); i++ {
			if seq[i] == m.Target {
				sites++
			}
		}
		if m.N_Terminal && pos == xlink.NTerm {
			sites++
		}
		if m.C_Terminal && pos == xlink.CTerm {
			sites++
		}
		if sites == 0 {
			continue
		}
		options = append(options, option{mod: m, sites: sites, delta: m.MassDelta * float64(sites), name: m.Name})
	}

	combos := []modCombo{{}}
	for _, opt := range options {
		next := make([]modCombo, 0, len(combos)*2)
		for _, c := range combos {
			next = append(next, c) // not applying this modification
			if c.nSites+opt.sites <= maxPerPeptide {
				withMod := modCombo{
					delta:  c.delta + opt.delta,
					names:  append(append([]string{}, c.names...), opt.name),
					nSites: c.nSites + opt.sites,
				}
				next = append(next, withMod)
			}
		}
		combos = next
	}
	return combos
}

// sampleCombinations weighted-randomly samples n combinations from combos
// when the full product would exceed the configured cap, favoring
// combinations that use fewer variable-mod sites.
func sampleCombinations(combos []modCombo, n int) []modCombo {
	choices := make([]weightedrand.Choice, len(combos))
	for i, c := range combos {
		weight := uint(1)
		if c.nSites == 0 {
			weight = 100 // always strongly prefer the unmodified variant
		} else {
			weight = uint(100 / (c.nSites + 1))
			if weight == 0 {
				weight = 1
			}
		}
		choices[i] = weightedrand.Choice{Item: i, Weight: weight}
	}
	chooser, err := weightedrand.NewChooser(choices...)
	if err != nil {
		// degrades to a deterministic prefix rather than failing the whole
		// digestion run
		sort.Slice(combos, func(i, j int) bool { return combos[i].nSites < combos[j].nSites })
		if len(combos) > n {
			combos = combos[:n]
		}
		return combos
	}

	picked := make(map[int]bool, n)
	// always include the unmodified combination (index 0, built first in
	// variableCombinations) so MaxModCombinationsPerPeptide never silently
	// loses the base peptide.
	picked[0] = true
	for len(picked) < n && len(picked) < len(combos) {
		idx := chooser.Pick().(int)
		picked[idx] = true
	}

	out := make([]modCombo, 0, len(picked))
	for idx := range picked {
		out = append(out, combos[idx])
	}
	return out
}
