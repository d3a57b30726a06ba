package digest

// EnzymeSpec is a cleavage rule: CleavesAfter reports whether the enzyme
// cuts the peptide bond immediately after sequence[pos], given the full
// sequence for context (e.g. trypsin's proline exception).
type EnzymeSpec struct {
	Name            string
	CleavesAfter    func(sequence string, pos int) bool
	MissedCleavages int
	MinPeptideSize  int
}

// Trypsin cleaves after K or R, except when followed by P.
func Trypsin() EnzymeSpec {
	return EnzymeSpec{
		Name: "Trypsin",
		CleavesAfter: func(sequence string, pos int) bool {
			c := sequence[pos]
			if c != 'K' && c != 'R' {
				return false
			}
			if pos+1 < len(sequence) && sequence[pos+1] == 'P' {
				return false
			}
			return true
		},
		MissedCleavages: 2,
		MinPeptideSize:  4,
	}
}

// cleavageSites returns the sequence positions after which the enzyme
// cuts, plus the implicit final site at the end of the sequence.
func cleavageSites(sequence string, spec EnzymeSpec) []int {
	sites := make([]int, 0, len(sequence)/6+1)
	for i := 0; i < len(sequence); i++ {
		if spec.CleavesAfter(sequence, i) {
			sites = append(sites, i)
		}
	}
	if len(sites) == 0 || sites[len(sites)-1] != len(sequence)-1 {
		sites = append(sites, len(sequence)-1)
	}
	return sites
}
