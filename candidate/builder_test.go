package candidate

import (
	"testing"

	"github.com/openxlink/xlinkid/config"
	"github.com/openxlink/xlinkid/xlink"
)

func TestBuildMonoLinkOneSitePerLysine(t *testing.T) {
	cfg := config.Default()
	cfg.AnchorResiduesSide1 = "K"
	cfg.AnchorResiduesSide2 = "K"

	peptides := []xlink.Peptide{{Sequence: "PEPTIDEK", Position: xlink.Internal}}
	species := []xlink.CrossLinkSpecies{{Kind: xlink.Mono, AlphaIndex: 0, BetaIndex: -1}}

	out := Build(species, peptides, cfg)
	if len(out) != 1 {
		t.Fatalf("candidate count = %d, want 1 (one K at index 7)", len(out))
	}
	if out[0].PosAlpha != 7 {
		t.Errorf("PosAlpha = %d, want 7", out[0].PosAlpha)
	}
}

func TestBuildCrossLinkCartesianProduct(t *testing.T) {
	cfg := config.Default()
	cfg.AnchorResiduesSide1 = "K"
	cfg.AnchorResiduesSide2 = "K"

	peptides := []xlink.Peptide{
		{Sequence: "PEKTIDEK", Position: xlink.Internal}, // two K at 2,7
		{Sequence: "KPEPTIDE", Position: xlink.Internal}, // one K at 0
	}
	species := []xlink.CrossLinkSpecies{{Kind: xlink.Cross, AlphaIndex: 0, BetaIndex: 1}}

	out := Build(species, peptides, cfg)
	// side1==side2=="K" so the reciprocal branch is skipped; 2 alpha sites *
	// 1 beta site = 2 candidates.
	if len(out) != 2 {
		t.Fatalf("candidate count = %d, want 2", len(out))
	}
}

func TestBuildLoopLinkExcludesSameSite(t *testing.T) {
	cfg := config.Default()
	cfg.AnchorResiduesSide1 = "K"
	cfg.AnchorResiduesSide2 = "K"

	peptides := []xlink.Peptide{{Sequence: "PEKTIDEK", Position: xlink.Internal}}
	species := []xlink.CrossLinkSpecies{{Kind: xlink.Loop, AlphaIndex: 0, BetaIndex: -1}}

	out := Build(species, peptides, cfg)
	for _, c := range out {
		if c.PosAlpha >= c.PosBeta {
			t.Errorf("loop-link candidate violates i < j ordering: %+v", c)
		}
	}
	// Loop-link sites are ordered pairs i < j: a single K/K anchor pair
	// yields exactly one candidate (K2->K7), not both directions.
	if len(out) != 1 {
		t.Fatalf("candidate count = %d, want 1 (K2->K7 only)", len(out))
	}
	if out[0].PosAlpha != 2 || out[0].PosBeta != 7 {
		t.Errorf("candidate sites = (%d, %d), want (2, 7)", out[0].PosAlpha, out[0].PosBeta)
	}
}
