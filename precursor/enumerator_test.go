package precursor

import (
	"testing"

	"github.com/openxlink/xlinkid/config"
	"github.com/openxlink/xlinkid/xlink"
)

func peptide(seq string, mass float64, pos xlink.PositionTag) xlink.Peptide {
	return xlink.Peptide{Sequence: seq, Mass: mass, Position: pos}
}

func TestEnumerateMonoLink(t *testing.T) {
	cfg := config.Default()
	cfg.MonoLinkMasses = []float64{156.0786}
	cfg.PrecursorTolerance = 10
	cfg.PrecursorToleranceUnit = config.PPM

	peptides := []xlink.Peptide{peptide("PEPTIDEK", 927.4535, xlink.Internal)}
	observed := []float64{927.4535 + 156.0786}

	species := Enumerate(peptides, observed, cfg)

	var monoCount int
	for _, s := range species {
		if s.Kind == xlink.Mono {
			monoCount++
			if s.AlphaIndex != 0 {
				t.Errorf("AlphaIndex = %d, want 0", s.AlphaIndex)
			}
			if s.BetaIndex != -1 {
				t.Errorf("BetaIndex = %d, want -1", s.BetaIndex)
			}
		}
	}
	if monoCount != 1 {
		t.Fatalf("mono-link species count = %d, want 1", monoCount)
	}
}

func TestEnumerateCrossLinkPair(t *testing.T) {
	cfg := config.Default()
	cfg.LinkerMass = 138.0680796
	cfg.PrecursorTolerance = 10
	cfg.PrecursorToleranceUnit = config.PPM

	peptides := []xlink.Peptide{
		peptide("PEPTIDEK", 927.4535, xlink.Internal),
		peptide("KPEPTIDE", 927.4535, xlink.Internal),
	}
	observed := []float64{927.4535 + 927.4535 + cfg.LinkerMass}

	species := Enumerate(peptides, observed, cfg)

	var crossCount int
	for _, s := range species {
		if s.Kind == xlink.Cross {
			crossCount++
		}
	}
	if crossCount == 0 {
		t.Fatalf("expected at least one cross-link species, got none out of %d species", len(species))
	}
}

func TestEnumerateNoObservedMassesYieldsNil(t *testing.T) {
	cfg := config.Default()
	peptides := []xlink.Peptide{peptide("PEPTIDEK", 927.4535, xlink.Internal)}
	species := Enumerate(peptides, nil, cfg)
	if species != nil {
		t.Fatalf("expected nil species, got %v", species)
	}
}

func TestEnumerateDeterministicAcrossWorkerCounts(t *testing.T) {
	cfg := config.Default()
	cfg.PrecursorTolerance = 0.5
	cfg.PrecursorToleranceUnit = config.Dalton

	var peptides []xlink.Peptide
	for i := 0; i < 24; i++ {
		peptides = append(peptides, peptide("PEPKTIDE", 500+10*float64(i), xlink.Internal))
	}
	observed := []float64{
		500 + 156.0786,
		620 + cfg.LinkerMass,
		500 + 730 + cfg.LinkerMass,
		560 + 560 + cfg.LinkerMass,
	}

	cfg.NumWorkers = 1
	serial := Enumerate(peptides, observed, cfg)
	cfg.NumWorkers = 5
	parallel := Enumerate(peptides, observed, cfg)

	if len(serial) == 0 {
		t.Fatal("expected the synthetic mass ladder to produce species")
	}
	if len(serial) != len(parallel) {
		t.Fatalf("species count differs across worker counts: %d vs %d", len(serial), len(parallel))
	}
	for i := range serial {
		if serial[i] != parallel[i] {
			t.Fatalf("species[%d] differs across worker counts: %+v vs %+v", i, serial[i], parallel[i])
		}
	}

	// Every emitted species must be within tolerance of some observed mass.
	for _, s := range serial {
		ok := false
		for _, m := range observed {
			if diff := s.Mass - m; diff <= 0.5 && diff >= -0.5 {
				ok = true
			}
		}
		if !ok {
			t.Errorf("species mass %v not within tolerance of any observed mass", s.Mass)
		}
	}
}

func TestEnumerateLoopLinkRequiresBothSides(t *testing.T) {
	cfg := config.Default()
	cfg.AnchorResiduesSide1 = "K"
	cfg.AnchorResiduesSide2 = "K"
	cfg.LinkerMass = 138.0680796

	// Only one K in the sequence: side1 and side2 both match the same
	// residue set "K", so a single K satisfies both sides here.
	peptides := []xlink.Peptide{peptide("PEPKTIDE", 927.4535, xlink.Internal)}
	observed := []float64{927.4535 + cfg.LinkerMass}

	species := Enumerate(peptides, observed, cfg)

	var loopCount int
	for _, s := range species {
		if s.Kind == xlink.Loop {
			loopCount++
		}
	}
	if loopCount != 1 {
		t.Fatalf("loop-link species count = %d, want 1", loopCount)
	}
}
