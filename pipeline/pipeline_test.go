package pipeline

import (
	"context"
	"math"
	"testing"

	"github.com/openxlink/xlinkid/config"
	"github.com/openxlink/xlinkid/fragment"
	"github.com/openxlink/xlinkid/score"
	"github.com/openxlink/xlinkid/xlink"
)

func TestRunPreservesInputOrder(t *testing.T) {
	cfg := config.Default()
	cfg.NumWorkers = 3
	cfg.MinPeptideSize = 1

	peptides := []xlink.Peptide{{Sequence: "PEPTIDEK", Mass: 927.4535, Position: xlink.Internal}}
	runner := NewRunner(peptides, nil, cfg, nil)

	spectra := make([]xlink.ObservedSpectrum, 5)
	for i := range spectra {
		spectra[i] = xlink.ObservedSpectrum{
			NativeID:  string(rune('A' + i)),
			Precursor: xlink.Precursor{Mass: 1000, Charge: 3},
			Peaks:     []xlink.Peak{{MZ: 100, Intensity: 1}, {MZ: 200, Intensity: 1}},
		}
	}

	results := runner.Run(context.Background(), spectra)
	if len(results) != 5 {
		t.Fatalf("result count = %d, want 5", len(results))
	}
	for i, r := range results {
		if r.SpectrumIndex != i {
			t.Errorf("results[%d].SpectrumIndex = %d, want %d", i, r.SpectrumIndex, i)
		}
		if r.NativeID != string(rune('A'+i)) {
			t.Errorf("results[%d].NativeID = %q, want %q", i, r.NativeID, string(rune('A'+i)))
		}
	}
}

func TestRunFiltersShortSpectra(t *testing.T) {
	cfg := config.Default()
	cfg.MinPeptideSize = 10 // 2*10 = 20 peaks required

	runner := NewRunner(nil, nil, cfg, nil)
	spectra := []xlink.ObservedSpectrum{{
		NativeID:  "short",
		Precursor: xlink.Precursor{Mass: 1000, Charge: 3},
		Peaks:     []xlink.Peak{{MZ: 100}},
	}}

	results := runner.Run(context.Background(), spectra)
	if len(results[0].Matches) != 0 {
		t.Errorf("expected no matches for a FILTERED-stage rejection, got %d", len(results[0].Matches))
	}
}

func TestRunEndToEndMonoLinkScenario(t *testing.T) {
	// PEPTIDEK (927.4555), anchor K at position 7, mono-link 156.0786:
	// the mono-link species mass 1083.5341 must survive a precursor
	// observed at 1083.534 under 10 ppm.
	cfg := config.Default()
	cfg.MinPeptideSize = 1
	cfg.AnchorResiduesSide1 = "K"
	cfg.AnchorResiduesSide2 = "K"
	cfg.FragmentOptions.AddBIons = true
	cfg.FragmentOptions.AddYIons = true

	peptides := []xlink.Peptide{{Sequence: "PEPTIDEK", Mass: 927.4555, Position: xlink.Internal}}
	spectra := []xlink.ObservedSpectrum{{
		NativeID:  "scan=1",
		Precursor: xlink.Precursor{Mass: 1083.534, Charge: 2},
		Peaks: []xlink.Peak{
			{MZ: 100, Intensity: 10}, {MZ: 150, Intensity: 10}, {MZ: 200, Intensity: 10},
			{MZ: 250, Intensity: 10}, {MZ: 300, Intensity: 10},
		},
	}}

	species := EnumerateSpecies(peptides, spectra, cfg)
	var sawMono bool
	for _, s := range species {
		if s.Kind == xlink.Mono {
			sawMono = true
		}
	}
	if !sawMono {
		t.Fatal("expected the mono-link species to survive precursor-tolerance enumeration")
	}

	runner := NewRunner(peptides, species, cfg, nil)
	results := runner.Run(context.Background(), spectra)
	if len(results) != 1 {
		t.Fatalf("result count = %d, want 1", len(results))
	}
}

func TestScoreCandidateSkipsEmptyCommonSpectrum(t *testing.T) {
	// A loop-link spanning the entire peptide (anchors on the first and
	// last residue) produces cross-link ions but no common ions; the
	// candidate must be skipped outright, not scored on cross-link
	// coverage alone.
	cfg := config.Default()
	peptides := []xlink.Peptide{{Sequence: "KPEPTIDEK", Mass: 1055.5504, Position: xlink.Internal}}
	runner := NewRunner(peptides, nil, cfg, nil)

	cand := xlink.CrossLinkCandidate{
		Species:  xlink.CrossLinkSpecies{Kind: xlink.Loop, AlphaIndex: 0, BetaIndex: -1, LinkerMass: 138.0680796},
		PosAlpha: 0,
		PosBeta:  8,
	}
	spectrum := xlink.ObservedSpectrum{
		NativeID:  "loop-span",
		Precursor: xlink.Precursor{Mass: 1055.5504 + 138.0680796, Charge: 3},
		Peaks:     []xlink.Peak{{MZ: 100, Intensity: 1}, {MZ: 200, Intensity: 1}, {MZ: 300, Intensity: 1}},
	}

	if _, ok := runner.scoreCandidate(cand, spectrum, 1); ok {
		t.Error("expected a loop candidate with no common ions to be skipped")
	}
}

func TestScoreCandidateSwapSymmetry(t *testing.T) {
	// Swapping alpha and beta of a CROSS candidate (with anchor positions
	// swapped accordingly) must yield the same composite score.
	cfg := config.Default()
	peptides := []xlink.Peptide{
		{Sequence: "PEPTIDEK", Mass: 927.4555, Position: xlink.Internal},
		{Sequence: "KLEEK", Mass: 632.3538, Position: xlink.Internal},
	}
	runner := NewRunner(peptides, nil, cfg, nil)

	cand := xlink.CrossLinkCandidate{
		Species:  xlink.CrossLinkSpecies{Kind: xlink.Cross, AlphaIndex: 0, BetaIndex: 1, LinkerMass: 138.0680796},
		PosAlpha: 7,
		PosBeta:  0,
	}
	swapped := xlink.CrossLinkCandidate{
		Species:  xlink.CrossLinkSpecies{Kind: xlink.Cross, AlphaIndex: 1, BetaIndex: 0, LinkerMass: 138.0680796},
		PosAlpha: 0,
		PosBeta:  7,
	}

	theo := fragment.Generate(cand, peptides[0], peptides[1], 4, cfg.FragmentOptions)
	peaks := make([]xlink.Peak, len(theo.Peaks))
	for i, p := range theo.Peaks {
		peaks[i] = xlink.Peak{MZ: p.MZ, Intensity: 20}
	}
	spectrum := xlink.ObservedSpectrum{
		NativeID:  "swap",
		Precursor: xlink.Precursor{Mass: 927.4555 + 632.3538 + 138.0680796, Charge: 4},
		Peaks:     peaks,
	}

	autoCorr := score.AutoCorrSum(spectrum.Peaks, fragmentToleranceDa(cfg, spectrum.Precursor.Mass))
	rec, ok := runner.scoreCandidate(cand, spectrum, autoCorr)
	if !ok {
		t.Fatal("expected the original candidate to score")
	}
	recSwapped, ok := runner.scoreCandidate(swapped, spectrum, autoCorr)
	if !ok {
		t.Fatal("expected the swapped candidate to score")
	}

	if math.Abs(rec.Composite-recSwapped.Composite) > 1e-6 {
		t.Errorf("composite scores differ after alpha/beta swap: %v vs %v", rec.Composite, recSwapped.Composite)
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	cfg := config.Default()
	runner := NewRunner(nil, nil, cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	spectra := []xlink.ObservedSpectrum{{NativeID: "x", Precursor: xlink.Precursor{Mass: 1000, Charge: 3}}}
	results := runner.Run(ctx, spectra)
	if runner.Progress().SpectraSkipped == 0 {
		t.Error("expected at least one spectrum to be skipped after cancellation")
	}
	if len(results[0].Matches) != 0 {
		t.Error("expected empty result for a cancelled spectrum")
	}
}
