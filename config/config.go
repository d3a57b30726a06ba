/*
Package config defines the single explicit configuration record threaded
through every pipeline component; no component relies on a process-wide
singleton.
*/
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/openxlink/xlinkid/residue"
)

// ToleranceUnit selects whether a tolerance is interpreted in parts per
// million of the measured mass or as an absolute Dalton value.
type ToleranceUnit int

const (
	PPM ToleranceUnit = iota
	Dalton
)

// UnmarshalYAML lets config files spell the unit as "ppm" or "da".
func (u *ToleranceUnit) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch s {
	case "ppm", "PPM":
		*u = PPM
	default:
		*u = Dalton
	}
	return nil
}

// ScoreWeights are the composite-score coefficients. They are empirically
// tuned per linker chemistry, so they stay configurable rather than
// hard-coded into the scorer.
type ScoreWeights struct {
	XCorrX    float64 `yaml:"xcorr_xlink"`
	XCorrC    float64 `yaml:"xcorr_common"`
	MatchOdds float64 `yaml:"match_odds"`
	WTIC      float64 `yaml:"wtic"`
	IntSum    float64 `yaml:"int_sum"`
}

// DefaultScoreWeights are the coefficients tuned for DSS-style
// homobifunctional amine-reactive linkers. The match-odds weight is
// deliberately small: at high mass resolution that sub-score saturates.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		XCorrX:    2.488,
		XCorrC:    21.279,
		MatchOdds: 0.1,
		WTIC:      12.829,
		IntSum:    1.8,
	}
}

// FragmentOptions are the recognized Fragment Spectrum Generator flags.
type FragmentOptions struct {
	AddIsotopes             bool `yaml:"add_isotopes"`
	MaxIsotope              int  `yaml:"max_isotope"`
	AddLosses               bool `yaml:"add_losses"`
	AddPrecursorPeaks       bool `yaml:"add_precursor_peaks"`
	AddAbundantImmoniumIons bool `yaml:"add_abundant_immonium_ions"`
	AddFirstPrefixIon       bool `yaml:"add_first_prefix_ion"`
	AddAIons                bool `yaml:"add_a_ions"`
	AddBIons                bool `yaml:"add_b_ions"`
	AddCIons                bool `yaml:"add_c_ions"`
	AddXIons                bool `yaml:"add_x_ions"`
	AddYIons                bool `yaml:"add_y_ions"`
	AddZIons                bool `yaml:"add_z_ions"`
}

// DefaultFragmentOptions enables the standard b/y ladder only.
func DefaultFragmentOptions() FragmentOptions {
	return FragmentOptions{
		MaxIsotope: 2,
		AddBIons:   true,
		AddYIons:   true,
	}
}

// Config is the explicit configuration record passed into every pipeline
// component.
type Config struct {
	PrecursorTolerance     float64       `yaml:"precursor_tol"`
	PrecursorToleranceUnit ToleranceUnit `yaml:"precursor_tol_unit"`

	FragmentTolerance       float64       `yaml:"fragment_tol"`
	FragmentToleranceUnit   ToleranceUnit `yaml:"fragment_tol_unit"`
	FragmentToleranceXLinks float64       `yaml:"fragment_tol_xlinks"`

	MinPrecursorCharge int `yaml:"min_pc"`
	MaxPrecursorCharge int `yaml:"max_pc"`
	MinPeptideSize     int `yaml:"min_peptide_size"`

	AnchorResiduesSide1 string `yaml:"anchor_residues_side1"`
	AnchorResiduesSide2 string `yaml:"anchor_residues_side2"`

	LinkerMass     float64   `yaml:"linker_mass"`
	MonoLinkMasses []float64 `yaml:"mono_link_masses"`

	TopK            int     `yaml:"top_k"`
	IntensityCutoff float64 `yaml:"intensity_cutoff"`

	AllowNTermLinking bool `yaml:"allow_n_term_linking"`
	AllowCTermLinking bool `yaml:"allow_c_term_linking"`

	// MaxVariableModsPerPeptide bounds the Cartesian product of variable
	// modifications per digested peptide.
	MaxVariableModsPerPeptide int `yaml:"max_variable_mods_per_peptide"`
	// MaxModCombinationsPerPeptide is the safety cap beyond which the
	// Digestor switches from exhaustive enumeration to weighted-random
	// sampling of the modification product.
	MaxModCombinationsPerPeptide int `yaml:"max_mod_combinations_per_peptide"`

	FixedModifications    []residue.Modification `yaml:"-"`
	VariableModifications []residue.Modification `yaml:"-"`

	MaxMissedCleavages int `yaml:"max_missed_cleavages"`

	Weights ScoreWeights `yaml:"weights"`

	FragmentOptions FragmentOptions `yaml:"fragment_options"`

	// NumWorkers bounds the spectrum-level worker pool. 0 means "use
	// runtime.GOMAXPROCS(0)".
	NumWorkers int `yaml:"num_workers"`

	// HashAlgorithm names the content-hash function for match
	// fingerprints: blake3 (default), blake2b_256, or blake2b_512.
	HashAlgorithm string `yaml:"hash_algorithm"`
}

// Default returns a Config tuned for a DSS-style lysine-reactive linker.
func Default() Config {
	return Config{
		PrecursorTolerance:           10,
		PrecursorToleranceUnit:       PPM,
		FragmentTolerance:            20,
		FragmentToleranceUnit:        PPM,
		FragmentToleranceXLinks:      20,
		MinPrecursorCharge:           2,
		MaxPrecursorCharge:           8,
		MinPeptideSize:               4,
		AnchorResiduesSide1:          "K",
		AnchorResiduesSide2:          "K",
		LinkerMass:                   138.0680796,
		MonoLinkMasses:               []float64{156.0786},
		TopK:                         5,
		IntensityCutoff:              0.1,
		MaxVariableModsPerPeptide:    2,
		MaxModCombinationsPerPeptide: 1024,
		MaxMissedCleavages:           2,
		Weights:                      DefaultScoreWeights(),
		FragmentOptions:              DefaultFragmentOptions(),
		HashAlgorithm:                "blake3",
	}
}

// Load reads a YAML config file, starting from Default() so any field the
// file omits keeps its default value.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// AnchorSide1 builds the side-1 anchor set.
func (c Config) AnchorSide1() residue.AnchorSet { return residue.NewAnchorSet(c.AnchorResiduesSide1) }

// AnchorSide2 builds the side-2 anchor set.
func (c Config) AnchorSide2() residue.AnchorSet { return residue.NewAnchorSet(c.AnchorResiduesSide2) }

// ToleranceDalton converts a tolerance (precursor or fragment) into an
// absolute Dalton window around mass: mass * tol * 1e-6 for ppm, the
// Dalton value itself otherwise.
func ToleranceDalton(mass, tol float64, unit ToleranceUnit) float64 {
	if unit == PPM {
		return mass * tol * 1e-6
	}
	return tol
}
