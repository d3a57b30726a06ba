package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/openxlink/xlinkid/config"
	"github.com/openxlink/xlinkid/digest"
	"github.com/openxlink/xlinkid/pipeline"
	"github.com/openxlink/xlinkid/report"
	"github.com/openxlink/xlinkid/seqio/fasta"
	"github.com/openxlink/xlinkid/xlink"
)

/******************************************************************************

File is structured as so:

	Top level commands:
		Digest
		Run
		Report

	Helper functions

This file contains the code that runs when command line routines are
invoked. Argument flags and helper text for each command are defined in
main.go, which then calls the corresponding function in this file. That
keeps main.go clean and readable.

******************************************************************************/

// loadConfig resolves the -config global flag into a Config, falling back
// to Default() when unset, then applies the -workers global override.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}
	if workers := c.Int("workers"); workers > 0 {
		cfg.NumWorkers = workers
	}
	if algorithm := c.String("hash"); algorithm != "" {
		cfg.HashAlgorithm = algorithm
	}
	return cfg, nil
}

/******************************************************************************

digest reads a protein FASTA file and prints every modified peptide
candidate the Digestor produces for it.

	xlinkid digest -protein proteins.fasta

******************************************************************************/
func digestCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	cfg.MaxMissedCleavages = c.Int("missed-cleavages")

	records, err := fasta.Read(c.String("protein"))
	if err != nil {
		return fmt.Errorf("reading protein fasta: %w", err)
	}

	enzyme := digest.Trypsin()
	enzyme.MissedCleavages = cfg.MaxMissedCleavages
	enzyme.MinPeptideSize = cfg.MinPeptideSize

	var allPeptides []xlink.Peptide
	for _, rec := range records {
		allPeptides = append(allPeptides, digest.Digest(rec.Sequence, enzyme, cfg)...)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(allPeptides)
}

/******************************************************************************

run digests the supplied protein(s), enumerates precursor-tolerance-
surviving cross-link species across the supplied observed spectra, scores
every concrete candidate against each spectrum, and writes the ranked
match report either as a table or as JSON.

	xlinkid run -protein proteins.fasta -spectra spectra.json -format table

******************************************************************************/
func runCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	records, err := fasta.Read(c.String("protein"))
	if err != nil {
		return fmt.Errorf("reading protein fasta: %w", err)
	}

	spectra, err := readSpectra(c.String("spectra"))
	if err != nil {
		return fmt.Errorf("reading spectra: %w", err)
	}

	enzyme := digest.Trypsin()
	enzyme.MissedCleavages = cfg.MaxMissedCleavages
	enzyme.MinPeptideSize = cfg.MinPeptideSize

	var peptides []xlink.Peptide
	for _, rec := range records {
		peptides = append(peptides, digest.Digest(rec.Sequence, enzyme, cfg)...)
	}

	species := pipeline.EnumerateSpecies(peptides, spectra, cfg)
	runner := pipeline.NewRunner(peptides, species, cfg, nil)
	results := runner.Run(context.Background(), spectra)

	return writeResults(c, results)
}

func writeResults(c *cli.Context, results []xlink.SpectrumResult) error {
	out := os.Stdout
	if path := c.String("out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	switch c.String("format") {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	default:
		report.PrintResults(out, results, false)
		return nil
	}
}

/******************************************************************************

report renders a previously produced JSON ranked-match file as a
human-readable table.

	xlinkid report -in results.json -annotations

******************************************************************************/
func reportCommand(c *cli.Context) error {
	data, err := os.ReadFile(c.String("in"))
	if err != nil {
		return fmt.Errorf("reading ranked-match file: %w", err)
	}

	var results []xlink.SpectrumResult
	if err := json.Unmarshal(data, &results); err != nil {
		return fmt.Errorf("parsing ranked-match file: %w", err)
	}

	report.PrintResults(os.Stdout, results, c.Bool("annotations"))
	return nil
}

// readSpectra loads observed spectra from a JSON file, a flat array of
// xlink.ObservedSpectrum values.
func readSpectra(path string) ([]xlink.ObservedSpectrum, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var spectra []xlink.ObservedSpectrum
	if err := json.Unmarshal(data, &spectra); err != nil {
		return nil, err
	}
	for i := range spectra {
		sort.Slice(spectra[i].Peaks, func(a, b int) bool { return spectra[i].Peaks[a].MZ < spectra[i].Peaks[b].MZ })
	}
	return spectra, nil
}
