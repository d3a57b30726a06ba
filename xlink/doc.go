/*
Package xlink is a Go package for cross-linked peptide identification.

Tandem mass spectrometry with chemical cross-linking lets you ask which two
peptides, joined by a reagent at specific residues, best explain an observed
fragmentation spectrum. Doing that well means combinatorially enumerating
candidate peptide pairs against observed precursor masses, generating a
theoretical fragment spectrum for each candidate, aligning it against the
observation under a mass tolerance, and scoring the alignment.

xlink provides the shared vocabulary (Peptide, ObservedSpectrum,
CrossLinkCandidate, MatchRecord, ...) used across its subpackages:

  - digest enumerates peptide candidates from a protein sequence.
  - precursor enumerates cross-link species within precursor tolerance.
  - candidate expands species into concrete anchor-site candidates.
  - fragment generates theoretical spectra for a candidate.
  - align matches theoretical against observed peaks.
  - score combines sub-scores into a ranked result per spectrum.
  - pipeline wires the above into a worker pool across spectra.

Everything outside of these packages (mzML parsing, FDR estimation,
result serialization to idXML/mzIdentML/xquest.xml) is treated as an
external collaborator: xlink consumes an already-parsed peptide list and
spectrum list and emits ranked match records.
*/
package xlink
