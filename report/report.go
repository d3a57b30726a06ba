/*
Package report renders ranked cross-link matches as a human-readable
table for terminal output.
*/
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/mitchellh/go-wordwrap"
	"github.com/olekukonko/tablewriter"

	"github.com/openxlink/xlinkid/xlink"
)

// WrapWidth bounds the sequence and annotation columns so long peptides
// don't blow out terminal width.
const WrapWidth = 40

// PrintResults prints one table per observed spectrum's ranked match set
// to w. includeAnnotations additionally prints matched fragment-ion
// labels, which can be verbose for densely matched spectra.
func PrintResults(w io.Writer, results []xlink.SpectrumResult, includeAnnotations bool) {
	for _, result := range results {
		if len(result.Matches) == 0 {
			continue
		}
		fmt.Fprintf(w, "Spectrum %s (index %d)\n", result.NativeID, result.SpectrumIndex)

		table := tablewriter.NewWriter(w)
		table.SetRowLine(true)
		table.SetAutoFormatHeaders(false)

		header := []string{"Rank", "Kind", "Alpha", "Beta", "Composite", "PreScore", "MatchOdds", "wTIC", "IntSum", "xcorrC", "xcorrX"}
		if includeAnnotations {
			header = append(header, "Matched ions")
		}
		table.SetHeader(header)

		for i, m := range result.Matches {
			row := []string{
				strconv.Itoa(i + 1),
				m.Kind.String(),
				wordwrap.WrapString(m.AlphaSequence, WrapWidth),
				wordwrap.WrapString(m.BetaSequence, WrapWidth),
				formatFloat(m.Composite),
				formatFloat(m.Scores.PreScore),
				formatFloat(m.Scores.MatchOdds),
				formatFloat(m.Scores.WTIC),
				formatFloat(m.Scores.IntSum),
				formatFloat(m.Scores.XCorrC),
				formatFloat(m.Scores.XCorrX),
			}
			if includeAnnotations {
				row = append(row, wordwrap.WrapString(annotationLabels(m.Annotations), WrapWidth))
			}
			table.Append(row)
		}
		table.Render()
		fmt.Fprintln(w)
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}

func annotationLabels(annotations []xlink.FragmentAnnotation) string {
	out := ""
	for i, a := range annotations {
		if i > 0 {
			out += ", "
		}
		out += a.Label
	}
	return out
}
