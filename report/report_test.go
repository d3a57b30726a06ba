package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/openxlink/xlinkid/xlink"
)

func TestPrintResultsSkipsEmptyMatchSets(t *testing.T) {
	var buf bytes.Buffer
	results := []xlink.SpectrumResult{
		{SpectrumIndex: 0, NativeID: "empty"},
		{SpectrumIndex: 1, NativeID: "hasMatch", Matches: []xlink.MatchRecord{
			{AlphaSequence: "PEPTIDEK", Composite: 12.5, Kind: xlink.Mono},
		}},
	}

	PrintResults(&buf, results, false)
	out := buf.String()

	if strings.Contains(out, "empty") {
		t.Error("expected spectrum with no matches to be skipped entirely")
	}
	if !strings.Contains(out, "hasMatch") {
		t.Error("expected spectrum with matches to be printed")
	}
	if !strings.Contains(out, "PEPTIDEK") {
		t.Error("expected alpha sequence in rendered table")
	}
}

func TestPrintResultsWithAnnotations(t *testing.T) {
	var buf bytes.Buffer
	results := []xlink.SpectrumResult{{
		SpectrumIndex: 0,
		NativeID:      "s1",
		Matches: []xlink.MatchRecord{{
			AlphaSequence: "PEPTIDEK",
			Kind:          xlink.Cross,
			Annotations:   []xlink.FragmentAnnotation{{Label: "b3"}, {Label: "y5"}},
		}},
	}}

	PrintResults(&buf, results, true)
	out := buf.String()
	if !strings.Contains(out, "b3") || !strings.Contains(out, "y5") {
		t.Error("expected matched ion labels in annotated report")
	}
}
