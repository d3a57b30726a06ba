package config

import "testing"

func TestToleranceDaltonPPM(t *testing.T) {
	got := ToleranceDalton(1000.0, 10, PPM)
	want := 1000.0 * 10 * 1e-6
	if got != want {
		t.Errorf("ToleranceDalton(1000, 10ppm) = %v, want %v", got, want)
	}
}

func TestToleranceDaltonFlat(t *testing.T) {
	if got := ToleranceDalton(1000.0, 0.02, Dalton); got != 0.02 {
		t.Errorf("ToleranceDalton(1000, 0.02Da) = %v, want 0.02", got)
	}
}

func TestDefaultAnchorSides(t *testing.T) {
	cfg := Default()
	side1 := cfg.AnchorSide1()
	if !side1.Contains('K') {
		t.Error("default side-1 anchor set should contain K")
	}
}
