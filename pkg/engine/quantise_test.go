package engine

import (
	"reflect"
	"testing"
)

func TestAnalyzeStraight(t *testing.T) {
	cfg := DefaultAnalyzerConfig()

	tests := []struct {
		name   string
		onsets []float64
		want   Verdict
	}{
		{
			"empty pattern defaults to sixteenths",
			nil,
			Verdict{Kind: StraightQuantised, Divisor: 4},
		},
		{
			"exact sixteenth grid",
			[]float64{0, 0.25, 0.5, 0.75, 1.0, 1.25, 1.5},
			Verdict{Kind: StraightQuantised, Divisor: 4},
		},
		{
			"thirty-second grid needs the finer divisor",
			[]float64{0, 0.125, 0.25, 0.375},
			Verdict{Kind: StraightQuantised, Divisor: 8},
		},
		{
			"whole beats fit both families, straight wins",
			[]float64{0, 1, 2, 3},
			Verdict{Kind: StraightQuantised, Divisor: 4},
		},
		{
			"slight jitter within tolerance",
			[]float64{0.002, 0.251, 0.498, 0.749},
			Verdict{Kind: StraightQuantised, Divisor: 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, warns := cfg.Analyze(tt.onsets)
			if len(warns) != 0 {
				t.Errorf("Analyze() warnings = %v, want none", warns)
			}
			if got != tt.want {
				t.Errorf("Analyze(%v) = %+v, want %+v", tt.onsets, got, tt.want)
			}
		})
	}
}

func TestAnalyzeTriplet(t *testing.T) {
	cfg := DefaultAnalyzerConfig()

	third := 1.0 / 3
	onsets := []float64{0, third, 2 * third, 1, 1 + third}

	got, warns := cfg.Analyze(onsets)
	if len(warns) != 0 {
		t.Errorf("Analyze() warnings = %v, want none", warns)
	}
	want := Verdict{Kind: TripletQuantised, Divisor: 3}
	if got != want {
		t.Errorf("Analyze() = %+v, want %+v", got, want)
	}
}

func TestAnalyzeUnquantised(t *testing.T) {
	cfg := DefaultAnalyzerConfig()

	tests := []struct {
		name   string
		onsets []float64
	}{
		{"free timing", []float64{0.11, 0.37, 0.632, 1.04}},
		{"half straight half triplet", []float64{1.0 / 16, 1.0 / 12, 5.0 / 16, 5.0 / 12, 9.0 / 16, 7.0 / 12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := cfg.Analyze(tt.onsets)
			if got.Kind != Unquantised {
				t.Errorf("Analyze(%v) = %+v, want Unquantised", tt.onsets, got)
			}
			if got.Divisor != 0 {
				t.Errorf("Unquantised divisor = %d, want 0", got.Divisor)
			}
		})
	}
}

func TestAnalyzeAmbiguousPattern(t *testing.T) {
	// Loosened thresholds let both families qualify on disjoint subsets;
	// the verdict must refuse to pick a side.
	cfg := AnalyzerConfig{Tolerance: 0.05, FitRatio: 0.5, MixedCutoff: 0.3}

	onsets := []float64{1.0 / 16, 1.0 / 12, 5.0 / 16, 5.0 / 12}
	got, warns := cfg.Analyze(onsets)

	if got.Kind != Unquantised {
		t.Fatalf("Analyze() = %+v, want Unquantised", got)
	}
	if len(warns) != 1 || warns[0].Kind != WarnAmbiguousQuantisation {
		t.Fatalf("warnings = %v, want one AmbiguousQuantisation", warns)
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	cfg := DefaultAnalyzerConfig()
	onsets := []float64{0, 0.27, 0.5, 0.733, 1.01, 1.5}

	first, firstWarns := cfg.Analyze(onsets)
	for i := 0; i < 10; i++ {
		got, warns := cfg.Analyze(onsets)
		if got != first || !reflect.DeepEqual(warns, firstWarns) {
			t.Fatalf("run %d: Analyze() = %+v %v, want %+v %v", i, got, warns, first, firstWarns)
		}
	}
}
