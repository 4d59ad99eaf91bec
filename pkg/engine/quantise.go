package engine

import (
	"fmt"
	"math"
)

// QuantKind classifies a pattern's timing.
type QuantKind int

const (
	StraightQuantised QuantKind = iota
	TripletQuantised
	Unquantised
)

func (k QuantKind) String() string {
	switch k {
	case StraightQuantised:
		return "straight"
	case TripletQuantised:
		return "triplet"
	}
	return "unquantised"
}

// Verdict is the quantisation classification of one onset set.
// Divisor is steps per beat and is zero for Unquantised.
type Verdict struct {
	Kind    QuantKind
	Divisor int
}

// Candidate divisors in ascending fineness. Straight divisors are
// steps per beat (4 = 1/16 notes); triplet divisors likewise
// (6 = triplet 16ths).
var (
	straightDivisors = []int{4, 8, 16}
	tripletDivisors  = []int{3, 6, 12}
)

// AnalyzerConfig carries the alignment heuristics. The thresholds were
// reverse-engineered from captured hardware sequences, not a published
// format document, so they are deliberately tunable.
type AnalyzerConfig struct {
	// Tolerance is the maximum distance from a grid line for an onset to
	// fit, as a fraction of the step being tested.
	Tolerance float64
	// FitRatio is the share of onsets that must fit a divisor for its
	// family to qualify.
	FitRatio float64
	// MixedCutoff is the exclusive-onset share above which a pattern
	// aligned to both families is declared mixed.
	MixedCutoff float64
}

// DefaultAnalyzerConfig returns the validated default thresholds.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{Tolerance: 0.05, FitRatio: 0.95, MixedCutoff: 0.30}
}

// Analyze classifies an onset set (beats) as straight-quantised,
// triplet-quantised or unquantised. The verdict is a pure function of
// the onset set and the configured thresholds.
//
// Each family is accepted at the coarsest divisor that still fits at
// least FitRatio of the onsets. A pattern that qualifies for both
// families with more than MixedCutoff of onsets exclusive to each is
// mixed and never forced onto one grid.
func (cfg AnalyzerConfig) Analyze(onsets []float64) (Verdict, []Warning) {
	if len(onsets) == 0 {
		return Verdict{Kind: StraightQuantised, Divisor: straightDivisors[0]}, nil
	}

	straightDiv, straightOK := cfg.qualify(onsets, straightDivisors)
	tripletDiv, tripletOK := cfg.qualify(onsets, tripletDivisors)

	if straightOK && tripletOK {
		straightOnly, tripletOnly := cfg.exclusiveShares(onsets, straightDiv, tripletDiv)
		if straightOnly > cfg.MixedCutoff && tripletOnly > cfg.MixedCutoff {
			return Verdict{Kind: Unquantised}, []Warning{{
				Kind: WarnAmbiguousQuantisation,
				Message: fmt.Sprintf("pattern is %.0f%% straight-only and %.0f%% triplet-only, keeping precise timing",
					straightOnly*100, tripletOnly*100),
			}}
		}
	}

	switch {
	case tripletOK && !straightOK:
		return Verdict{Kind: TripletQuantised, Divisor: tripletDiv}, nil
	case straightOK:
		return Verdict{Kind: StraightQuantised, Divisor: straightDiv}, nil
	}
	return Verdict{Kind: Unquantised}, nil
}

// qualify returns the coarsest divisor of a family that fits at least
// FitRatio of the onsets. Grids of one family nest, so the first
// qualifying divisor in ascending fineness is the coarsest.
func (cfg AnalyzerConfig) qualify(onsets []float64, divisors []int) (int, bool) {
	for _, div := range divisors {
		fit := 0
		for _, onset := range onsets {
			if cfg.fits(onset, div) {
				fit++
			}
		}
		if float64(fit)/float64(len(onsets)) >= cfg.FitRatio {
			return div, true
		}
	}
	return 0, false
}

// fits reports whether an onset lies within Tolerance of the nearest
// grid line at the given divisor, measured in step units.
func (cfg AnalyzerConfig) fits(onset float64, divisor int) bool {
	pos := onset * float64(divisor)
	return math.Abs(pos-math.Round(pos)) <= cfg.Tolerance
}

// exclusiveShares computes the fraction of onsets that fit only the
// straight grid and only the triplet grid. Onsets on shared lines
// (whole beats) count toward neither, so two families describing the
// same subset are not flagged as mixed.
func (cfg AnalyzerConfig) exclusiveShares(onsets []float64, straightDiv, tripletDiv int) (straightOnly, tripletOnly float64) {
	var s, t int
	for _, onset := range onsets {
		inStraight := cfg.fits(onset, straightDiv)
		inTriplet := cfg.fits(onset, tripletDiv)
		switch {
		case inStraight && !inTriplet:
			s++
		case inTriplet && !inStraight:
			t++
		}
	}
	n := float64(len(onsets))
	return float64(s) / n, float64(t) / n
}
