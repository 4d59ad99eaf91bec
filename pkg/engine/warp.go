package engine

import "math"

// beatEpsilon absorbs measurement noise in sample durations so a take a
// few milliseconds past a bar boundary does not inflate to the next bar.
const beatEpsilon = 0.05

// WarpDecision is the derived playback setup for one sample.
type WarpDecision struct {
	BeatCount int
	Cell      CellMode
	LoopMode  bool
}

// BeatCount converts a measured duration to whole beats at the project
// tempo. Values of a bar or more round up to the next multiple of 4;
// anything shorter truncates so one-shots are not inflated to a full bar.
func BeatCount(durationSeconds, tempoBPM float64) int {
	if durationSeconds <= 0 || tempoBPM <= 0 {
		return 0
	}
	raw := durationSeconds * tempoBPM / 60
	if raw < 4 {
		return int(raw)
	}
	return int(math.Ceil((raw-beatEpsilon)/4)) * 4
}

// DeriveWarp decides beat count and playback mode for one sample.
// Clip playback needs both the warp flag and at least two bars; a warped
// sample shorter than that loops in the sampler engine instead. Unwarped
// samples never loop automatically.
func DeriveWarp(durationSeconds, tempoBPM float64, warped bool) WarpDecision {
	beats := BeatCount(durationSeconds, tempoBPM)

	switch {
	case warped && beats >= 8:
		return WarpDecision{BeatCount: beats, Cell: CellClip, LoopMode: true}
	case warped:
		return WarpDecision{BeatCount: beats, Cell: CellSample, LoopMode: true}
	}
	return WarpDecision{BeatCount: beats, Cell: CellSample, LoopMode: false}
}

// LoopBeatCount derives a beat count from a manually looped region when
// no warp information exists. The region is in sample frames.
func LoopBeatCount(loop Loop, sampleRateHz int, tempoBPM float64) int {
	if !loop.Enabled || sampleRateHz <= 0 {
		return 0
	}
	frames := loop.End - loop.Start
	if frames <= 0 {
		return 0
	}
	seconds := frames / float64(sampleRateHz)
	beats := seconds * tempoBPM / 60
	return int(math.Round(beats))
}
