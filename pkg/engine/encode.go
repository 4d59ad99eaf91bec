package engine

import (
	"fmt"
	"math"
)

// Tick and step limits of the target format.
const (
	// TicksPerBeatFine is used for quantised Pads sequences.
	TicksPerBeatFine = 3840
	// TicksPerBeatCoarse is used for Keys, MIDI and any unquantised
	// sequence; lengths are then precise tick spans.
	TicksPerBeatCoarse = 960

	MaxStepCount = 256
	MaxStepIndex = 255

	// PadChannelBase offsets slot ordinals in Pads-mode channel values.
	PadChannelBase = 256
)

// stepRes pairs a straight steps-per-beat value with its step-length
// code in the target format. Ordered finest to coarsest; the encoder
// walks it when a pattern would exceed MaxStepCount.
type stepRes struct {
	stepsPerBeat float64
	code         int
}

var straightLadder = []stepRes{
	{16, 14},      // 1/64
	{8, 12},       // 1/32
	{4, 10},       // 1/16
	{2, 8},        // 1/8
	{1, 6},        // 1/4
	{0.5, 4},      // 1/2
	{0.25, 3},     // 1 bar
	{0.125, 2},    // 2 bars
	{0.0625, 1},   // 4 bars
	{0.03125, 0},  // 8 bars
}

// Triplet divisors sit in the step-length band of their straight
// equivalent (divisor scaled by 2/3): 1/8T, 1/16T, 1/32T.
var tripletCodes = map[int]int{3: 9, 6: 11, 12: 13}

// EncodeSequence turns one clip into target-format events under the
// resolved routing and quantisation verdict.
//
// The tick resolution is keyed purely off (mode, verdict), never off a
// global switch: a quantised Pads sequence encodes at 3840 ticks/beat
// with step-count lengths, everything else at 960 ticks/beat with
// precise tick-span lengths.
func EncodeSequence(r Routing, verdict Verdict, clip Clip, t Tables) (EncodedSequence, []Warning) {
	var warns []Warning

	quantised := verdict.Kind != Unquantised
	padsQuant := r.Mode == ModePads && quantised

	tpb := TicksPerBeatCoarse
	if padsQuant {
		tpb = TicksPerBeatFine
	}

	spb := 4.0 // display granularity for unquantised patterns: 1/16
	triplet := false
	if quantised {
		spb = float64(verdict.Divisor)
		triplet = verdict.Kind == TripletQuantised
	}

	length := clip.LengthBeats
	if length <= 0 {
		length = 4 // defensive: one bar
	}

	stepCount := int(math.Ceil(length * spb))
	if stepCount < 1 {
		stepCount = 1
	}

	// Coarsen through the straight ladder until the pattern fits the
	// step cap. A triplet grid that overflows degrades to its straight
	// equivalent before coarsening further.
	if stepCount > MaxStepCount {
		origSpb := spb
		if triplet {
			spb = spb * 2 / 3
			triplet = false
		}
		fitted := false
		for _, res := range straightLadder {
			if res.stepsPerBeat > spb {
				continue
			}
			stepCount = int(math.Ceil(length * res.stepsPerBeat))
			if stepCount >= 1 && stepCount <= MaxStepCount {
				spb = res.stepsPerBeat
				fitted = true
				break
			}
		}
		if fitted {
			warns = append(warns, Warning{
				Kind: WarnStepCountOverflow,
				Message: fmt.Sprintf("%.4g beats at %.4g steps/beat exceeds %d steps, coarsened to %.4g steps/beat",
					length, origSpb, MaxStepCount, spb),
			})
		} else {
			coarsest := straightLadder[len(straightLadder)-1]
			spb = coarsest.stepsPerBeat
			stepCount = MaxStepCount
			warns = append(warns, Warning{
				Kind: WarnStepCountOverflow,
				Message: fmt.Sprintf("%.4g beats does not fit %d steps at any resolution, pattern truncated",
					length, MaxStepCount),
			})
		}
	}
	if stepCount < 1 {
		stepCount = 1
	}

	seq := EncodedSequence{
		Mode:         r.Mode,
		TargetSlot:   -1,
		TicksPerBeat: tpb,
		StepLength:   stepLengthCode(spb, triplet),
		StepCount:    stepCount,
		Verdict:      verdict,
	}
	switch r.Mode {
	case ModeKeys:
		seq.TargetSlot = r.Target
	case ModeMIDI:
		seq.MidiChannel = r.Target
	}

	dropped := 0
	for _, ev := range clip.Events {
		step := int(math.Round(ev.Beat * spb))
		if step < 0 || step > MaxStepIndex {
			dropped++
			continue
		}
		if step >= stepCount {
			// rounding at the loop boundary
			step = stepCount - 1
		}

		enc := EncodedEvent{Step: step, Velocity: ev.Velocity}

		if padsQuant {
			ticksPerStep := float64(tpb) / spb
			enc.StartTicks = int(math.Round(float64(step) * ticksPerStep))
			enc.LengthCount = int(math.Round(ev.Duration * spb))
			if enc.LengthCount < 1 {
				enc.LengthCount = 1
			}
			enc.LengthTicks = int(math.Round(float64(enc.LengthCount) * ticksPerStep))
		} else {
			enc.StartTicks = int(math.Round(ev.Beat * float64(tpb)))
			enc.LengthTicks = int(math.Round(ev.Duration * float64(tpb)))
			if enc.StartTicks < 0 {
				enc.StartTicks = 0
			}
		}

		switch r.Mode {
		case ModePads:
			enc.Channel = PadChannelBase + t.NoteToOrdinal(ev.Pitch)
			enc.Pitch = 0 // slot addressing lives entirely in the channel
		case ModeKeys:
			enc.Channel = PadChannelBase
			enc.Pitch = ev.Pitch
		case ModeMIDI:
			enc.Channel = r.Target
			enc.Pitch = ev.Pitch
		}

		seq.Events = append(seq.Events, enc)
	}

	if dropped > 0 {
		warns = append(warns, Warning{
			Kind:    WarnStepCountOverflow,
			Message: fmt.Sprintf("%d events past step %d dropped", dropped, MaxStepIndex),
		})
	}

	return seq, warns
}

func stepLengthCode(spb float64, triplet bool) int {
	if triplet {
		if code, ok := tripletCodes[int(spb)]; ok {
			return code
		}
	}
	for _, res := range straightLadder {
		if res.stepsPerBeat == spb {
			return res.code
		}
	}
	return 10 // 1/16
}
