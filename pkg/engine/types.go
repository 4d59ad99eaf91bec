// Package engine implements the conversion core: chain-to-slot mapping,
// routing resolution, grid-alignment analysis, tick/step encoding and
// warped-sample beat derivation. Every function in this package is pure;
// warnings are returned as values and logged by the caller.
package engine

import "errors"

// TriggerMode mirrors the Simpler trigger setting.
type TriggerMode int

const (
	TriggerGate TriggerMode = iota
	TriggerOneShot
	TriggerToggle
)

// Loop describes a sample's loop region in sample frames.
type Loop struct {
	Start   float64
	End     float64
	Enabled bool
}

// Envelope holds the amplitude envelope extracted from a Simpler.
// Attack/Decay/Release are milliseconds, Sustain is a 0..1 ratio.
type Envelope struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// SampleInfo describes the audio asset referenced by a chain.
type SampleInfo struct {
	Path            string
	DurationSeconds float64
	SampleRateHz    int
	LengthSamples   int
	Warped          bool
	Trigger         TriggerMode
	Loop            Loop
	Envelope        Envelope
	Missing         bool // referenced asset could not be located
}

// Chain is one instrument slot inside a rack. Ordinal is fixed at
// extraction time from rack order and never reassigned.
type Chain struct {
	Ordinal    int
	BranchID   int
	MidiNote   int // rack trigger note; -1 when unknown
	ChokeGroup int // 0 = none, 1-4 = exclusive groups
	Name       string
	Sample     *SampleInfo // nil for an empty slot
}

// NoteEvent is one note in a sequence clip. Times are beats.
type NoteEvent struct {
	Beat     float64
	Duration float64
	Pitch    int
	Velocity int
}

// Clip is one session clip of a sequence track (one A-D sub-layer).
type Clip struct {
	Events      []NoteEvent
	LengthBeats float64
}

// SequenceTrack is the per-track input: the output-routing descriptor
// string plus up to four clips mapped to sub-layers A-D.
type SequenceTrack struct {
	Name    string
	Routing string
	Clips   []Clip
}

// Project is the immutable input to ConvertProject.
type Project struct {
	TempoBPM float64
	Chains   []Chain
	Tracks   []SequenceTrack
}

// SequenceMode selects one of the three mutually exclusive playback modes.
type SequenceMode int

const (
	// ModePads triggers multiple slots from one sequence; the per-event
	// channel selects the slot.
	ModePads SequenceMode = iota
	// ModeKeys plays one resolved slot chromatically.
	ModeKeys
	// ModeMIDI emits to an external channel, no slot target.
	ModeMIDI
)

func (m SequenceMode) String() string {
	switch m {
	case ModePads:
		return "Pads"
	case ModeKeys:
		return "Keys"
	case ModeMIDI:
		return "MIDI"
	}
	return "unknown"
}

// CellMode selects the Blackbox pad playback engine.
type CellMode int

const (
	CellSample CellMode = iota
	CellClip
)

// EncodedEvent is one sequencer event in the target format.
type EncodedEvent struct {
	Step        int
	Channel     int
	Pitch       int
	StartTicks  int
	LengthTicks int
	LengthCount int // >0 only for step-count encoded lengths
	Velocity    int
}

// EncodedSequence is one encoded sub-layer.
type EncodedSequence struct {
	Mode         SequenceMode
	TargetSlot   int // resolved ordinal for Keys mode, -1 otherwise
	MidiChannel  int // external channel for MIDI mode, 0 otherwise
	TicksPerBeat int
	StepLength   int // target format step-length code
	StepCount    int
	Verdict      Verdict
	Events       []EncodedEvent
}

// TrackResult groups the four encoded sub-layers of one sequence track.
type TrackResult struct {
	Ordinal     int // grid position of the sequence cell
	Row         int
	Column      int
	Mode        SequenceMode
	TargetSlot  int
	MidiChannel int
	ActiveLayer int // first sub-layer carrying events
	Layers      [4]EncodedSequence
	HasEvents   [4]bool
}

// Pad is one resolved output pad slot.
type Pad struct {
	Ordinal    int
	Row        int
	Column     int
	Empty      bool
	SamplePath string
	SampleLen  int
	ChokeGroup int
	Cell       CellMode
	LoopMode   bool
	BeatCount  int
	Trigger    TriggerMode
	LoopStart  float64
	LoopEnd    float64
	Envelope   Envelope
}

// Result is the full conversion output for one project.
type Result struct {
	TempoBPM  float64
	Pads      [GridSlots]Pad
	Tracks    []TrackResult
	Warnings  []Warning
	AssetPath []string // unique sample paths referenced by non-empty pads
}

// WarningKind identifies a recovered error condition.
type WarningKind string

const (
	WarnDuplicateBranchID     WarningKind = "DuplicateBranchId"
	WarnUnresolvableBranchID  WarningKind = "UnresolvableBranchId"
	WarnAmbiguousQuantisation WarningKind = "AmbiguousQuantisation"
	WarnStepCountOverflow     WarningKind = "StepCountOverflow"
	WarnMissingSampleAsset    WarningKind = "MissingSampleAsset"
	WarnMultisample           WarningKind = "MultisamplePad"
)

// Warning is a structured, non-fatal diagnostic. No recovery path in the
// engine is silent; each one produces exactly one Warning.
type Warning struct {
	Kind    WarningKind
	Message string
}

// ErrMalformedRack is returned when a rack exposes no chains at all.
// It is the only fatal condition; everything else recovers locally.
var ErrMalformedRack = errors.New("malformed rack structure: no chains found")
