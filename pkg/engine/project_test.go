package engine

import (
	"reflect"
	"testing"
)

func testProject() Project {
	chains := make([]Chain, 7)
	for i := range chains {
		chains[i] = Chain{
			Ordinal:  i,
			BranchID: 10 + i,
			MidiNote: 36 + i,
			Name:     "Drum",
			Sample: &SampleInfo{
				Path:            "/samples/drum.wav",
				DurationSeconds: 0.5,
				SampleRateHz:    44100,
				LengthSamples:   22050,
				Envelope:        Envelope{Sustain: 1, Release: 200},
			},
		}
	}
	chains[1].Sample.Path = "/samples/snare.wav"
	chains[2].Sample = nil // empty slot mid-rack

	return Project{
		TempoBPM: 121,
		Chains:   chains,
		Tracks: []SequenceTrack{
			{
				Name:    "Beat",
				Routing: "MidiOut/Track.1/TrackIn",
				Clips: []Clip{{
					LengthBeats: 4,
					Events: []NoteEvent{
						{Beat: 0, Duration: 0.25, Pitch: 36, Velocity: 100},
						{Beat: 1, Duration: 0.25, Pitch: 37, Velocity: 90},
					},
				}},
			},
			{
				Name:    "Bass",
				Routing: "MidiOut/Track.8/DeviceIn.0.B15",
				Clips: []Clip{{
					LengthBeats: 4,
					Events:      []NoteEvent{{Beat: 0.632, Duration: 0.4, Pitch: 50, Velocity: 100}},
				}},
			},
			{
				Name:    "Outboard",
				Routing: "MidiOut/External.Dev:SH101/3",
				Clips: []Clip{{
					LengthBeats: 4,
					Events:      []NoteEvent{{Beat: 0, Duration: 1, Pitch: 48, Velocity: 100}},
				}},
			},
		},
	}
}

func TestConvertProject(t *testing.T) {
	res, err := ConvertProject(testProject(), DefaultAnalyzerConfig())
	if err != nil {
		t.Fatalf("ConvertProject() error = %v", err)
	}

	if res.TempoBPM != 121 {
		t.Errorf("TempoBPM = %v, want 121", res.TempoBPM)
	}

	populated := 0
	for _, pad := range res.Pads {
		if !pad.Empty {
			populated++
		}
	}
	if populated != 6 {
		t.Errorf("populated pads = %d, want 6", populated)
	}
	if !res.Pads[2].Empty {
		t.Error("pad 2 should be empty")
	}
	for ordinal := 7; ordinal < GridSlots; ordinal++ {
		if !res.Pads[ordinal].Empty {
			t.Errorf("pad %d should be an empty placeholder", ordinal)
		}
	}

	// Duplicate sample paths collapse in the asset list.
	if len(res.AssetPath) != 2 {
		t.Errorf("AssetPath = %v, want 2 unique paths", res.AssetPath)
	}

	if len(res.Tracks) != 3 {
		t.Fatalf("len(Tracks) = %d, want 3", len(res.Tracks))
	}

	beat := res.Tracks[0]
	if beat.Mode != ModePads {
		t.Errorf("track 0 mode = %v, want Pads", beat.Mode)
	}
	if beat.ActiveLayer != 0 || !beat.HasEvents[0] {
		t.Errorf("track 0 active layer = %d (has %v), want layer 0 with events",
			beat.ActiveLayer, beat.HasEvents)
	}
	if got := beat.Layers[0].TicksPerBeat; got != TicksPerBeatFine {
		t.Errorf("track 0 resolution = %d, want %d", got, TicksPerBeatFine)
	}

	bass := res.Tracks[1]
	if bass.Mode != ModeKeys || bass.TargetSlot != 5 {
		t.Errorf("track 1 = %v slot %d, want Keys slot 5", bass.Mode, bass.TargetSlot)
	}
	if got := bass.Layers[0].TicksPerBeat; got != TicksPerBeatCoarse {
		t.Errorf("track 1 resolution = %d, want %d", got, TicksPerBeatCoarse)
	}

	outboard := res.Tracks[2]
	if outboard.Mode != ModeMIDI || outboard.MidiChannel != 3 {
		t.Errorf("track 2 = %v chan %d, want MIDI chan 3", outboard.Mode, outboard.MidiChannel)
	}
}

func TestConvertProjectMissingSample(t *testing.T) {
	p := testProject()
	p.Chains[0].Sample.Missing = true

	res, err := ConvertProject(p, DefaultAnalyzerConfig())
	if err != nil {
		t.Fatalf("ConvertProject() error = %v", err)
	}

	if !res.Pads[0].Empty {
		t.Error("pad with missing sample should stay inert")
	}
	found := false
	for _, w := range res.Warnings {
		if w.Kind == WarnMissingSampleAsset {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want MissingSampleAsset", res.Warnings)
	}
}

func TestConvertProjectEmptyRack(t *testing.T) {
	_, err := ConvertProject(Project{TempoBPM: 120}, DefaultAnalyzerConfig())
	if err == nil {
		t.Fatal("ConvertProject() with no chains should fail")
	}
}

func TestConvertProjectManualLoop(t *testing.T) {
	p := testProject()
	// Four beats of loop region at 121 BPM, unwarped.
	frames := 4.0 * 60 / 121 * 44100
	p.Chains[0].Sample.Loop = Loop{Start: 0, End: frames, Enabled: true}

	res, err := ConvertProject(p, DefaultAnalyzerConfig())
	if err != nil {
		t.Fatalf("ConvertProject() error = %v", err)
	}

	pad := res.Pads[0]
	if !pad.LoopMode {
		t.Error("manual loop region should enable looping")
	}
	if pad.BeatCount != 4 {
		t.Errorf("BeatCount = %d, want 4 from the loop region", pad.BeatCount)
	}
	if pad.Cell != CellSample {
		t.Errorf("Cell = %v, want CellSample below two bars", pad.Cell)
	}
}

func TestConvertProjectDeterministic(t *testing.T) {
	p := testProject()
	first, err := ConvertProject(p, DefaultAnalyzerConfig())
	if err != nil {
		t.Fatalf("ConvertProject() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		got, err := ConvertProject(p, DefaultAnalyzerConfig())
		if err != nil {
			t.Fatalf("run %d: error = %v", i, err)
		}
		if !reflect.DeepEqual(first, got) {
			t.Fatalf("run %d: results differ", i)
		}
	}
}
