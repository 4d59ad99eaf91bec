package midiexport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/padtools/ableton2blackbox/pkg/engine"
)

func testTrack() engine.TrackResult {
	tr := engine.TrackResult{Mode: engine.ModePads, TargetSlot: -1}
	tr.Layers[0] = engine.EncodedSequence{
		Mode:         engine.ModePads,
		TicksPerBeat: engine.TicksPerBeatFine,
		StepCount:    16,
		Events: []engine.EncodedEvent{
			{Step: 0, Channel: 256, StartTicks: 0, LengthCount: 1, LengthTicks: 960, Velocity: 100},
			{Step: 4, Channel: 257, StartTicks: 3840, LengthCount: 1, LengthTicks: 960, Velocity: 90},
		},
	}
	tr.HasEvents[0] = true
	return tr
}

func TestExportTrack(t *testing.T) {
	data, err := ExportTrack(testTrack(), 121)
	if err != nil {
		t.Fatalf("ExportTrack() error = %v", err)
	}

	if !bytes.HasPrefix(data, []byte("MThd")) {
		t.Errorf("output does not start with an SMF header")
	}
	if !bytes.Contains(data, []byte("MTrk")) {
		t.Errorf("output has no track chunk")
	}
}

func TestExportTrackNoEvents(t *testing.T) {
	tr := engine.TrackResult{Mode: engine.ModePads}
	if _, err := ExportTrack(tr, 120); err == nil {
		t.Fatal("ExportTrack() with no events should fail")
	}
}

func TestExportTrackZeroTempo(t *testing.T) {
	// A zero tempo falls back to 120 instead of producing a broken file.
	if _, err := ExportTrack(testTrack(), 0); err != nil {
		t.Fatalf("ExportTrack() error = %v", err)
	}
}

func TestWriteTrackFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seq00.mid")
	if err := WriteTrackFile(testTrack(), 121, path); err != nil {
		t.Fatalf("WriteTrackFile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading exported file: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("MThd")) {
		t.Error("written file is not an SMF")
	}
}

func TestExportKey(t *testing.T) {
	tests := []struct {
		name string
		mode engine.SequenceMode
		ev   engine.EncodedEvent
		want uint8
	}{
		{"pads slot 0", engine.ModePads, engine.EncodedEvent{Channel: 256}, 36},
		{"pads slot 7", engine.ModePads, engine.EncodedEvent{Channel: 263}, 43},
		{"keys passes pitch", engine.ModeKeys, engine.EncodedEvent{Pitch: 62}, 62},
		{"midi passes pitch", engine.ModeMIDI, engine.EncodedEvent{Pitch: 48}, 48},
		{"out-of-range pitch clamps", engine.ModeKeys, engine.EncodedEvent{Pitch: 200}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exportKey(tt.mode, tt.ev); got != tt.want {
				t.Errorf("exportKey(%v, %+v) = %d, want %d", tt.mode, tt.ev, got, tt.want)
			}
		})
	}
}
