// Package midiexport writes extracted sequence tracks back out as
// Standard MIDI Files, so a conversion can be audited in any DAW.
package midiexport

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/padtools/ableton2blackbox/pkg/engine"
)

// smfResolution is the tick resolution of exported files.
const smfResolution = 960

// ExportTrack renders the active sub-layer of one track result as a
// single-track SMF at the project tempo.
func ExportTrack(tr engine.TrackResult, tempoBPM float64) ([]byte, error) {
	layer := tr.Layers[tr.ActiveLayer]
	if len(layer.Events) == 0 {
		return nil, errors.New("track has no events")
	}
	if tempoBPM <= 0 {
		tempoBPM = 120
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(smfResolution)

	var track smf.Track

	microsPerBeat := uint32(60000000.0 / tempoBPM)
	track.Add(0, smf.Message([]byte{
		0xFF, 0x51, 0x03,
		byte(microsPerBeat >> 16),
		byte(microsPerBeat >> 8),
		byte(microsPerBeat),
	}))
	track.Add(0, smf.Message([]byte{0xFF, 0x58, 0x04, 0x04, 0x02, 0x18, 0x08}))

	// Flatten to absolute-tick on/off pairs at SMF resolution.
	type midiEvent struct {
		tick uint32
		on   bool
		key  uint8
		vel  uint8
	}
	scale := float64(smfResolution) / float64(layer.TicksPerBeat)

	var events []midiEvent
	for _, ev := range layer.Events {
		start := uint32(float64(ev.StartTicks) * scale)
		length := uint32(float64(ev.LengthTicks) * scale)
		if length == 0 {
			length = smfResolution / 4
		}
		vel := uint8(ev.Velocity)
		if vel == 0 {
			vel = 100
		}
		key := exportKey(layer.Mode, ev)
		events = append(events,
			midiEvent{tick: start, on: true, key: key, vel: vel},
			midiEvent{tick: start + length, on: false, key: key},
		)
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].tick < events[j].tick })

	channel := uint8(0)
	if layer.Mode == engine.ModeMIDI && layer.MidiChannel >= 0 && layer.MidiChannel < 16 {
		channel = uint8(layer.MidiChannel)
	}

	var current uint32
	for _, ev := range events {
		delta := ev.tick - current
		current = ev.tick
		if ev.on {
			track.Add(delta, midi.NoteOn(channel, ev.key, ev.vel))
		} else {
			track.Add(delta, midi.NoteOff(channel, ev.key))
		}
	}
	track.Close(0)

	if err := s.Add(track); err != nil {
		return nil, fmt.Errorf("adding track: %w", err)
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("writing MIDI: %w", err)
	}
	return buf.Bytes(), nil
}

// exportKey recovers a playable note number. Pads events address slots
// through the channel, so the slot ordinal maps back onto the standard
// trigger notes; Keys and MIDI events carry the note directly.
func exportKey(mode engine.SequenceMode, ev engine.EncodedEvent) uint8 {
	if mode == engine.ModePads {
		ordinal := ev.Channel - engine.PadChannelBase
		if ordinal < 0 {
			ordinal = 0
		}
		return uint8(36 + ordinal)
	}
	if ev.Pitch < 0 || ev.Pitch > 127 {
		return 0
	}
	return uint8(ev.Pitch)
}

// WriteTrackFile exports one track to a .mid file.
func WriteTrackFile(tr engine.TrackResult, tempoBPM float64, path string) error {
	data, err := ExportTrack(tr, tempoBPM)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
