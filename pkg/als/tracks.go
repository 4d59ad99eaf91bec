package als

import (
	"math"

	"github.com/beevik/etree"

	"github.com/padtools/ableton2blackbox/pkg/engine"
)

// maxClips is the number of session clips read per track, one per
// sequence sub-layer A-D.
const maxClips = 4

// extractMidiTrack reads the routing descriptor and up to four session
// clips from one MIDI track.
func (r *Reader) extractMidiTrack(track *etree.Element, index int) engine.SequenceTrack {
	st := engine.SequenceTrack{
		Name:    trackName(track),
		Routing: routingTarget(track),
	}

	for _, clip := range findClips(track) {
		st.Clips = append(st.Clips, r.extractClip(clip, index))
	}

	r.log.Debugw("midi track extracted",
		"index", index, "name", st.Name,
		"routing", st.Routing, "clips", len(st.Clips))
	return st
}

func trackName(track *etree.Element) string {
	if name := track.FindElement("./Name/EffectiveName"); name != nil {
		return name.SelectAttrValue("Value", "")
	}
	return ""
}

// routingTarget reads the MidiOutputRouting target string. An empty
// string resolves to whole-rack (Pads) routing downstream.
func routingTarget(track *etree.Element) string {
	routing := track.FindElement(".//MidiOutputRouting")
	if routing == nil {
		return ""
	}
	target := routing.SelectElement("Target")
	if target == nil {
		return ""
	}
	return target.SelectAttrValue("Value", "")
}

// findClips collects the first four session MidiClips. Live 12 keeps
// them under MainSequencer/ClipSlotList with a doubly nested ClipSlot.
func findClips(track *etree.Element) []*etree.Element {
	slotList := track.FindElement("./DeviceChain/MainSequencer/ClipSlotList")
	if slotList == nil {
		slotList = track.FindElement(".//ClipSlotList")
	}
	if slotList == nil {
		return nil
	}

	var clips []*etree.Element
	for _, slot := range slotList.SelectElements("ClipSlot") {
		if len(clips) >= maxClips {
			break
		}
		clip := slot.FindElement("./ClipSlot/Value/MidiClip")
		if clip == nil {
			clip = slot.FindElement("./Value/MidiClip")
		}
		if clip != nil {
			clips = append(clips, clip)
		}
	}
	return clips
}

// extractClip reads all note events and the clip length from one
// MidiClip element.
func (r *Reader) extractClip(clip *etree.Element, trackIndex int) engine.Clip {
	var out engine.Clip

	keyTracks := clip.FindElement("./Notes/KeyTracks")
	if keyTracks != nil {
		for _, kt := range keyTracks.SelectElements("KeyTrack") {
			pitch := attrInt(kt.SelectElement("MidiKey"), -1)
			notes := kt.SelectElement("Notes")
			if pitch < 0 || notes == nil {
				continue
			}
			for _, note := range notes.ChildElements() {
				if ev, ok := noteEvent(note, pitch); ok {
					out.Events = append(out.Events, ev)
				}
			}
		}
	}

	out.LengthBeats = clipLength(clip, out.Events)
	r.log.Debugw("clip extracted",
		"track", trackIndex, "events", len(out.Events), "beats", out.LengthBeats)
	return out
}

// noteEvent reads one note. Live 12.3+ stores timing as attributes on
// the event element; older versions use child elements.
func noteEvent(note *etree.Element, pitch int) (engine.NoteEvent, bool) {
	ev := engine.NoteEvent{Pitch: pitch, Velocity: 100}

	if v := note.SelectAttrValue("Time", ""); v != "" {
		ev.Beat = attrFloatValue(v, 0)
		ev.Duration = attrFloatValue(note.SelectAttrValue("Duration", ""), 0)
		ev.Velocity = int(attrFloatValue(note.SelectAttrValue("Velocity", ""), 100))
		return ev, true
	}

	t := note.SelectElement("Time")
	d := note.SelectElement("Duration")
	if t == nil || d == nil {
		return ev, false
	}
	ev.Beat = attrFloat(t, 0)
	ev.Duration = attrFloat(d, 0)
	ev.Velocity = int(attrFloat(note.SelectElement("Velocity"), 100))
	return ev, true
}

// clipLength discovers the clip length in beats: the loop region first,
// then CurrentEnd, then the last note end rounded up to a whole bar.
func clipLength(clip *etree.Element, events []engine.NoteEvent) float64 {
	loopStart := findClipValue(clip, "LoopStart")
	loopEnd := findClipValue(clip, "LoopEnd")
	if loopEnd > 0 {
		if length := loopEnd - loopStart; length > 0 {
			return length
		}
		return loopEnd
	}

	if end := findClipValue(clip, "CurrentEnd"); end > 1 {
		return end
	}

	var last float64
	for _, ev := range events {
		if end := ev.Beat + ev.Duration; end > last {
			last = end
		}
	}
	if last > 0 {
		bars := math.Ceil(last / 4)
		return math.Max(4, bars*4)
	}
	return 1
}

// findClipValue reads a float attribute that may sit directly on the
// clip or inside its Loop element depending on the Live version.
func findClipValue(clip *etree.Element, tag string) float64 {
	if el := clip.SelectElement(tag); el != nil {
		return attrFloat(el, 0)
	}
	if el := clip.FindElement("./Loop/" + tag); el != nil {
		return attrFloat(el, 0)
	}
	return 0
}
