package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// Routing is the resolved output routing of one sequence track.
type Routing struct {
	Mode   SequenceMode
	Target int // ordinal for Keys, channel for MIDI, -1 for Pads
}

// Routing descriptor markers as they appear in project files:
//
//	Keys: MidiOut/Track.N/DeviceIn.x.Bnn  (device input, then branch id)
//	MIDI: MidiOut/External.Dev:Name/ch    (external device with channel)
//	Pads: MidiOut/Track.N/TrackIn, MidiOut/None, or anything else
const (
	externalDevMarker  = "/External.Dev:"
	externalPathMarker = "/External/"
	deviceInMarker     = "/DeviceIn."
)

// ResolveRouting parses a routing descriptor string into a mode and a
// mode-specific target. Matches are tried in fixed priority order:
// external routing first (the most specific signal), then branch
// references, then the whole-rack default. A branch reference that does
// not resolve against the table falls back to Pads with a warning; that
// fallback is the only recovery path for stale branch references.
func ResolveRouting(routing string, t Tables) (Routing, []Warning) {
	if ch, ok := parseExternal(routing); ok {
		return Routing{Mode: ModeMIDI, Target: ch}, nil
	}

	if branchID, ok := parseBranchRef(routing); ok {
		if ordinal, found := t.Branches[branchID]; found {
			return Routing{Mode: ModeKeys, Target: ordinal}, nil
		}
		return Routing{Mode: ModePads, Target: -1}, []Warning{{
			Kind:    WarnUnresolvableBranchID,
			Message: fmt.Sprintf("routing %q references unknown branch id %d, falling back to Pads", routing, branchID),
		}}
	}

	return Routing{Mode: ModePads, Target: -1}, nil
}

// parseExternal detects external-device routing and extracts the 0-based
// channel number from the trailing path segment, defaulting to 0.
func parseExternal(routing string) (channel int, ok bool) {
	if !strings.Contains(routing, externalDevMarker) && !strings.Contains(routing, externalPathMarker) {
		return 0, false
	}
	parts := strings.Split(routing, "/")
	last := parts[len(parts)-1]
	if ch, err := strconv.Atoi(last); err == nil && ch >= 0 {
		return ch, true
	}
	return 0, true
}

// parseBranchRef extracts the branch identifier from a device-input
// reference. The segment after the marker is dot-separated; a "B"-prefixed
// component names the branch explicitly, otherwise the leading integer is
// the branch id.
func parseBranchRef(routing string) (branchID int, ok bool) {
	idx := strings.LastIndex(routing, deviceInMarker)
	if idx < 0 {
		return 0, false
	}
	ref := routing[idx+len(deviceInMarker):]
	if end := strings.IndexByte(ref, '/'); end >= 0 {
		ref = ref[:end]
	}

	fields := strings.Split(ref, ".")
	for _, f := range fields {
		if len(f) > 1 && f[0] == 'B' {
			if id, err := strconv.Atoi(f[1:]); err == nil {
				return id, true
			}
		}
	}
	if id, err := strconv.Atoi(fields[0]); err == nil {
		return id, true
	}
	return 0, false
}
