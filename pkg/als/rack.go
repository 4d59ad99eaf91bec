package als

import (
	"os"
	"strconv"

	"github.com/beevik/etree"

	"github.com/padtools/ableton2blackbox/pkg/engine"
	"github.com/padtools/ableton2blackbox/pkg/wav"
)

// Default Simpler envelope when extraction fails (ms / ratio).
var defaultEnvelope = engine.Envelope{Attack: 1, Decay: 300, Sustain: 1, Release: 200}

// extractRack walks a DrumGroupDevice's branches in rack order and
// builds the chain list. Chain order is pad order: the grid layout
// matches what the user sees in the rack.
func (r *Reader) extractRack(rack *etree.Element) ([]engine.Chain, error) {
	branchesElem := rack.SelectElement("Branches")
	if branchesElem == nil {
		return nil, engine.ErrMalformedRack
	}
	branches := branchesElem.ChildElements()
	if len(branches) == 0 {
		return nil, engine.ErrMalformedRack
	}

	var chains []engine.Chain
	for ordinal, branch := range branches {
		if ordinal >= engine.GridSlots {
			break
		}
		chain := engine.Chain{
			Ordinal:  ordinal,
			BranchID: branchID(branch, ordinal),
			MidiNote: -1,
		}

		if info := branch.SelectElement("BranchInfo"); info != nil {
			chain.MidiNote = attrInt(info.SelectElement("ReceivingNote"), -1)
			chain.ChokeGroup = chokeGroup(attrInt(info.SelectElement("ChokeGroup"), 0))
		}
		if name := branch.SelectElement("Name"); name != nil {
			chain.Name = name.SelectAttrValue("Value", "")
		}

		if simpler := findSimpler(branch); simpler != nil {
			chain.Sample = r.extractSimpler(simpler, ordinal)
		}

		r.log.Debugw("chain extracted",
			"ordinal", ordinal, "branch", chain.BranchID,
			"note", chain.MidiNote, "choke", chain.ChokeGroup,
			"empty", chain.Sample == nil)
		chains = append(chains, chain)
	}

	return chains, nil
}

// branchID reads the rack-assigned branch identifier, falling back to
// the ordinal when absent.
func branchID(branch *etree.Element, ordinal int) int {
	if id, err := strconv.Atoi(branch.SelectAttrValue("Id", "")); err == nil {
		return id
	}
	return ordinal
}

// chokeGroup maps rack choke values onto the target's exclusive groups:
// 0 or negative means none, 1-4 map directly, anything above caps at 4.
func chokeGroup(v int) int {
	switch {
	case v <= 0:
		return 0
	case v > 4:
		return 4
	}
	return v
}

// findSimpler locates the sampler device of a branch. Live 12.3+ nests
// the device list under MidiToAudioDeviceChain.
func findSimpler(branch *etree.Element) *etree.Element {
	chain := branch.SelectElement("DeviceChain")
	if chain == nil {
		return nil
	}
	devices := chain.FindElement("./MidiToAudioDeviceChain/Devices")
	if devices == nil {
		devices = chain.SelectElement("Devices")
	}
	if devices == nil {
		return nil
	}
	return devices.SelectElement("OriginalSimpler")
}

// extractSimpler reads sample reference, loop, warp, trigger and
// envelope data from one Simpler device. Returns nil when the device
// references no sample.
func (r *Reader) extractSimpler(simpler *etree.Element, ordinal int) *engine.SampleInfo {
	player := simpler.SelectElement("Player")
	if player == nil {
		return nil
	}
	partsElem := player.FindElement("./MultiSampleMap/SampleParts")
	if partsElem == nil {
		return nil
	}
	parts := partsElem.SelectElements("MultiSamplePart")
	if len(parts) == 0 {
		return nil
	}
	if len(parts) > 1 {
		r.log.Warnw("multisample pad, using first part only",
			"ordinal", ordinal, "parts", len(parts))
	}
	part := parts[0]

	sampleRef := part.SelectElement("SampleRef")
	if sampleRef == nil {
		return nil
	}

	info := &engine.SampleInfo{
		Path:     samplePath(sampleRef),
		Envelope: extractEnvelope(simpler),
		Trigger:  triggerMode(player),
	}

	// Header defaults from the project; real values come from the WAV
	// file when it is reachable.
	rate := attrFloat(sampleRef.SelectElement("DefaultSampleRate"), 48000)
	durSamples := attrFloat(sampleRef.SelectElement("DefaultDuration"), 0)
	info.SampleRateHz = int(rate)
	if durSamples > 0 && rate > 0 {
		info.LengthSamples = int(durSamples)
		info.DurationSeconds = durSamples / rate
	}

	info.Loop = engine.Loop{
		Start:   attrFloat(part.SelectElement("LoopStart"), 0),
		End:     attrFloat(part.SelectElement("LoopEnd"), durSamples),
		Enabled: attrBool(part.SelectElement("LoopOn")),
	}

	if warp := part.SelectElement("SampleWarpProperties"); warp != nil {
		mode := attrInt(warp.SelectElement("WarpMode"), 0)
		info.Warped = mode > 0 || attrBool(warp.SelectElement("IsWarped"))
	}

	if info.Path == "" {
		return nil
	}
	if w, err := wav.ReadFile(info.Path); err == nil {
		info.LengthSamples = w.LengthSamples
		info.SampleRateHz = w.SampleRateHz
		info.DurationSeconds = w.DurationSeconds
	} else if _, statErr := os.Stat(info.Path); statErr != nil {
		info.Missing = true
		r.log.Warnw("sample file not found", "ordinal", ordinal, "path", info.Path)
	}

	return info
}

// samplePath prefers the absolute Path over RelativePath (Live 12.2+
// FileRef layout), falling back to the legacy FileName element.
func samplePath(sampleRef *etree.Element) string {
	if fileRef := sampleRef.SelectElement("FileRef"); fileRef != nil {
		if p := fileRef.SelectElement("Path"); p != nil {
			if v := p.SelectAttrValue("Value", ""); v != "" {
				return v
			}
		}
		if p := fileRef.SelectElement("RelativePath"); p != nil {
			if v := p.SelectAttrValue("Value", ""); v != "" {
				return v
			}
		}
		if name := fileRef.SelectElement("Name"); name != nil {
			return name.SelectAttrValue("Value", "")
		}
	}
	if name := sampleRef.FindElement(".//FileName"); name != nil {
		return name.SelectAttrValue("Value", "")
	}
	return ""
}

func triggerMode(player *etree.Element) engine.TriggerMode {
	switch attrInt(player.FindElement(".//TriggerMode"), 0) {
	case 1:
		return engine.TriggerOneShot
	case 2:
		return engine.TriggerToggle
	}
	return engine.TriggerGate
}

// extractEnvelope pulls the amplitude envelope; the element lives under
// VolumeAndPan in current Simplers.
func extractEnvelope(simpler *etree.Element) engine.Envelope {
	env := simpler.FindElement("./VolumeAndPan/Envelope")
	if env == nil {
		env = simpler.FindElement(".//VolumeEnvelope")
	}
	if env == nil {
		return defaultEnvelope
	}
	return engine.Envelope{
		Attack:  manualValue(env, "AttackTime", defaultEnvelope.Attack),
		Decay:   manualValue(env, "DecayTime", defaultEnvelope.Decay),
		Sustain: manualValue(env, "SustainLevel", defaultEnvelope.Sustain),
		Release: manualValue(env, "ReleaseTime", defaultEnvelope.Release),
	}
}

// manualValue reads <tag><Manual Value="..."/></tag>, accepting a bare
// Value attribute on the tag itself as older projects write it.
func manualValue(parent *etree.Element, tag string, def float64) float64 {
	el := parent.SelectElement(tag)
	if el == nil {
		return def
	}
	if manual := el.SelectElement("Manual"); manual != nil {
		return attrFloat(manual, def)
	}
	return attrFloat(el, def)
}
