// Package preset builds the Blackbox preset tree (firmware 2.3+ cell
// format) from a conversion result and writes it as pretty-printed XML.
package preset

import (
	"math"
	"path/filepath"
	"strconv"

	"github.com/beevik/etree"

	"github.com/padtools/ableton2blackbox/pkg/engine"
)

// PresetFilename is the fixed document name inside a preset directory.
const PresetFilename = "preset.xml"

// Build assembles the full preset document: pad cells, four sequence
// sub-layer cells per track, song sections, FX defaults and the master
// song cell.
func Build(res *engine.Result) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)

	root := doc.CreateElement("document")
	session := root.CreateElement("session")
	session.CreateAttr("version", "2")

	for _, pad := range res.Pads {
		addPadCell(session, pad)
	}
	for _, track := range res.Tracks {
		addSequenceCells(session, track)
	}
	addSongSections(session)
	addFX(session)
	addMaster(session, res.TempoBPM)

	return doc
}

// WriteFile writes the document with 4-space indentation.
func WriteFile(doc *etree.Document, path string) error {
	doc.Indent(4)
	return doc.WriteToFile(path)
}

// addPadCell emits one sample layer cell. Empty and inert slots become
// samtempl placeholders so the 4x4 grid is always complete.
func addPadCell(session *etree.Element, pad engine.Pad) {
	cell := session.CreateElement("cell")
	cell.CreateAttr("row", itoa(pad.Row))
	cell.CreateAttr("column", itoa(pad.Column))
	cell.CreateAttr("layer", "0")

	if pad.Empty {
		cell.CreateAttr("filename", "")
		cell.CreateAttr("type", "samtempl")
		params := cell.CreateElement("params")
		applyPadDefaults(params)
		cell.CreateElement("slices")
		return
	}

	cell.CreateAttr("filename", `.\`+filepath.Base(pad.SamplePath))
	cell.CreateAttr("type", "sample")

	params := cell.CreateElement("params")
	applyPadDefaults(params)

	env := pad.Envelope
	if pad.Cell == engine.CellClip {
		// Clip playback ignores the sampler envelope shape: full decay
		// and sustain, short release.
		env = engine.Envelope{Attack: 0, Decay: 1000, Sustain: 1, Release: 200}
	}
	setAttrs(params, map[string]string{
		"envattack":  itoa(int(math.Round(env.Attack))),
		"envdecay":   itoa(int(math.Round(env.Decay))),
		"envsus":     itoa(int(math.Round(env.Sustain * 1000))),
		"envrel":     itoa(int(math.Round(env.Release))),
		"samlen":     itoa(pad.SampleLen),
		"loopstart":  itoa(int(math.Round(pad.LoopStart))),
		"loopend":    itoa(int(math.Round(pad.LoopEnd))),
		"loopmode":   boolAttr(pad.LoopMode),
		"beatcount":  itoa(pad.BeatCount),
		"samtrigtype": itoa(int(pad.Trigger)),
		"cellmode":   itoa(int(pad.Cell)),
		"chokegrp":   itoa(pad.ChokeGroup),
	})

	// Velocity and pan respond to incoming MIDI on every populated pad.
	addModSource(cell, "gaindb", "midivol")
	addModSource(cell, "panpos", "midipan")

	cell.CreateElement("slices")
}

func addModSource(cell *etree.Element, dest, src string) {
	mod := cell.CreateElement("modsource")
	mod.CreateAttr("dest", dest)
	mod.CreateAttr("src", src)
	mod.CreateAttr("slot", "2")
	mod.CreateAttr("amount", "1000")
}

// addSequenceCells emits the four A-D sub-layer noteseq cells of one
// sequence track.
func addSequenceCells(session *etree.Element, track engine.TrackResult) {
	for sub, layer := range track.Layers {
		cell := session.CreateElement("cell")
		cell.CreateAttr("row", itoa(track.Row))
		cell.CreateAttr("column", itoa(track.Column))
		cell.CreateAttr("layer", "1")
		cell.CreateAttr("seqsublayer", itoa(sub))
		cell.CreateAttr("type", "noteseq")

		params := cell.CreateElement("params")

		stepMode := "0"
		mapDest := "0"
		outChan := "0"
		switch track.Mode {
		case engine.ModePads:
			stepMode = "1"
			mapDest = itoa(track.Ordinal)
		case engine.ModeKeys:
			mapDest = itoa(track.TargetSlot)
		case engine.ModeMIDI:
			outChan = itoa(track.MidiChannel)
		}

		params.CreateAttr("notesteplen", itoa(layer.StepLength))
		params.CreateAttr("notestepcount", itoa(layer.StepCount))
		params.CreateAttr("dutycyc", "1000")
		params.CreateAttr("quantsizeseq", "1")
		params.CreateAttr("dispmode", boolAttr(sub == 0))
		params.CreateAttr("seqpadmapdest", mapDest)
		params.CreateAttr("seqplayenable", boolAttr(track.HasEvents[sub]))
		params.CreateAttr("activeseqlayer", itoa(track.ActiveLayer))
		params.CreateAttr("midioutchan", outChan)
		params.CreateAttr("seqstepmode", stepMode)
		params.CreateAttr("midiseqcellchan", "0")

		sequence := cell.CreateElement("sequence")
		for _, ev := range layer.Events {
			seqEvent := sequence.CreateElement("seqevent")
			seqEvent.CreateAttr("step", itoa(ev.Step))
			seqEvent.CreateAttr("chan", itoa(ev.Channel))
			seqEvent.CreateAttr("type", "note")
			seqEvent.CreateAttr("strtks", itoa(ev.StartTicks))
			seqEvent.CreateAttr("lencount", itoa(ev.LengthCount))
			seqEvent.CreateAttr("lentks", itoa(ev.LengthTicks))
			seqEvent.CreateAttr("pitch", itoa(ev.Pitch))
			if ev.Velocity != 100 {
				seqEvent.CreateAttr("velocity", itoa(ev.Velocity))
			}
		}
	}
}

func addSongSections(session *etree.Element) {
	for i := 0; i < 16; i++ {
		cell := session.CreateElement("cell")
		cell.CreateAttr("row", itoa(i))
		cell.CreateAttr("column", "0")
		cell.CreateAttr("layer", "2")
		cell.CreateAttr("name", "")
		cell.CreateAttr("type", "section")
		params := cell.CreateElement("params")
		params.CreateAttr("sectionlenbars", "8")
		cell.CreateElement("sequence")
	}
}

func addFX(session *etree.Element) {
	delay := fxCell(session, "0", "delay")
	delay.CreateAttr("delay", "400")
	delay.CreateAttr("delaymustime", "6")
	delay.CreateAttr("feedback", "400")
	delay.CreateAttr("cutoff", "120")
	delay.CreateAttr("filtquality", "1000")
	delay.CreateAttr("dealybeatsync", "1")
	delay.CreateAttr("filtenable", "1")
	delay.CreateAttr("delaypingpong", "1")

	reverb := fxCell(session, "1", "reverb")
	reverb.CreateAttr("decay", "600")
	reverb.CreateAttr("predelay", "40")
	reverb.CreateAttr("damping", "500")

	eq := fxCell(session, "2", "eq")
	eq.CreateAttr("eqactband", "0")
	for band := 0; band < 4; band++ {
		suffix := ""
		if band > 0 {
			suffix = itoa(band + 1)
		}
		eq.CreateAttr("eqgain"+suffix, "0")
		eq.CreateAttr("eqcutoff"+suffix, itoa(200*(band+1)))
		eq.CreateAttr("eqres"+suffix, "400")
		eq.CreateAttr("eqenable"+suffix, "1")
		eq.CreateAttr("eqtype"+suffix, "0")
	}

	fxCell(session, "4", "null")
}

func fxCell(session *etree.Element, row, typ string) *etree.Element {
	cell := session.CreateElement("cell")
	cell.CreateAttr("row", row)
	cell.CreateAttr("layer", "3")
	cell.CreateAttr("type", typ)
	return cell.CreateElement("params")
}

func addMaster(session *etree.Element, tempo float64) {
	cell := session.CreateElement("cell")
	cell.CreateAttr("type", "song")
	params := cell.CreateElement("params")
	params.CreateAttr("globtempo", strconv.FormatFloat(tempo, 'f', -1, 64))
	params.CreateAttr("songmode", "0")
	params.CreateAttr("sectcount", "1")
	params.CreateAttr("sectloop", "1")
	params.CreateAttr("swing", "50")
	params.CreateAttr("keymode", "1")
	params.CreateAttr("keyroot", "3")
}

// padDefaults is the full default parameter block of a pad cell; cells
// override the handful of attributes the conversion derives.
var padDefaults = map[string]string{
	"gaindb": "0", "pitch": "0", "panpos": "0", "samtrigtype": "0",
	"loopmode": "0", "loopmodes": "0", "midimode": "0", "midioutchan": "0",
	"reverse": "0", "cellmode": "0", "envattack": "0", "envdecay": "0",
	"envsus": "1000", "envrel": "4", "samstart": "0", "samlen": "0",
	"loopstart": "0", "loopend": "0", "quantsize": "3", "synctype": "5",
	"actslice": "1", "outputbus": "0", "polymode": "0", "polymodeslice": "0",
	"slicestepmode": "0", "chokegrp": "0", "dualfilcutoff": "0", "res": "500",
	"rootnote": "0", "beatcount": "0", "fx1send": "0", "fx2send": "0",
	"multisammode": "0", "interpqual": "0", "playthru": "0",
	"slicerquantsize": "13", "slicersync": "0", "padnote": "0",
	"loopfadeamt": "0", "lfowave": "0", "lforate": "100", "lfoamount": "1000",
	"lfokeytrig": "0", "lfobeatsync": "0", "lforatebeatsync": "0",
	"grainsizeperc": "300", "grainscat": "0", "grainpanrnd": "0",
	"graindensity": "600", "slicemode": "0", "legatomode": "0",
	"gainssrcwin": "0", "grainreadspeed": "1000", "recpresetlen": "0",
	"recquant": "3", "recinput": "0", "recinputmulti": "0", "recusethres": "0",
	"recthresh": "-20000", "recmonoutbus": "0",
}

// padDefaultOrder keeps attribute output deterministic.
var padDefaultOrder = []string{
	"gaindb", "pitch", "panpos", "samtrigtype", "loopmode", "loopmodes",
	"midimode", "midioutchan", "reverse", "cellmode", "envattack", "envdecay",
	"envsus", "envrel", "samstart", "samlen", "loopstart", "loopend",
	"quantsize", "synctype", "actslice", "outputbus", "polymode",
	"polymodeslice", "slicestepmode", "chokegrp", "dualfilcutoff", "res",
	"rootnote", "beatcount", "fx1send", "fx2send", "multisammode",
	"interpqual", "playthru", "slicerquantsize", "slicersync", "padnote",
	"loopfadeamt", "lfowave", "lforate", "lfoamount", "lfokeytrig",
	"lfobeatsync", "lforatebeatsync", "grainsizeperc", "grainscat",
	"grainpanrnd", "graindensity", "slicemode", "legatomode", "gainssrcwin",
	"grainreadspeed", "recpresetlen", "recquant", "recinput", "recinputmulti",
	"recusethres", "recthresh", "recmonoutbus",
}

func applyPadDefaults(params *etree.Element) {
	for _, key := range padDefaultOrder {
		params.CreateAttr(key, padDefaults[key])
	}
}

// setAttrs overrides attributes already present from the defaults, so
// output order stays fixed regardless of map iteration.
func setAttrs(el *etree.Element, attrs map[string]string) {
	for k, v := range attrs {
		el.CreateAttr(k, v)
	}
}

func itoa(v int) string { return strconv.Itoa(v) }

func boolAttr(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
