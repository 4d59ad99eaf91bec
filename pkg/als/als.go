// Package als reads Ableton Live project containers (.als) and extracts
// the drum rack and sequence tracks into the engine's input model.
//
// The container is gzipped XML (plain XML for some exports). The layout
// drifts between Live 10, 11 and 12, so navigation is tag-based with
// per-version fallbacks rather than a fixed schema.
package als

import (
	"compress/gzip"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/padtools/ableton2blackbox/pkg/engine"
)

const defaultTempo = 120.0

// Reader parses .als files.
type Reader struct {
	log *zap.SugaredLogger
}

// NewReader returns a Reader logging through the given logger; a nil
// logger disables logging.
func NewReader(log *zap.SugaredLogger) *Reader {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Reader{log: log}
}

// ReadProject parses an .als file into the engine's project model.
// The first track must carry a drum rack; tracks 2-17 contribute
// sequence data.
func (r *Reader) ReadProject(path string) (*engine.Project, error) {
	root, err := r.openDocument(path)
	if err != nil {
		return nil, err
	}

	liveSet := root.SelectElement("LiveSet")
	if liveSet == nil {
		return nil, errors.New("als: no LiveSet element")
	}

	tempo := r.findTempo(liveSet)
	r.log.Infow("project tempo", "bpm", tempo)

	tracksElem := liveSet.SelectElement("Tracks")
	if tracksElem == nil {
		return nil, errors.New("als: no Tracks element")
	}
	tracks := tracksElem.ChildElements()
	if len(tracks) == 0 {
		return nil, engine.ErrMalformedRack
	}

	rack := findDrumRack(tracks[0])
	if rack == nil {
		return nil, fmt.Errorf("als: first track has no drum rack: %w", engine.ErrMalformedRack)
	}
	chains, err := r.extractRack(rack)
	if err != nil {
		return nil, err
	}

	project := &engine.Project{TempoBPM: tempo, Chains: chains}

	for i := 1; i < len(tracks) && len(project.Tracks) < engine.GridSlots; i++ {
		track := tracks[i]
		if track.Tag != "MidiTrack" {
			continue
		}
		project.Tracks = append(project.Tracks, r.extractMidiTrack(track, len(project.Tracks)))
	}

	r.log.Infow("project extracted",
		"chains", len(project.Chains), "tracks", len(project.Tracks))
	return project, nil
}

// openDocument reads the container, transparently handling gzip.
func (r *Reader) openDocument(path string) (*etree.Element, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	doc := etree.NewDocument()

	gz, err := gzip.NewReader(f)
	if err == nil {
		defer func() { _ = gz.Close() }()
		if _, err := doc.ReadFrom(gz); err != nil {
			return nil, fmt.Errorf("als: parsing gzipped project: %w", err)
		}
	} else {
		// Not gzipped: some exports are plain XML.
		if _, err := f.Seek(0, 0); err != nil {
			return nil, err
		}
		if _, err := doc.ReadFrom(f); err != nil {
			return nil, fmt.Errorf("als: parsing project: %w", err)
		}
	}

	root := doc.Root()
	if root == nil || root.Tag != "Ableton" {
		return nil, errors.New("als: not an Ableton project file")
	}
	r.log.Infow("project opened",
		"creator", root.SelectAttrValue("Creator", "unknown"),
		"version", root.SelectAttrValue("MajorVersion", "unknown"))
	return root, nil
}

// findTempo navigates MainTrack (Live 12+) or MasterTrack (10/11) down
// to the manual tempo value.
func (r *Reader) findTempo(liveSet *etree.Element) float64 {
	main := liveSet.SelectElement("MainTrack")
	if main == nil {
		main = liveSet.SelectElement("MasterTrack")
	}
	if main == nil {
		r.log.Warnw("no MainTrack or MasterTrack, using default tempo", "bpm", defaultTempo)
		return defaultTempo
	}
	manual := main.FindElement("./DeviceChain/Mixer/Tempo/Manual")
	if manual == nil {
		r.log.Warnw("no tempo element, using default", "bpm", defaultTempo)
		return defaultTempo
	}
	tempo, err := strconv.ParseFloat(manual.SelectAttrValue("Value", ""), 64)
	if err != nil || tempo <= 0 {
		return defaultTempo
	}
	return tempo
}

// findDrumRack locates the DrumGroupDevice on a track.
func findDrumRack(track *etree.Element) *etree.Element {
	devices := track.FindElement("./DeviceChain/DeviceChain/Devices")
	if devices == nil {
		return nil
	}
	return devices.SelectElement("DrumGroupDevice")
}

func attrFloat(el *etree.Element, def float64) float64 {
	if el == nil {
		return def
	}
	v, err := strconv.ParseFloat(el.SelectAttrValue("Value", ""), 64)
	if err != nil {
		return def
	}
	return v
}

func attrFloatValue(s string, def float64) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

func attrInt(el *etree.Element, def int) int {
	if el == nil {
		return def
	}
	v, err := strconv.Atoi(el.SelectAttrValue("Value", ""))
	if err != nil {
		return def
	}
	return v
}

func attrBool(el *etree.Element) bool {
	if el == nil {
		return false
	}
	v := el.SelectAttrValue("Value", "")
	return v == "true" || v == "1"
}
