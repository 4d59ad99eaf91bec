// Package convert wires the project reader, the conversion engine and
// the preset writer into one file-to-directory operation.
package convert

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/padtools/ableton2blackbox/pkg/als"
	"github.com/padtools/ableton2blackbox/pkg/assets"
	"github.com/padtools/ableton2blackbox/pkg/engine"
	"github.com/padtools/ableton2blackbox/pkg/midiexport"
	"github.com/padtools/ableton2blackbox/pkg/preset"
)

// Options configures a conversion run.
type Options struct {
	Analyzer    engine.AnalyzerConfig
	TempoBPM    float64 // manual tempo override; 0 uses the project tempo
	CopySamples bool    // copy referenced WAVs next to preset.xml
	ExportMIDI  bool    // additionally write one .mid per sequence track
}

// Converter converts .als projects into preset directories.
type Converter struct {
	opts Options
	log  *zap.SugaredLogger
}

// New creates a Converter. A nil logger disables logging.
func New(opts Options, log *zap.SugaredLogger) *Converter {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if opts.Analyzer == (engine.AnalyzerConfig{}) {
		opts.Analyzer = engine.DefaultAnalyzerConfig()
	}
	return &Converter{opts: opts, log: log}
}

// ConvertFile reads one project and writes the preset directory:
// preset.xml, copied samples, and optional per-track MIDI exports.
func (c *Converter) ConvertFile(inputPath, outputDir string) (*engine.Result, error) {
	project, err := als.NewReader(c.log).ReadProject(inputPath)
	if err != nil {
		return nil, err
	}
	if c.opts.TempoBPM > 0 {
		c.log.Infow("manual tempo override", "bpm", c.opts.TempoBPM)
		project.TempoBPM = c.opts.TempoBPM
	}

	res, err := engine.ConvertProject(*project, c.opts.Analyzer)
	if err != nil {
		return nil, err
	}
	c.logWarnings(res.Warnings)

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	presetPath := filepath.Join(outputDir, preset.PresetFilename)
	if err := preset.WriteFile(preset.Build(res), presetPath); err != nil {
		return nil, fmt.Errorf("writing preset: %w", err)
	}
	c.log.Infow("preset written", "path", presetPath)

	if c.opts.CopySamples {
		copied, err := assets.Copy(res.AssetPath, outputDir, c.log)
		if err != nil {
			return nil, err
		}
		c.log.Infow("samples copied", "count", copied, "referenced", len(res.AssetPath))
	}

	if c.opts.ExportMIDI {
		c.exportMIDI(res, outputDir)
	}

	return res, nil
}

// ConvertBytes converts an in-memory .als and returns the preset XML,
// for callers that never touch the filesystem (the API server).
func (c *Converter) ConvertBytes(alsData []byte) ([]byte, *engine.Result, error) {
	tmp, err := os.CreateTemp("", "ableton2blackbox-*.als")
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(alsData); err != nil {
		_ = tmp.Close()
		return nil, nil, err
	}
	_ = tmp.Close()

	project, err := als.NewReader(c.log).ReadProject(tmp.Name())
	if err != nil {
		return nil, nil, err
	}
	if c.opts.TempoBPM > 0 {
		project.TempoBPM = c.opts.TempoBPM
	}
	res, err := engine.ConvertProject(*project, c.opts.Analyzer)
	if err != nil {
		return nil, nil, err
	}
	c.logWarnings(res.Warnings)

	doc := preset.Build(res)
	doc.Indent(4)
	var out []byte
	if out, err = doc.WriteToBytes(); err != nil {
		return nil, nil, err
	}
	return out, res, nil
}

func (c *Converter) exportMIDI(res *engine.Result, outputDir string) {
	for _, tr := range res.Tracks {
		if !tr.HasEvents[tr.ActiveLayer] {
			continue
		}
		path := filepath.Join(outputDir, fmt.Sprintf("seq%02d.mid", tr.Ordinal))
		if err := midiexport.WriteTrackFile(tr, res.TempoBPM, path); err != nil {
			c.log.Warnw("midi export failed", "track", tr.Ordinal, "err", err)
			continue
		}
		c.log.Infow("midi exported", "path", path)
	}
}

// logWarnings surfaces every recovered condition; nothing is dropped
// silently.
func (c *Converter) logWarnings(warns []engine.Warning) {
	for _, w := range warns {
		c.log.Warnw(w.Message, "kind", string(w.Kind))
	}
}
