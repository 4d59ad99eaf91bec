package engine

import "fmt"

// subLayers is the number of sequence sub-layers (A-D) per track.
const subLayers = 4

// ConvertProject runs the full pipeline over one immutable project
// description: build the rack tables, derive every pad slot, then
// resolve, classify and encode every sequence track. Each track and
// chain is processed independently; one bad track never prevents the
// rest of the project from converting. The only fatal condition is a
// rack with no chains.
func ConvertProject(p Project, cfg AnalyzerConfig) (*Result, error) {
	tables, warns, err := BuildTables(p.Chains)
	if err != nil {
		return nil, err
	}

	res := &Result{TempoBPM: p.TempoBPM, Warnings: warns}

	for ordinal := range res.Pads {
		row, col := RowColumn(ordinal)
		res.Pads[ordinal] = Pad{Ordinal: ordinal, Row: row, Column: col, Empty: true}
	}

	seen := make(map[string]bool)
	for _, chain := range tables.Chains {
		if chain.Ordinal >= GridSlots {
			break
		}
		pad, w := buildPad(chain, p.TempoBPM)
		res.Warnings = append(res.Warnings, w...)
		res.Pads[chain.Ordinal] = pad
		if !pad.Empty && pad.SamplePath != "" && !seen[pad.SamplePath] {
			seen[pad.SamplePath] = true
			res.AssetPath = append(res.AssetPath, pad.SamplePath)
		}
	}

	for i, track := range p.Tracks {
		if i >= GridSlots {
			break
		}
		tr, w := convertTrack(i, track, tables, cfg)
		res.Warnings = append(res.Warnings, w...)
		res.Tracks = append(res.Tracks, tr)
	}

	return res, nil
}

// buildPad turns one chain into its output pad slot.
func buildPad(chain Chain, tempoBPM float64) (Pad, []Warning) {
	row, col := RowColumn(chain.Ordinal)
	pad := Pad{
		Ordinal:    chain.Ordinal,
		Row:        row,
		Column:     col,
		Empty:      true,
		ChokeGroup: chain.ChokeGroup,
	}

	s := chain.Sample
	if s == nil {
		return pad, nil
	}
	if s.Missing {
		return pad, []Warning{{
			Kind:    WarnMissingSampleAsset,
			Message: fmt.Sprintf("slot %d: sample %q not found, pad left inert", chain.Ordinal, s.Path),
		}}
	}

	pad.Empty = false
	pad.SamplePath = s.Path
	pad.SampleLen = s.LengthSamples
	pad.Trigger = s.Trigger
	pad.LoopStart = s.Loop.Start
	pad.LoopEnd = s.Loop.End
	pad.Envelope = s.Envelope

	wd := DeriveWarp(s.DurationSeconds, tempoBPM, s.Warped)
	pad.BeatCount = wd.BeatCount
	pad.Cell = wd.Cell
	pad.LoopMode = wd.LoopMode

	// A manual loop region on an unwarped sample is honored: the beat
	// count comes from the loop length instead of the file duration.
	if !s.Warped && s.Loop.Enabled {
		beats := LoopBeatCount(s.Loop, s.SampleRateHz, tempoBPM)
		pad.BeatCount = beats
		pad.LoopMode = true
		if beats >= 8 {
			pad.Cell = CellClip
		}
	}

	return pad, nil
}

// convertTrack resolves routing once per track, then classifies and
// encodes each of the four sub-layers.
func convertTrack(ordinal int, track SequenceTrack, tables Tables, cfg AnalyzerConfig) (TrackResult, []Warning) {
	row, col := RowColumn(ordinal)

	routing, warns := ResolveRouting(track.Routing, tables)

	tr := TrackResult{
		Ordinal:     ordinal,
		Row:         row,
		Column:      col,
		Mode:        routing.Mode,
		TargetSlot:  -1,
		ActiveLayer: 0,
	}
	switch routing.Mode {
	case ModeKeys:
		tr.TargetSlot = routing.Target
	case ModeMIDI:
		tr.MidiChannel = routing.Target
	}

	activeSet := false
	for sub := 0; sub < subLayers; sub++ {
		var clip Clip
		if sub < len(track.Clips) {
			clip = track.Clips[sub]
		}

		onsets := make([]float64, len(clip.Events))
		for i, ev := range clip.Events {
			onsets[i] = ev.Beat
		}

		verdict, w := cfg.Analyze(onsets)
		warns = append(warns, w...)

		enc, w := EncodeSequence(routing, verdict, clip, tables)
		warns = append(warns, w...)

		tr.Layers[sub] = enc
		tr.HasEvents[sub] = len(enc.Events) > 0
		if tr.HasEvents[sub] && !activeSet {
			tr.ActiveLayer = sub
			activeSet = true
		}
	}

	return tr, warns
}
