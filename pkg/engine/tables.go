package engine

import "fmt"

// GridSlots is the number of physical pad positions in the target grid.
const GridSlots = 16

// RowColumn maps an ordinal slot position to its pad grid coordinate.
// The 4x4 grid fills bottom row first (positions 0-3), ascending by row;
// positions 16-19 address the auxiliary column.
func RowColumn(ordinal int) (row, column int) {
	if ordinal >= GridSlots {
		return ordinal - GridSlots, 4
	}
	return ordinal / 4, ordinal % 4
}

// Tables holds the two lookup structures built once per rack:
// ordinal -> grid slot (implicit via RowColumn) and branch id -> ordinal.
type Tables struct {
	Chains   []Chain
	Branches map[int]int // branch identifier -> ordinal
	Notes    map[int]int // trigger note -> ordinal
}

// BuildTables walks a rack's ordered chains and produces the slot and
// branch lookup tables. Duplicate branch identifiers are non-fatal:
// the last-seen chain wins and a warning is recorded. A rack with no
// chains at all is malformed and aborts the conversion.
func BuildTables(chains []Chain) (Tables, []Warning, error) {
	if len(chains) == 0 {
		return Tables{}, nil, ErrMalformedRack
	}

	t := Tables{
		Chains:   chains,
		Branches: make(map[int]int, len(chains)),
		Notes:    make(map[int]int, len(chains)),
	}
	var warns []Warning

	for ordinal, c := range chains {
		if ordinal >= GridSlots {
			break
		}
		if prev, ok := t.Branches[c.BranchID]; ok {
			warns = append(warns, Warning{
				Kind: WarnDuplicateBranchID,
				Message: fmt.Sprintf("branch id %d on chains %d and %d, keeping %d",
					c.BranchID, prev, ordinal, ordinal),
			})
		}
		t.Branches[c.BranchID] = ordinal
		if c.MidiNote >= 0 {
			t.Notes[c.MidiNote] = ordinal
		}
	}

	return t, warns, nil
}

// NoteToOrdinal resolves a trigger note to a slot ordinal. Racks that
// carry no note assignments fall back to the standard convention of
// note 36 (C1) on slot 0.
func (t Tables) NoteToOrdinal(note int) int {
	if ordinal, ok := t.Notes[note]; ok {
		return ordinal
	}
	ordinal := note - 36
	if ordinal < 0 || ordinal >= GridSlots {
		return 0
	}
	return ordinal
}
