package engine

import (
	"errors"
	"testing"
)

func TestRowColumn(t *testing.T) {
	tests := []struct {
		name    string
		ordinal int
		row     int
		column  int
	}{
		{"first slot", 0, 0, 0},
		{"end of bottom row", 3, 0, 3},
		{"start of second row", 4, 1, 0},
		{"mid grid", 7, 1, 3},
		{"last grid slot", 15, 3, 3},
		{"first aux slot", 16, 0, 4},
		{"aux slot", 18, 2, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, col := RowColumn(tt.ordinal)
			if row != tt.row || col != tt.column {
				t.Errorf("RowColumn(%d) = (%d, %d), want (%d, %d)",
					tt.ordinal, row, col, tt.row, tt.column)
			}
		})
	}
}

func TestBuildTablesEmptyRack(t *testing.T) {
	_, _, err := BuildTables(nil)
	if !errors.Is(err, ErrMalformedRack) {
		t.Fatalf("BuildTables(nil) error = %v, want ErrMalformedRack", err)
	}
}

func TestBuildTablesBranchLookup(t *testing.T) {
	chains := []Chain{
		{Ordinal: 0, BranchID: 10, MidiNote: 36},
		{Ordinal: 1, BranchID: 20, MidiNote: 37},
		{Ordinal: 2, BranchID: 30, MidiNote: 38},
	}

	tables, warns, err := BuildTables(chains)
	if err != nil {
		t.Fatalf("BuildTables() error = %v", err)
	}
	if len(warns) != 0 {
		t.Errorf("BuildTables() warnings = %v, want none", warns)
	}

	for i, want := range map[int]int{10: 0, 20: 1, 30: 2} {
		if got := tables.Branches[i]; got != want {
			t.Errorf("Branches[%d] = %d, want %d", i, got, want)
		}
	}
}

func TestBuildTablesDuplicateBranchID(t *testing.T) {
	chains := []Chain{
		{Ordinal: 0, BranchID: 10, MidiNote: 36},
		{Ordinal: 1, BranchID: 10, MidiNote: 37},
	}

	tables, warns, err := BuildTables(chains)
	if err != nil {
		t.Fatalf("BuildTables() error = %v", err)
	}

	if len(warns) != 1 || warns[0].Kind != WarnDuplicateBranchID {
		t.Fatalf("BuildTables() warnings = %v, want one DuplicateBranchId", warns)
	}
	// Last chain wins.
	if got := tables.Branches[10]; got != 1 {
		t.Errorf("Branches[10] = %d, want 1", got)
	}
}

func TestNoteToOrdinal(t *testing.T) {
	chains := []Chain{
		{Ordinal: 0, BranchID: 1, MidiNote: 60},
		{Ordinal: 1, BranchID: 2, MidiNote: 61},
	}
	tables, _, err := BuildTables(chains)
	if err != nil {
		t.Fatalf("BuildTables() error = %v", err)
	}

	tests := []struct {
		name string
		note int
		want int
	}{
		{"mapped note", 60, 0},
		{"second mapped note", 61, 1},
		{"unmapped falls back to C1 convention", 40, 4},
		{"below convention clamps to zero", 10, 0},
		{"above grid clamps to zero", 90, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tables.NoteToOrdinal(tt.note); got != tt.want {
				t.Errorf("NoteToOrdinal(%d) = %d, want %d", tt.note, got, tt.want)
			}
		})
	}
}
