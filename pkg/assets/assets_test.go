package assets

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCopy(t *testing.T) {
	srcDir := t.TempDir()
	destDir := filepath.Join(t.TempDir(), "preset")

	kick := filepath.Join(srcDir, "kick.wav")
	snare := filepath.Join(srcDir, "snare.wav")
	if err := os.WriteFile(kick, []byte("kick-audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(snare, []byte("snare-audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	copied, err := Copy([]string{kick, snare, ""}, destDir, nil)
	if err != nil {
		t.Fatalf("Copy() error = %v", err)
	}
	if copied != 2 {
		t.Errorf("copied = %d, want 2", copied)
	}

	data, err := os.ReadFile(filepath.Join(destDir, "kick.wav"))
	if err != nil {
		t.Fatalf("reading copied file: %v", err)
	}
	if string(data) != "kick-audio" {
		t.Errorf("copied content = %q, want original bytes", data)
	}
}

func TestCopySkipsMissing(t *testing.T) {
	srcDir := t.TempDir()
	destDir := filepath.Join(t.TempDir(), "preset")

	kick := filepath.Join(srcDir, "kick.wav")
	if err := os.WriteFile(kick, []byte("kick-audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	gone := filepath.Join(srcDir, "gone.wav")

	copied, err := Copy([]string{gone, kick}, destDir, nil)
	if err != nil {
		t.Fatalf("Copy() error = %v", err)
	}
	if copied != 1 {
		t.Errorf("copied = %d, want 1 with the missing source skipped", copied)
	}
	if _, err := os.Stat(filepath.Join(destDir, "gone.wav")); err == nil {
		t.Error("missing source should not produce a destination file")
	}
}
