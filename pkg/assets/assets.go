// Package assets collects and copies the sample files a preset
// references into the preset directory.
package assets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Copy copies each referenced sample into destDir under its base name.
// A missing source is logged and skipped: the preset still loads, the
// pad just stays silent until the sample is supplied by hand.
func Copy(paths []string, destDir string, log *zap.SugaredLogger) (int, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return 0, fmt.Errorf("creating preset directory: %w", err)
	}

	copied := 0
	for _, src := range paths {
		if src == "" {
			continue
		}
		dest := filepath.Join(destDir, filepath.Base(src))
		if err := copyFile(src, dest); err != nil {
			log.Warnw("could not copy sample", "src", src, "err", err)
			continue
		}
		log.Infow("copied sample", "name", filepath.Base(src))
		copied++
	}
	return copied, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
