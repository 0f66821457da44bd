package document

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile writes the snapshot, pretty-printed, to path. The data goes to a
// temporary file in the same directory and is renamed into place.
func (s Snapshot) WriteFile(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(s.Pretty()); err != nil {
		tmp.Close()
		return fmt.Errorf("write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}
