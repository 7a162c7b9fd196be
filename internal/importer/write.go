// internal/importer/write.go
package importer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// WriteFile writes data to dst, creating parent directories as needed.
// An existing file is never replaced: if dst exists, ErrDestinationExists is
// returned and the file is left untouched. Concurrent writers of the same
// path race safely; exactly one of them creates the file.
func WriteFile(fsys afero.Fs, dst string, data []byte) error {
	if err := fsys.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("%w: create directory: %v", ErrWriteFailed, err)
	}

	f, err := fsys.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return ErrDestinationExists
		}
		return fmt.Errorf("%w: create: %v", ErrWriteFailed, err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		// Clean up partial file on error
		_ = fsys.Remove(dst)
		return fmt.Errorf("%w: write: %v", ErrWriteFailed, err)
	}
	if err := f.Close(); err != nil {
		_ = fsys.Remove(dst)
		return fmt.Errorf("%w: close: %v", ErrWriteFailed, err)
	}
	return nil
}
