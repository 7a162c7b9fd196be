// internal/importer/errors.go
package importer

import (
	"errors"

	"github.com/vmunix/iptvstrm/internal/naming"
)

var (
	// ErrDestinationExists indicates the destination file already exists.
	ErrDestinationExists = errors.New("destination file already exists")

	// ErrWriteFailed indicates a library file could not be written.
	ErrWriteFailed = errors.New("failed to write file")

	// ErrPathTraversal indicates a computed path escapes its library root.
	ErrPathTraversal = naming.ErrPathTraversal

	// ErrNoStreamURL indicates an entry has nothing to write into its .strm file.
	ErrNoStreamURL = errors.New("entry has no stream url")
)
