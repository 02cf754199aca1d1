// =============================================================================
// Payments Engine - File Utilities
// =============================================================================
//
// Output destination handling shared by the CLI commands.
//
// =============================================================================

package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// nopWriteCloser wraps a writer whose lifetime the caller does not own.
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// OpenOutput returns the destination for the snapshot CSV. An empty path
// means stdout (not closed by the caller); otherwise the file is created,
// along with any missing parent directories.
func OpenOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopWriteCloser{os.Stdout}, nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return file, nil
}
