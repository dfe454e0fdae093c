// Package localfs writes generated sources to the local filesystem.
package localfs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

const fileMode = 0o644

// Writer implements usecase.OutputWriter on top of the local filesystem.
type Writer struct {
	logger *slog.Logger
}

// NewWriter creates a new Writer.
func NewWriter(logger *slog.Logger) *Writer {
	return &Writer{logger: logger.With("component", "localfs_writer")}
}

// Write stores source at path. The content goes to a temporary file in the
// same directory first and is renamed into place, so a failed write never
// leaves a truncated file at path.
func (w *Writer) Write(ctx context.Context, path string, source []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log := w.logger.With(slog.String("path", path))

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		log.Error("Failed to create temporary file", slog.Any("error", err))
		return fmt.Errorf("create temporary file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		if rmErr := os.Remove(tmpName); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Warn("Failed to remove temporary file", slog.String("tmp", tmpName), slog.Any("error", rmErr))
		}
	}

	if _, err := tmp.Write(source); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename %s to %s: %w", tmpName, path, err)
	}

	log.Debug("Wrote generated source", slog.Int("bytes", len(source)))
	return nil
}
