package memout

import (
	"context"
	"log/slog"
	"sync"
)

// Writer keeps generated sources in memory, keyed by output path.
// NOTE: Nothing is persisted; the content is lost when the process exits.
type Writer struct {
	mu      sync.Mutex
	sources map[string][]byte
	logger  *slog.Logger
}

// NewWriter creates a new in-memory Writer.
func NewWriter(logger *slog.Logger) *Writer {
	return &Writer{
		sources: make(map[string][]byte),
		logger:  logger.With("component", "mem_writer"),
	}
}

// Write stores a copy of source under path, replacing any previous content.
func (w *Writer) Write(ctx context.Context, path string, source []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	w.sources[path] = append([]byte(nil), source...)
	w.logger.Debug("Stored generated source", slog.String("path", path), slog.Int("bytes", len(source)))
	return nil
}

// Take returns the source stored under path and forgets it.
func (w *Writer) Take(path string) ([]byte, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	src, ok := w.sources[path]
	delete(w.sources, path)
	return src, ok
}
