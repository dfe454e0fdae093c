package usecase

import (
	"context"
	"errors"

	"github.com/i2y/tbx2pyt/internal/domain"
)

// Standard errors returned by use cases and adapters.
var (
	// ErrArchiveIntegrity means the archive could not be opened or a required
	// file is missing or malformed.
	ErrArchiveIntegrity = errors.New("archive integrity error")
	// ErrOutputWrite means the generated source could not be written.
	ErrOutputWrite = errors.New("output write error")
	// ErrUnsupportedInput means the input path does not name a toolbox archive.
	ErrUnsupportedInput = errors.New("unsupported input")
)

// --- Archive Related ---

// ArchiveOpener opens toolbox archives.
type ArchiveOpener interface {
	Open(ctx context.Context, path string) (ArchiveReader, error)
}

// ArchiveReader exposes the normalized content of one open archive.
// Callers must Close it once the conversion is over.
type ArchiveReader interface {
	// ToolboxMetadata reads the toolbox descriptor with alias and label resolved.
	ToolboxMetadata(ctx context.Context) (domain.ToolboxModel, error)

	// ToolMetadata reads one tool by identifier. Parameter fields are left unresolved.
	ToolMetadata(ctx context.Context, name string) (domain.ToolModel, error)

	Close() error
}

// --- Generation Related ---

// SourceEmitter accumulates generated source for a single conversion.
type SourceEmitter interface {
	EmitHeader()
	EmitToolbox(toolbox domain.ToolboxModel)
	EmitTool(tool domain.ToolModel)
	Source() string
}

// SourceGenerator hands out a fresh emitter per conversion.
type SourceGenerator interface {
	NewEmitter() SourceEmitter
}

// --- Output Related ---

// OutputWriter persists the generated source in a single call.
type OutputWriter interface {
	Write(ctx context.Context, path string, source []byte) error
}

// --- Progress ---

// ProgressReporter receives human-readable status messages.
// Messages are informational only.
type ProgressReporter interface {
	Report(message string)
}

// ProgressFunc adapts a plain function to ProgressReporter.
type ProgressFunc func(message string)

// Report calls f(message).
func (f ProgressFunc) Report(message string) { f(message) }

type discardProgress struct{}

func (discardProgress) Report(string) {}
