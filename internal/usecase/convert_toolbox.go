package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/i2y/tbx2pyt/internal/domain"
)

const instrumentationName = "github.com/i2y/tbx2pyt/internal/usecase"

const (
	// ArchiveExtension is the conventional extension of toolbox archives.
	ArchiveExtension = ".tbx"
	// SourceExtension is the extension given to generated toolbox sources.
	SourceExtension = ".pyt"
)

// ConversionRequest names the archive to convert and where to put the result.
type ConversionRequest struct {
	InputPath string
	// OutputPath defaults to InputPath with its extension swapped for SourceExtension.
	OutputPath string
}

// ConversionResult summarizes a finished conversion.
type ConversionResult struct {
	InputPath    string
	OutputPath   string
	ToolboxAlias string
	ToolboxLabel string
	Tools        []string
	Bytes        int
}

// ConvertToolboxUseCase reads a toolbox archive, renders it as source and writes the result.
type ConvertToolboxUseCase struct {
	opener      ArchiveOpener
	generator   SourceGenerator
	writer      OutputWriter
	logger      *slog.Logger
	tracer      trace.Tracer
	conversions metric.Int64Counter
	tools       metric.Int64Counter
}

// NewConvertToolboxUseCase creates a new ConvertToolboxUseCase.
// Tracing and metrics use the global OpenTelemetry providers.
func NewConvertToolboxUseCase(
	opener ArchiveOpener,
	generator SourceGenerator,
	writer OutputWriter,
	logger *slog.Logger,
) *ConvertToolboxUseCase {
	log := logger.With("usecase", "ConvertToolbox")
	meter := otel.Meter(instrumentationName)

	conversions, err := meter.Int64Counter("tbx2pyt.conversions",
		metric.WithDescription("Toolbox conversions attempted, by outcome."))
	if err != nil {
		log.Warn("Failed to create conversions counter, metrics disabled.", slog.Any("error", err))
		conversions = noop.Int64Counter{}
	}
	tools, err := meter.Int64Counter("tbx2pyt.tools.converted",
		metric.WithDescription("Tool declarations emitted."))
	if err != nil {
		log.Warn("Failed to create tools counter, metrics disabled.", slog.Any("error", err))
		tools = noop.Int64Counter{}
	}

	return &ConvertToolboxUseCase{
		opener:      opener,
		generator:   generator,
		writer:      writer,
		logger:      log,
		tracer:      otel.Tracer(instrumentationName),
		conversions: conversions,
		tools:       tools,
	}
}

// Execute converts one archive. Nothing is written unless the whole source was generated.
// progress may be nil.
func (uc *ConvertToolboxUseCase) Execute(ctx context.Context, req ConversionRequest, progress ProgressReporter) (*ConversionResult, error) {
	if progress == nil {
		progress = discardProgress{}
	}
	ctx, span := uc.tracer.Start(ctx, "ConvertToolbox",
		trace.WithAttributes(attribute.String("tbx2pyt.input_path", req.InputPath)))
	defer span.End()

	result, err := uc.convert(ctx, req, progress)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		uc.conversions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "failure")))
		return nil, err
	}
	span.SetAttributes(
		attribute.String("tbx2pyt.output_path", result.OutputPath),
		attribute.Int("tbx2pyt.tool_count", len(result.Tools)),
	)
	uc.conversions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "success")))
	return result, nil
}

func (uc *ConvertToolboxUseCase) convert(ctx context.Context, req ConversionRequest, progress ProgressReporter) (*ConversionResult, error) {
	log := uc.logger.With(slog.String("input", req.InputPath))

	if err := ValidateInputPath(req.InputPath); err != nil {
		log.Warn("Rejected input path", slog.Any("error", err))
		return nil, err
	}
	outputPath := req.OutputPath
	if outputPath == "" {
		outputPath = DefaultOutputPath(req.InputPath)
	}
	log = log.With(slog.String("output", outputPath))
	log.Info("Starting toolbox conversion")

	// 1. Read and render the whole toolbox in memory.
	result, source, err := uc.render(ctx, req.InputPath, progress)
	if err != nil {
		return nil, err
	}
	result.OutputPath = outputPath

	// 2. Write it in one go.
	log.Info("Writing generated source", slog.Int("bytes", len(source)))
	if err := uc.writer.Write(ctx, outputPath, []byte(source)); err != nil {
		log.Error("Failed to write generated source", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to write %s: %w", ErrOutputWrite, outputPath, err)
	}

	progress.Report(fmt.Sprintf("Conversion complete: %s", outputPath))
	log.Info("Toolbox converted successfully", slog.Int("tool_count", len(result.Tools)))
	return result, nil
}

// render opens the archive for the duration of the generation and returns the full source.
func (uc *ConvertToolboxUseCase) render(ctx context.Context, inputPath string, progress ProgressReporter) (result *ConversionResult, source string, err error) {
	log := uc.logger.With(slog.String("input", inputPath))

	reader, err := uc.opener.Open(ctx, inputPath)
	if err != nil {
		log.Error("Failed to open archive", slog.Any("error", err))
		return nil, "", fmt.Errorf("failed to open archive %s: %w", inputPath, err)
	}
	defer func() {
		if closeErr := reader.Close(); closeErr != nil {
			log.Warn("Failed to close archive", slog.Any("error", closeErr))
		}
	}()

	toolbox, err := reader.ToolboxMetadata(ctx)
	if err != nil {
		log.Error("Failed to read toolbox metadata", slog.Any("error", err))
		return nil, "", fmt.Errorf("failed to read toolbox metadata from %s: %w", inputPath, err)
	}
	log.Info("Read toolbox metadata",
		slog.String("alias", toolbox.Alias),
		slog.Int("tool_count", len(toolbox.ToolNames)))
	progress.Report(fmt.Sprintf("Toolbox: %s (%s)", toolbox.Label, toolbox.Alias))

	emitter := uc.generator.NewEmitter()
	emitter.EmitHeader()
	emitter.EmitToolbox(toolbox)

	for _, name := range toolbox.ToolNames {
		if err := ctx.Err(); err != nil {
			return nil, "", fmt.Errorf("conversion of %s interrupted: %w", inputPath, err)
		}
		progress.Report(fmt.Sprintf("Tool: %s", name))

		tool, err := uc.readTool(ctx, reader, name)
		if err != nil {
			log.Error("Failed to read tool metadata", slog.String("tool", name), slog.Any("error", err))
			return nil, "", fmt.Errorf("failed to read tool %q from %s: %w", name, inputPath, err)
		}
		emitter.EmitTool(tool)
		uc.tools.Add(ctx, 1)
		log.Debug("Emitted tool declaration",
			slog.String("tool", name),
			slog.Int("parameter_count", tool.ParameterCount()),
			slog.Int("hook_count", len(tool.Validation)))
	}

	source = emitter.Source()
	return &ConversionResult{
		InputPath:    inputPath,
		ToolboxAlias: toolbox.Alias,
		ToolboxLabel: toolbox.Label,
		Tools:        append([]string(nil), toolbox.ToolNames...),
		Bytes:        len(source),
	}, source, nil
}

func (uc *ConvertToolboxUseCase) readTool(ctx context.Context, reader ArchiveReader, name string) (tool domain.ToolModel, err error) {
	ctx, span := uc.tracer.Start(ctx, "ReadTool", trace.WithAttributes(attribute.String("tbx2pyt.tool", name)))
	defer span.End()

	tool, err = reader.ToolMetadata(ctx, name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return tool, err
}

// ValidateInputPath checks that path names a toolbox archive by extension.
func ValidateInputPath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty input path", ErrUnsupportedInput)
	}
	if !strings.EqualFold(filepath.Ext(path), ArchiveExtension) {
		return fmt.Errorf("%w: %s is not a %s archive", ErrUnsupportedInput, path, ArchiveExtension)
	}
	return nil
}

// DefaultOutputPath swaps the extension of inputPath for SourceExtension.
func DefaultOutputPath(inputPath string) string {
	return strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + SourceExtension
}
