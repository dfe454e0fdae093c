package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ConvertSourcesUseCase converts every configured archive, one after another.
type ConvertSourcesUseCase struct {
	sources []ConversionRequest
	convert *ConvertToolboxUseCase
	logger  *slog.Logger
}

// NewConvertSourcesUseCase creates a new ConvertSourcesUseCase.
func NewConvertSourcesUseCase(sources []ConversionRequest, convert *ConvertToolboxUseCase, logger *slog.Logger) *ConvertSourcesUseCase {
	return &ConvertSourcesUseCase{
		sources: sources,
		convert: convert,
		logger:  logger.With("usecase", "ConvertSources"),
	}
}

// ConvertAllConfiguredSources runs one independent conversion per source.
// A failing source does not stop the others; all failures are joined into the returned error.
func (uc *ConvertSourcesUseCase) ConvertAllConfiguredSources(ctx context.Context, progress ProgressReporter) ([]*ConversionResult, error) {
	if len(uc.sources) == 0 {
		uc.logger.Info("No toolbox sources configured")
		return nil, nil
	}
	uc.logger.Info("Converting configured sources", slog.Int("count", len(uc.sources)))

	var (
		results []*ConversionResult
		errs    []error
	)
	for _, src := range uc.sources {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := uc.convert.Execute(ctx, src, progress)
		if err != nil {
			uc.logger.Error("Source conversion failed", slog.String("input", src.InputPath), slog.Any("error", err))
			errs = append(errs, fmt.Errorf("source %s: %w", src.InputPath, err))
			continue
		}
		results = append(results, res)
	}

	uc.logger.Info("Finished converting configured sources",
		slog.Int("converted", len(results)),
		slog.Int("failed", len(errs)))
	return results, errors.Join(errs...)
}
