package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/i2y/tbx2pyt/configs"
	"github.com/i2y/tbx2pyt/internal/adapter/outbound/localfs"
	"github.com/i2y/tbx2pyt/internal/adapter/outbound/memout"
	"github.com/i2y/tbx2pyt/internal/adapter/outbound/pytgen"
	"github.com/i2y/tbx2pyt/internal/adapter/outbound/tbxarchive"
	"github.com/i2y/tbx2pyt/internal/usecase"
)

// app holds the wired dependencies shared by all commands.
type app struct {
	cfg     *configs.Config
	logger  *slog.Logger
	store   *memout.Writer
	convert *usecase.ConvertToolboxUseCase
	preview *usecase.ConvertToolboxUseCase
	batch   *usecase.ConvertSourcesUseCase
	closers []func(context.Context) error
}

// newApp loads the configuration and wires the use cases. When logToFile is
// set (stdio transport) logs go to the configured file instead of logOut.
func newApp(logOut io.Writer, logToFile bool) (*app, error) {
	// === Configuration ===
	cfg, err := configs.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	a := &app{cfg: cfg}

	// === Logging ===
	logLevel := cfg.ParsedLogLevel()
	if logToFile {
		logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			a.logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: logLevel}))
		} else {
			a.logger = slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: logLevel}))
			a.closers = append(a.closers, func(context.Context) error { return logFile.Close() })
		}
	} else {
		a.logger = slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: logLevel}))
	}
	slog.SetDefault(a.logger)
	a.logger.Debug("Logger initialized.", slog.String("level", logLevel.String()))

	// === OpenTelemetry Initialization ===
	shutdownOtel, err := initOtelProvider(cfg)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	a.closers = append(a.closers, shutdownOtel)

	// === Dependency Injection ===
	opener := tbxarchive.NewOpener(a.logger)
	generator := pytgen.NewGenerator(a.logger)
	a.store = memout.NewWriter(a.logger)

	a.convert = usecase.NewConvertToolboxUseCase(opener, generator, localfs.NewWriter(a.logger), a.logger)
	a.preview = usecase.NewConvertToolboxUseCase(opener, generator, a.store, a.logger)
	a.batch = usecase.NewConvertSourcesUseCase(cfg.ConversionRequests(), a.convert, a.logger)
	a.logger.Debug("Dependencies initialized.", slog.Int("configured_sources", len(cfg.Sources)))

	return a, nil
}

// close runs the shutdown hooks in reverse order.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](context.Background()); err != nil && a.logger != nil {
			a.logger.Error("Shutdown hook failed.", slog.Any("error", err))
		}
	}
	a.closers = nil
}
