package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	mcpGoServer "github.com/mark3labs/mcp-go/server"

	"github.com/i2y/tbx2pyt/internal/adapter/inbound/adminhttp"
	"github.com/i2y/tbx2pyt/internal/adapter/inbound/mcptool"
)

const serverVersion = "0.1.0"

func runServe(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	transport := fs.String("transport", "sse", "Transport mode: sse or stdio")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *transport != "stdio" && *transport != "sse" {
		return fmt.Errorf("invalid transport %q: want stdio or sse", *transport)
	}

	a, err := newApp(stderr, *transport == "stdio")
	if err != nil {
		return err
	}
	defer a.close()
	logger := a.logger
	logger.Info("Starting MCP server.", slog.String("transport", *transport))

	// === MCP Server (mark3labs/mcp-go) ===
	mcpSrv := mcpGoServer.NewMCPServer("tbx2pyt", serverVersion)
	mcptool.NewTools(a.convert, a.preview, a.store, logger).Register(mcpSrv)

	switch *transport {
	case "stdio":
		stdioServer := mcpGoServer.NewStdioServer(mcpSrv)
		if err := stdioServer.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("STDIO server error", slog.Any("error", err))
			return err
		}
		return nil

	default:
		return serveSSE(ctx, a, mcpSrv)
	}
}

// serveSSE runs the MCP SSE server and the admin HTTP server until ctx is done.
func serveSSE(ctx context.Context, a *app, mcpSrv *mcpGoServer.MCPServer) error {
	logger := a.logger
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	sseServer := mcpGoServer.NewSSEServer(mcpSrv, mcpGoServer.WithBaseURL("http://"+a.cfg.ListenAddr))

	// === Admin HTTP Server Setup ===
	adminMux := http.NewServeMux()
	adminhttp.NewHandlers(a.convert, a.batch, logger).RegisterAdminRoutes(adminMux)
	adminServer := &http.Server{
		Addr:    a.cfg.AdminAddr,
		Handler: adminMux,
	}
	go func() {
		logger.Info("Admin HTTP server starting.", slog.String("address", adminServer.Addr))
		if err := adminServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Admin HTTP server failed to start.", slog.Any("error", err))
		}
	}()

	go func() {
		logger.Info("MCP SSE server starting.", slog.String("address", a.cfg.ListenAddr))
		if err := sseServer.Start(a.cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("MCP SSE server failed to start.", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	// === Server Shutdown ===
	logger.Info("Shutting down servers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Admin HTTP server graceful shutdown failed.", slog.Any("error", err))
		errs = append(errs, err)
	}
	if err := sseServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("MCP SSE server graceful shutdown failed.", slog.Any("error", err))
		errs = append(errs, err)
	}
	logger.Info("Servers shut down.")
	return errors.Join(errs...)
}
