// Package mcptool exposes toolbox conversion as MCP tools.
package mcptool

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/mark3labs/mcp-go/mcp"
	mcpGoServer "github.com/mark3labs/mcp-go/server"

	"github.com/i2y/tbx2pyt/internal/usecase"
)

const (
	ConvertToolName = "convert_toolbox"
	PreviewToolName = "preview_toolbox"
)

// ToolRegistrar is the part of the MCP server used to register tools.
type ToolRegistrar interface {
	AddTool(tool mcp.Tool, handlerFunc mcpGoServer.ToolHandlerFunc)
}

// Converter runs a single toolbox conversion.
type Converter interface {
	Execute(ctx context.Context, req usecase.ConversionRequest, progress usecase.ProgressReporter) (*usecase.ConversionResult, error)
}

// SourceStore hands back sources written by the preview converter.
type SourceStore interface {
	Take(path string) ([]byte, bool)
}

// Tools wires conversion use cases to MCP tool handlers.
type Tools struct {
	convert Converter
	preview Converter
	store   SourceStore
	seq     atomic.Uint64
	logger  *slog.Logger
}

// NewTools creates the MCP tool handlers. preview must write into store.
func NewTools(convert, preview Converter, store SourceStore, logger *slog.Logger) *Tools {
	return &Tools{
		convert: convert,
		preview: preview,
		store:   store,
		logger:  logger.With("component", "mcp_tools"),
	}
}

// Register adds the conversion tools to the server.
func (t *Tools) Register(srv ToolRegistrar) {
	srv.AddTool(mcp.NewTool(ConvertToolName,
		mcp.WithDescription("Convert a .tbx toolbox archive into a .pyt Python toolbox file."),
		mcp.WithString("input_path", mcp.Required(), mcp.Description("Path of the .tbx archive.")),
		mcp.WithString("output_path", mcp.Description("Path of the generated .pyt file. Defaults to the input path with a .pyt extension.")),
	), t.handleConvert)

	srv.AddTool(mcp.NewTool(PreviewToolName,
		mcp.WithDescription("Generate the .pyt source of a .tbx toolbox archive without writing any file."),
		mcp.WithString("input_path", mcp.Required(), mcp.Description("Path of the .tbx archive.")),
	), t.handlePreview)

	t.logger.Info("Registered MCP tools", slog.String("convert", ConvertToolName), slog.String("preview", PreviewToolName))
}

// progressLog collects progress messages for the tool result.
type progressLog struct {
	lines []string
}

func (p *progressLog) Report(message string) { p.lines = append(p.lines, message) }

func (t *Tools) handleConvert(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := request.RequireString("input_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	output := request.GetString("output_path", "")

	progress := &progressLog{}
	res, err := t.convert.Execute(ctx, usecase.ConversionRequest{InputPath: input, OutputPath: output}, progress)
	if err != nil {
		t.logger.Error("Tool call failed", slog.String("tool", ConvertToolName), slog.String("input", input), slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("conversion failed: %v", err)), nil
	}

	progress.Report(fmt.Sprintf("Wrote %d bytes, %d tools.", res.Bytes, len(res.Tools)))
	return mcp.NewToolResultText(strings.Join(progress.lines, "\n")), nil
}

func (t *Tools) handlePreview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := request.RequireString("input_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Unique key so concurrent previews of one archive do not collide.
	key := fmt.Sprintf("preview/%d/%s", t.seq.Add(1), usecase.DefaultOutputPath(input))
	res, err := t.preview.Execute(ctx, usecase.ConversionRequest{InputPath: input, OutputPath: key}, nil)
	if err != nil {
		t.logger.Error("Tool call failed", slog.String("tool", PreviewToolName), slog.String("input", input), slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("preview failed: %v", err)), nil
	}

	source, ok := t.store.Take(res.OutputPath)
	if !ok {
		return mcp.NewToolResultError("preview produced no source"), nil
	}
	return mcp.NewToolResultText(string(source)), nil
}
