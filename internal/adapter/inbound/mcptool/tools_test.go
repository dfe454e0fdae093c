package mcptool_test

import (
	"archive/zip"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpGoServer "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2y/tbx2pyt/internal/adapter/inbound/mcptool"
	"github.com/i2y/tbx2pyt/internal/adapter/outbound/localfs"
	"github.com/i2y/tbx2pyt/internal/adapter/outbound/memout"
	"github.com/i2y/tbx2pyt/internal/adapter/outbound/pytgen"
	"github.com/i2y/tbx2pyt/internal/adapter/outbound/tbxarchive"
	"github.com/i2y/tbx2pyt/internal/usecase"
)

// fakeRegistrar captures registered handlers by tool name.
type fakeRegistrar struct {
	tools    map[string]mcp.Tool
	handlers map[string]mcpGoServer.ToolHandlerFunc
}

func (f *fakeRegistrar) AddTool(tool mcp.Tool, handler mcpGoServer.ToolHandlerFunc) {
	f.tools[tool.Name] = tool
	f.handlers[tool.Name] = handler
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func writeSampleArchive(t *testing.T) string {
	t.Helper()
	files := map[string]string{
		"toolbox.content":             `{"alias": "Sample", "displayname": "Sample Tools", "toolsets": {"<root>": {"tools": ["Buffer"]}}}`,
		"toolbox.content.rc":          `{"map": {}}`,
		"Buffer.tool/tool.content":    `{"displayname": "Buffer", "params": {"in_features": {"datatype": {"type": "DEFile"}}}}`,
		"Buffer.tool/tool.content.rc": `{"map": {}}`,
	}
	path := filepath.Join(t.TempDir(), "Sample.tbx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func setup(t *testing.T) *fakeRegistrar {
	t.Helper()
	logger := newTestLogger()
	opener := tbxarchive.NewOpener(logger)
	generator := pytgen.NewGenerator(logger)
	store := memout.NewWriter(logger)

	convert := usecase.NewConvertToolboxUseCase(opener, generator, localfs.NewWriter(logger), logger)
	preview := usecase.NewConvertToolboxUseCase(opener, generator, store, logger)

	reg := &fakeRegistrar{tools: map[string]mcp.Tool{}, handlers: map[string]mcpGoServer.ToolHandlerFunc{}}
	mcptool.NewTools(convert, preview, store, logger).Register(reg)
	return reg
}

func call(t *testing.T, reg *fakeRegistrar, tool string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	handler, ok := reg.handlers[tool]
	require.True(t, ok, "tool %s not registered", tool)

	var req mcp.CallToolRequest
	req.Params.Name = tool
	req.Params.Arguments = args
	res, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestTools_Register(t *testing.T) {
	reg := setup(t)
	assert.Contains(t, reg.tools, mcptool.ConvertToolName)
	assert.Contains(t, reg.tools, mcptool.PreviewToolName)
	assert.Contains(t, reg.tools[mcptool.ConvertToolName].InputSchema.Required, "input_path")
}

func TestTools_Convert(t *testing.T) {
	reg := setup(t)
	input := writeSampleArchive(t)

	res := call(t, reg, mcptool.ConvertToolName, map[string]any{"input_path": input})
	assert.False(t, res.IsError)
	text := resultText(t, res)
	assert.Contains(t, text, "Toolbox: Sample Tools (Sample)")
	assert.Contains(t, text, "Tool: Buffer")

	src, err := os.ReadFile(usecase.DefaultOutputPath(input))
	require.NoError(t, err)
	assert.Contains(t, string(src), "class BufferTool(object):")
}

func TestTools_Preview(t *testing.T) {
	reg := setup(t)
	input := writeSampleArchive(t)

	res := call(t, reg, mcptool.PreviewToolName, map[string]any{"input_path": input})
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "self.tools = [BufferTool]")
	assert.NoFileExists(t, usecase.DefaultOutputPath(input))
}

func TestTools_Errors(t *testing.T) {
	reg := setup(t)

	res := call(t, reg, mcptool.ConvertToolName, map[string]any{})
	assert.True(t, res.IsError)

	res = call(t, reg, mcptool.PreviewToolName, map[string]any{"input_path": filepath.Join(t.TempDir(), "absent.tbx")})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "preview failed")

	res = call(t, reg, mcptool.ConvertToolName, map[string]any{"input_path": "notes.txt"})
	assert.True(t, res.IsError)
}
