package usecase_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/i2y/tbx2pyt/internal/domain"
	"github.com/i2y/tbx2pyt/internal/usecase"
)

// MockArchiveOpener is a mock implementation of the ArchiveOpener interface.
type MockArchiveOpener struct {
	mock.Mock
}

func (m *MockArchiveOpener) Open(ctx context.Context, path string) (usecase.ArchiveReader, error) {
	args := m.Called(ctx, path)
	reader := args.Get(0)
	if reader == nil {
		return nil, args.Error(1)
	}
	return reader.(usecase.ArchiveReader), args.Error(1)
}

// MockArchiveReader is a mock implementation of the ArchiveReader interface.
type MockArchiveReader struct {
	mock.Mock
}

func (m *MockArchiveReader) ToolboxMetadata(ctx context.Context) (domain.ToolboxModel, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.ToolboxModel), args.Error(1)
}

func (m *MockArchiveReader) ToolMetadata(ctx context.Context, name string) (domain.ToolModel, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(domain.ToolModel), args.Error(1)
}

func (m *MockArchiveReader) Close() error {
	return m.Called().Error(0)
}

// MockOutputWriter is a mock implementation of the OutputWriter interface.
type MockOutputWriter struct {
	mock.Mock
}

func (m *MockOutputWriter) Write(ctx context.Context, path string, source []byte) error {
	return m.Called(ctx, path, source).Error(0)
}

// recordingGenerator emits one line per call so tests can check emission order.
type recordingGenerator struct{}

func (recordingGenerator) NewEmitter() usecase.SourceEmitter { return &recordingEmitter{} }

type recordingEmitter struct {
	lines []string
}

func (e *recordingEmitter) EmitHeader() { e.lines = append(e.lines, "header") }
func (e *recordingEmitter) EmitToolbox(tb domain.ToolboxModel) {
	e.lines = append(e.lines, "toolbox "+tb.Alias)
}
func (e *recordingEmitter) EmitTool(tool domain.ToolModel) {
	e.lines = append(e.lines, "tool "+tool.Name)
}
func (e *recordingEmitter) Source() string { return strings.Join(e.lines, "\n") }

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func sampleToolbox() domain.ToolboxModel {
	return domain.ToolboxModel{Alias: "Sample", Label: "Sample Tools", ToolNames: []string{"Buffer", "Clip"}}
}

func TestConvertToolboxUseCase_Execute(t *testing.T) {
	readErr := errors.New("boom")
	writeErr := errors.New("disk full")
	const input = "/data/Sample.tbx"
	const wantSource = "header\ntoolbox Sample\ntool Buffer\ntool Clip"

	tests := []struct {
		name       string
		req        usecase.ConversionRequest
		setup      func(*MockArchiveOpener, *MockArchiveReader, *MockOutputWriter)
		wantErrIs  error
		wantOutput string
	}{
		{
			name: "Success - default output path",
			req:  usecase.ConversionRequest{InputPath: input},
			setup: func(o *MockArchiveOpener, r *MockArchiveReader, w *MockOutputWriter) {
				o.On("Open", mock.Anything, input).Return(r, nil).Once()
				r.On("ToolboxMetadata", mock.Anything).Return(sampleToolbox(), nil).Once()
				r.On("ToolMetadata", mock.Anything, "Buffer").Return(domain.ToolModel{Name: "Buffer"}, nil).Once()
				r.On("ToolMetadata", mock.Anything, "Clip").Return(domain.ToolModel{Name: "Clip"}, nil).Once()
				r.On("Close").Return(nil).Once()
				w.On("Write", mock.Anything, "/data/Sample.pyt", []byte(wantSource)).Return(nil).Once()
			},
			wantOutput: "/data/Sample.pyt",
		},
		{
			name: "Success - explicit output path",
			req:  usecase.ConversionRequest{InputPath: input, OutputPath: "/out/x.pyt"},
			setup: func(o *MockArchiveOpener, r *MockArchiveReader, w *MockOutputWriter) {
				o.On("Open", mock.Anything, input).Return(r, nil).Once()
				r.On("ToolboxMetadata", mock.Anything).Return(sampleToolbox(), nil).Once()
				r.On("ToolMetadata", mock.Anything, mock.Anything).Return(domain.ToolModel{Name: "T"}, nil).Twice()
				r.On("Close").Return(nil).Once()
				w.On("Write", mock.Anything, "/out/x.pyt", mock.Anything).Return(nil).Once()
			},
			wantOutput: "/out/x.pyt",
		},
		{
			name:      "Failure - unsupported input",
			req:       usecase.ConversionRequest{InputPath: "/data/Sample.zip"},
			setup:     func(*MockArchiveOpener, *MockArchiveReader, *MockOutputWriter) {},
			wantErrIs: usecase.ErrUnsupportedInput,
		},
		{
			name: "Failure - archive cannot be opened",
			req:  usecase.ConversionRequest{InputPath: input},
			setup: func(o *MockArchiveOpener, r *MockArchiveReader, w *MockOutputWriter) {
				o.On("Open", mock.Anything, input).Return(nil, usecase.ErrArchiveIntegrity).Once()
			},
			wantErrIs: usecase.ErrArchiveIntegrity,
		},
		{
			name: "Failure - toolbox metadata closes reader and writes nothing",
			req:  usecase.ConversionRequest{InputPath: input},
			setup: func(o *MockArchiveOpener, r *MockArchiveReader, w *MockOutputWriter) {
				o.On("Open", mock.Anything, input).Return(r, nil).Once()
				r.On("ToolboxMetadata", mock.Anything).Return(domain.ToolboxModel{}, readErr).Once()
				r.On("Close").Return(nil).Once()
			},
			wantErrIs: readErr,
		},
		{
			name: "Failure - missing tool aborts the conversion",
			req:  usecase.ConversionRequest{InputPath: input},
			setup: func(o *MockArchiveOpener, r *MockArchiveReader, w *MockOutputWriter) {
				o.On("Open", mock.Anything, input).Return(r, nil).Once()
				r.On("ToolboxMetadata", mock.Anything).Return(sampleToolbox(), nil).Once()
				r.On("ToolMetadata", mock.Anything, "Buffer").Return(domain.ToolModel{Name: "Buffer"}, nil).Once()
				r.On("ToolMetadata", mock.Anything, "Clip").Return(domain.ToolModel{}, usecase.ErrArchiveIntegrity).Once()
				r.On("Close").Return(nil).Once()
			},
			wantErrIs: usecase.ErrArchiveIntegrity,
		},
		{
			name: "Failure - write error",
			req:  usecase.ConversionRequest{InputPath: input},
			setup: func(o *MockArchiveOpener, r *MockArchiveReader, w *MockOutputWriter) {
				o.On("Open", mock.Anything, input).Return(r, nil).Once()
				r.On("ToolboxMetadata", mock.Anything).Return(sampleToolbox(), nil).Once()
				r.On("ToolMetadata", mock.Anything, mock.Anything).Return(domain.ToolModel{Name: "T"}, nil).Twice()
				r.On("Close").Return(nil).Once()
				w.On("Write", mock.Anything, "/data/Sample.pyt", mock.Anything).Return(writeErr).Once()
			},
			wantErrIs: usecase.ErrOutputWrite,
		},
		{
			name: "Success - close error is only logged",
			req:  usecase.ConversionRequest{InputPath: input},
			setup: func(o *MockArchiveOpener, r *MockArchiveReader, w *MockOutputWriter) {
				o.On("Open", mock.Anything, input).Return(r, nil).Once()
				r.On("ToolboxMetadata", mock.Anything).Return(domain.ToolboxModel{Alias: "Sample"}, nil).Once()
				r.On("Close").Return(errors.New("close failed")).Once()
				w.On("Write", mock.Anything, "/data/Sample.pyt", mock.Anything).Return(nil).Once()
			},
			wantOutput: "/data/Sample.pyt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opener := new(MockArchiveOpener)
			reader := new(MockArchiveReader)
			writer := new(MockOutputWriter)
			tt.setup(opener, reader, writer)

			uc := usecase.NewConvertToolboxUseCase(opener, recordingGenerator{}, writer, newTestLogger())
			res, err := uc.Execute(context.Background(), tt.req, nil)

			if tt.wantErrIs != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErrIs)
				assert.Nil(t, res)
				if tt.wantErrIs == usecase.ErrOutputWrite {
					assert.ErrorIs(t, err, writeErr)
				} else {
					writer.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything)
				}
			} else {
				require.NoError(t, err)
				require.NotNil(t, res)
				assert.Equal(t, tt.wantOutput, res.OutputPath)
				assert.Equal(t, tt.req.InputPath, res.InputPath)
			}
			opener.AssertExpectations(t)
			reader.AssertExpectations(t)
			writer.AssertExpectations(t)
		})
	}
}

func TestConvertToolboxUseCase_Progress(t *testing.T) {
	opener := new(MockArchiveOpener)
	reader := new(MockArchiveReader)
	writer := new(MockOutputWriter)
	opener.On("Open", mock.Anything, "Sample.tbx").Return(reader, nil)
	reader.On("ToolboxMetadata", mock.Anything).Return(sampleToolbox(), nil)
	reader.On("ToolMetadata", mock.Anything, "Buffer").Return(domain.ToolModel{Name: "Buffer"}, nil)
	reader.On("ToolMetadata", mock.Anything, "Clip").Return(domain.ToolModel{Name: "Clip"}, nil)
	reader.On("Close").Return(nil)
	writer.On("Write", mock.Anything, "Sample.pyt", mock.Anything).Return(nil)

	var messages []string
	uc := usecase.NewConvertToolboxUseCase(opener, recordingGenerator{}, writer, newTestLogger())
	res, err := uc.Execute(context.Background(), usecase.ConversionRequest{InputPath: "Sample.tbx"},
		usecase.ProgressFunc(func(m string) { messages = append(messages, m) }))

	require.NoError(t, err)
	assert.Equal(t, []string{
		"Toolbox: Sample Tools (Sample)",
		"Tool: Buffer",
		"Tool: Clip",
		"Conversion complete: Sample.pyt",
	}, messages)
	assert.Equal(t, []string{"Buffer", "Clip"}, res.Tools)
	assert.Equal(t, "Sample", res.ToolboxAlias)
	assert.Equal(t, "Sample Tools", res.ToolboxLabel)
	assert.Equal(t, len("header\ntoolbox Sample\ntool Buffer\ntool Clip"), res.Bytes)
}

func TestConvertToolboxUseCase_CanceledContext(t *testing.T) {
	opener := new(MockArchiveOpener)
	reader := new(MockArchiveReader)
	writer := new(MockOutputWriter)
	opener.On("Open", mock.Anything, "Sample.tbx").Return(reader, nil)
	reader.On("ToolboxMetadata", mock.Anything).Return(sampleToolbox(), nil)
	reader.On("Close").Return(nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	uc := usecase.NewConvertToolboxUseCase(opener, recordingGenerator{}, writer, newTestLogger())
	_, err := uc.Execute(ctx, usecase.ConversionRequest{InputPath: "Sample.tbx"}, nil)

	assert.ErrorIs(t, err, context.Canceled)
	reader.AssertNotCalled(t, "ToolMetadata", mock.Anything, mock.Anything)
	writer.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything)
	reader.AssertExpectations(t)
}

func TestValidateInputPath(t *testing.T) {
	assert.NoError(t, usecase.ValidateInputPath("a/b/Sample.tbx"))
	assert.NoError(t, usecase.ValidateInputPath("SAMPLE.TBX"))
	assert.ErrorIs(t, usecase.ValidateInputPath(""), usecase.ErrUnsupportedInput)
	assert.ErrorIs(t, usecase.ValidateInputPath("Sample.pyt"), usecase.ErrUnsupportedInput)
	assert.ErrorIs(t, usecase.ValidateInputPath("Sample"), usecase.ErrUnsupportedInput)
}

func TestDefaultOutputPath(t *testing.T) {
	assert.Equal(t, "a/b/Sample.pyt", usecase.DefaultOutputPath("a/b/Sample.tbx"))
	assert.Equal(t, "Sample.pyt", usecase.DefaultOutputPath("Sample.TBX"))
	assert.Equal(t, "dir.v2/Sample.pyt", usecase.DefaultOutputPath("dir.v2/Sample.tbx"))
}
