package adminhttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/i2y/tbx2pyt/internal/usecase"
)

// Converter runs a single toolbox conversion.
type Converter interface {
	Execute(ctx context.Context, req usecase.ConversionRequest, progress usecase.ProgressReporter) (*usecase.ConversionResult, error)
}

// BatchConverter converts every configured source.
type BatchConverter interface {
	ConvertAllConfiguredSources(ctx context.Context, progress usecase.ProgressReporter) ([]*usecase.ConversionResult, error)
}

// Handlers struct holds dependencies for the HTTP handlers.
type Handlers struct {
	convert Converter
	batch   BatchConverter
	logger  *slog.Logger
}

// NewHandlers creates a new Handlers struct.
func NewHandlers(convert Converter, batch BatchConverter, logger *slog.Logger) *Handlers {
	return &Handlers{
		convert: convert,
		batch:   batch,
		logger:  logger.With("component", "adminhttp_handler"),
	}
}

// RegisterAdminRoutes sets up the HTTP routes for admin endpoints.
func (h *Handlers) RegisterAdminRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /admin/convert", h.handleConvert)
	mux.HandleFunc("POST /admin/convert-all", h.handleConvertAll)
}

// ConvertRequest defines the expected JSON body for the /admin/convert endpoint.
type ConvertRequest struct {
	InputPath  string `json:"input_path"`
	OutputPath string `json:"output_path,omitempty"`
}

// ConvertResponse reports a finished conversion.
type ConvertResponse struct {
	InputPath  string   `json:"input_path"`
	OutputPath string   `json:"output_path"`
	Alias      string   `json:"alias"`
	Label      string   `json:"label"`
	Tools      []string `json:"tools"`
	Bytes      int      `json:"bytes"`
}

// ConvertAllResponse reports a batch run. Error describes the failed sources.
type ConvertAllResponse struct {
	Converted []ConvertResponse `json:"converted"`
	Error     string            `json:"error,omitempty"`
}

func toResponse(res *usecase.ConversionResult) ConvertResponse {
	return ConvertResponse{
		InputPath:  res.InputPath,
		OutputPath: res.OutputPath,
		Alias:      res.ToolboxAlias,
		Label:      res.ToolboxLabel,
		Tools:      res.Tools,
		Bytes:      res.Bytes,
	}
}

// handleConvert implements POST /admin/convert
func (h *Handlers) handleConvert(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Failed to decode convert request body", slog.Any("error", err))
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.InputPath == "" {
		h.logger.Warn("Convert request missing input_path field")
		http.Error(w, "Missing 'input_path' field in request body", http.StatusBadRequest)
		return
	}

	h.logger.Info("Received convert request", slog.String("input", req.InputPath))
	res, err := h.convert.Execute(r.Context(), usecase.ConversionRequest{
		InputPath:  req.InputPath,
		OutputPath: req.OutputPath,
	}, nil)
	if err != nil {
		h.logger.Error("Failed to convert toolbox", slog.String("input", req.InputPath), slog.Any("error", err))
		http.Error(w, fmt.Sprintf("Failed to convert toolbox: %v", err), statusFor(err))
		return
	}

	h.writeJSON(w, http.StatusOK, toResponse(res))
	h.logger.Info("Convert request completed", slog.String("output", res.OutputPath))
}

// handleConvertAll implements POST /admin/convert-all
func (h *Handlers) handleConvertAll(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Received convert-all request")
	results, err := h.batch.ConvertAllConfiguredSources(r.Context(), nil)

	resp := ConvertAllResponse{Converted: make([]ConvertResponse, 0, len(results))}
	for _, res := range results {
		resp.Converted = append(resp.Converted, toResponse(res))
	}
	status := http.StatusOK
	if err != nil {
		h.logger.Error("Some configured sources failed", slog.Any("error", err))
		resp.Error = err.Error()
		status = http.StatusMultiStatus
	}
	h.writeJSON(w, status, resp)
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("Failed to encode response", slog.Any("error", err))
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, usecase.ErrUnsupportedInput):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrArchiveIntegrity):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
