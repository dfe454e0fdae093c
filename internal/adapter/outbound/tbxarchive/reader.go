// Package tbxarchive reads legacy toolbox archives (.tbx).
//
// Archive layout:
//
//	toolbox.content                     # alias, displayname, toolsets.<root>.tools
//	toolbox.content.rc                  # {"map": {key: string}}
//	<tool>.tool/tool.content            # displayname, description, params
//	<tool>.tool/tool.content.rc         # tool-scoped reference map
//	<tool>.tool/tool.script.validate.py # optional validation class
//	<tool>.tool/tool.script.execute.link # optional execute script reference
package tbxarchive

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"github.com/tidwall/gjson"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/i2y/tbx2pyt/internal/domain"
	"github.com/i2y/tbx2pyt/internal/usecase"
)

const (
	toolboxContentFile = "toolbox.content"
	toolboxRefsFile    = "toolbox.content.rc"
	toolContentFile    = "tool.content"
	toolRefsFile       = "tool.content.rc"
	validateScriptFile = "tool.script.validate.py"
	executeLinkFile    = "tool.script.execute.link"
	toolDirSuffix      = ".tool"

	// rootToolset is the only toolset whose tools are converted.
	rootToolset = "<root>"
)

// Opener implements usecase.ArchiveOpener for zip-based toolbox archives.
type Opener struct {
	logger *slog.Logger
}

// NewOpener creates a new archive Opener.
func NewOpener(logger *slog.Logger) *Opener {
	return &Opener{logger: logger.With("component", "tbx_reader")}
}

// Open opens the archive at path. The returned reader owns the file handle.
func (o *Opener) Open(ctx context.Context, archivePath string) (usecase.ArchiveReader, error) {
	log := o.logger.With(slog.String("archive", archivePath))
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		log.Error("Failed to open archive", slog.Any("error", err))
		return nil, fmt.Errorf("%w: open %s: %w", usecase.ErrArchiveIntegrity, archivePath, err)
	}
	log.Debug("Opened archive", slog.Int("entries", len(zr.File)))
	return &Reader{fsys: &zr.Reader, closer: zr, logger: log}, nil
}

// Reader implements usecase.ArchiveReader over an open zip archive.
type Reader struct {
	fsys   fs.FS
	closer io.Closer
	logger *slog.Logger
}

// NewReader wraps an already opened zip reader, e.g. one backed by memory.
// Closing the returned Reader does not close anything.
func NewReader(zr *zip.Reader, logger *slog.Logger) *Reader {
	return &Reader{fsys: zr, logger: logger.With("component", "tbx_reader")}
}

// Close releases the archive handle.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

// ToolboxMetadata reads the toolbox descriptor and resolves alias and label.
// Only tools of the root toolset are listed.
func (r *Reader) ToolboxMetadata(ctx context.Context) (domain.ToolboxModel, error) {
	data, err := r.readRequired(toolboxContentFile)
	if err != nil {
		return domain.ToolboxModel{}, err
	}
	doc, err := parseObject(toolboxContentFile, data)
	if err != nil {
		return domain.ToolboxModel{}, err
	}
	refs, err := r.readReferences(toolboxRefsFile)
	if err != nil {
		return domain.ToolboxModel{}, err
	}

	var tools []string
	doc.Get("toolsets").ForEach(func(key, toolset gjson.Result) bool {
		if key.String() != rootToolset {
			r.logger.Warn("Ignoring tools outside the root toolset", slog.String("toolset", key.String()))
			return true
		}
		toolset.Get("tools").ForEach(func(_, name gjson.Result) bool {
			tools = append(tools, name.String())
			return true
		})
		return true
	})

	tb := domain.ToolboxModel{
		Alias:     refs.Resolve(doc.Get("alias").String()),
		Label:     refs.Resolve(doc.Get("displayname").String()),
		ToolNames: tools,
	}
	r.logger.Debug("Read toolbox descriptor", slog.String("alias", tb.Alias), slog.Int("tool_count", len(tools)))
	return tb, nil
}

// toolContent mirrors tool.content. Params keeps the archive's key order.
type toolContent struct {
	DisplayName string                                       `json:"displayname"`
	Description string                                       `json:"description"`
	Params      *orderedmap.OrderedMap[string, paramContent] `json:"params"`
}

type paramContent struct {
	Type        string `json:"type"`
	DisplayName string `json:"displayname"`
	DataType    struct {
		Type string `json:"type"`
	} `json:"datatype"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Domain      *domainContent `json:"domain"`
}

type domainContent struct {
	Type      string   `json:"type"`
	FileTypes []string `json:"filetypes"`
}

// ToolMetadata reads the tool stored under <name>.tool/.
// Label and description are resolved; parameters and the reference map are passed through.
func (r *Reader) ToolMetadata(ctx context.Context, name string) (domain.ToolModel, error) {
	log := r.logger.With(slog.String("tool", name))
	dir := name + toolDirSuffix

	data, err := r.readRequired(path.Join(dir, toolContentFile))
	if err != nil {
		return domain.ToolModel{}, err
	}
	var content toolContent
	if err := json.Unmarshal(data, &content); err != nil {
		return domain.ToolModel{}, fmt.Errorf("%w: parse %s: %w", usecase.ErrArchiveIntegrity, path.Join(dir, toolContentFile), err)
	}
	refs, err := r.readReferences(path.Join(dir, toolRefsFile))
	if err != nil {
		return domain.ToolModel{}, err
	}

	tool := domain.ToolModel{
		Name:        name,
		Label:       refs.Resolve(content.DisplayName),
		Description: refs.Resolve(content.Description),
		Parameters:  toParameters(content.Params),
		References:  refs,
	}

	script, ok, err := r.readOptional(path.Join(dir, validateScriptFile))
	if err != nil {
		return domain.ToolModel{}, err
	}
	if ok {
		tool.Validation = ParseValidationSource(string(script))
		log.Debug("Parsed validation script", slog.Int("hook_count", len(tool.Validation)))
	}

	link, ok, err := r.readOptional(path.Join(dir, executeLinkFile))
	if err != nil {
		return domain.ToolModel{}, err
	}
	if ok {
		tool.ExecuteReference = strings.TrimSpace(string(link))
	}

	log.Debug("Read tool descriptor",
		slog.Int("parameter_count", tool.ParameterCount()),
		slog.Bool("has_execute_link", tool.ExecuteReference != ""))
	return tool, nil
}

func toParameters(params *orderedmap.OrderedMap[string, paramContent]) *orderedmap.OrderedMap[string, domain.ParameterSpec] {
	out := domain.NewParameters()
	if params == nil {
		return out
	}
	for pair := params.Oldest(); pair != nil; pair = pair.Next() {
		p := pair.Value
		spec := domain.ParameterSpec{
			Name:         pair.Key,
			Requiredness: domain.ParseRequiredness(p.Type),
			DisplayName:  p.DisplayName,
			DataTypeTag:  p.DataType.Type,
			Description:  p.Description,
			Category:     p.Category,
		}
		if p.Domain != nil && p.Domain.Type == domain.FileDomainType && p.Domain.FileTypes != nil {
			spec.FileTypes = append([]string(nil), p.Domain.FileTypes...)
		}
		out.Set(pair.Key, spec)
	}
	return out
}

// readReferences parses a reference map file ({"map": {...}}).
func (r *Reader) readReferences(name string) (domain.ReferenceMap, error) {
	data, err := r.readRequired(name)
	if err != nil {
		return nil, err
	}
	doc, err := parseObject(name, data)
	if err != nil {
		return nil, err
	}
	refs := domain.ReferenceMap{}
	doc.Get("map").ForEach(func(key, value gjson.Result) bool {
		refs[key.String()] = value.String()
		return true
	})
	return refs, nil
}

func (r *Reader) readRequired(name string) ([]byte, error) {
	data, err := fs.ReadFile(r.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.logger.Error("Required archive file missing", slog.String("file", name))
			return nil, fmt.Errorf("%w: required file %s is missing", usecase.ErrArchiveIntegrity, name)
		}
		return nil, fmt.Errorf("%w: read %s: %w", usecase.ErrArchiveIntegrity, name, err)
	}
	return data, nil
}

// readOptional reports ok=false when the file does not exist.
func (r *Reader) readOptional(name string) (data []byte, ok bool, err error) {
	data, err = fs.ReadFile(r.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: read %s: %w", usecase.ErrArchiveIntegrity, name, err)
	}
	return data, true, nil
}

func parseObject(name string, data []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, fmt.Errorf("%w: %s is not valid JSON", usecase.ErrArchiveIntegrity, name)
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return gjson.Result{}, fmt.Errorf("%w: %s is not a JSON object", usecase.ErrArchiveIntegrity, name)
	}
	return doc, nil
}
