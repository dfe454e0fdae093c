package pytgen

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/i2y/tbx2pyt/internal/domain"
)

// arcpyDataTypes maps normalized data types to arcpy datatype keywords.
var arcpyDataTypes = map[domain.DataType]string{
	domain.DataTypeFolder:     "DEFolder",
	domain.DataTypeFile:       "DEFile",
	domain.DataTypeWorkspace:  "DEWorkspace",
	domain.DataTypeString:     "GPString",
	domain.DataTypeDouble:     "GPDouble",
	domain.DataTypeLong:       "GPLong",
	domain.DataTypeMultiValue: "GPMultiValue",
	domain.DataTypeValueTable: "GPValueTable",
}

const fallbackDataType = "GPString"

// ArcpyDataType returns the arcpy datatype keyword for an archive data type tag.
// Unknown tags map to GPString.
func ArcpyDataType(tag string) string {
	if kw, ok := arcpyDataTypes[domain.ParseDataType(tag)]; ok {
		return kw
	}
	return fallbackDataType
}

// emitParameterInfo writes getParameterInfo. Parameter fields are resolved here
// against the tool's reference map.
func (e *Emitter) emitParameterInfo(tool domain.ToolModel) {
	e.line(levelMethod, "def getParameterInfo(self):")

	var names []string
	if tool.Parameters != nil {
		index := 0
		for pair := tool.Parameters.Oldest(); pair != nil; pair = pair.Next() {
			names = append(names, e.emitParameter(index, pair.Key, pair.Value, tool.References))
			index++
		}
	}
	e.linef(levelStatement, "params = [%s]", strings.Join(names, ", "))

	if lines, ok := tool.Validation.Body(domain.HookInitializeParameters); ok {
		e.line(levelStatement, "# Initialization code from the original ToolValidator.initializeParameters")
		e.emitHookLines(TransformHook(lines, "params"))
	}
	e.line(levelStatement, "return params")
}

// emitParameter writes the construction of param{index} and returns its variable name.
func (e *Emitter) emitParameter(index int, name string, spec domain.ParameterSpec, refs domain.ReferenceMap) string {
	v := fmt.Sprintf("param%d", index)

	displayName := e.resolve(refs, name, "displayname", spec.DisplayName)
	description := stripMarkup(e.resolve(refs, name, "description", spec.Description))
	category := e.resolve(refs, name, "category", spec.Category)

	datatype := ArcpyDataType(spec.DataTypeTag)
	if spec.DataType() == domain.DataTypeString && spec.DataTypeTag != "GPString" {
		e.logger.Debug("Unrecognized data type, using GPString",
			slog.String("parameter", name), slog.String("tag", spec.DataTypeTag))
	}
	requiredness := spec.Requiredness
	if requiredness == "" {
		requiredness = domain.Required
	}

	e.linef(levelStatement, "%s = arcpy.Parameter(", v)
	e.linef(levelStatement+1, "displayName=%s,", quote(displayName))
	e.linef(levelStatement+1, "name=%s,", quote(name))
	e.linef(levelStatement+1, "datatype=%s,", quote(datatype))
	e.linef(levelStatement+1, "parameterType=%s,", quote(string(requiredness)))
	e.linef(levelStatement+1, "direction=%s)", quote("Input"))

	if spec.FileTypes != nil {
		e.linef(levelStatement, "%s.filter.list = %s", v, quoteList(spec.FileTypes))
	}
	if category != "" {
		e.linef(levelStatement, "%s.category = %s", v, quote(category))
	}
	if description != "" {
		e.linef(levelStatement, "%s.description = %s", v, quote(description))
	}
	e.blank()
	return v
}

// resolve looks s up in refs. A reference whose key is missing is kept as
// written and logged.
func (e *Emitter) resolve(refs domain.ReferenceMap, param, field, s string) string {
	v := refs.Resolve(s)
	if domain.IsReference(v) {
		e.logger.Warn("Unresolved reference, keeping literal",
			slog.String("parameter", param), slog.String("field", field), slog.String("value", v))
	}
	return v
}
