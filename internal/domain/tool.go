package domain

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ToolClassSuffix is appended to a tool name to form its generated class identifier.
const ToolClassSuffix = "Tool"

// ToolboxModel is the root of a converted toolbox.
// It is built once per conversion by the archive reader and never mutated afterwards.
type ToolboxModel struct {
	// Alias is the toolbox identifier (e.g. "Sample").
	Alias string

	// Label is the display name, already resolved against the toolbox reference map.
	Label string

	// ToolNames lists the tools of the root toolset, in archive order.
	// Tools living in nested toolsets are not included.
	ToolNames []string
}

// ToolModel describes a single tool of the toolbox.
type ToolModel struct {
	// Name is the tool identifier; it also names the tool's directory in the archive.
	Name string

	// Label and Description are resolved at read time but may still carry markup.
	Label       string
	Description string

	// Parameters preserves declaration order: the Nth entry becomes param{N}.
	// Parameter strings are NOT resolved yet; see References.
	Parameters *orderedmap.OrderedMap[string, ParameterSpec]

	// References is the tool-scoped reference map used for parameter fields.
	References ReferenceMap

	// Validation holds the hook bodies extracted from the validation script.
	// Nil when the tool has no validation script.
	Validation ValidationMethods

	// ExecuteReference names the location of the original execute script.
	// Empty when the archive carries no execute link.
	ExecuteReference string
}

// ClassName returns the identifier of the class generated for this tool.
func (t ToolModel) ClassName() string {
	return ToolClassName(t.Name)
}

// ToolClassName derives a generated class identifier from a tool name.
func ToolClassName(name string) string {
	return name + ToolClassSuffix
}

// ParameterCount returns the number of parameters, tolerating a nil map.
func (t ToolModel) ParameterCount() int {
	if t.Parameters == nil {
		return 0
	}
	return t.Parameters.Len()
}

// ParameterSpec is a single tool parameter as found in the archive.
type ParameterSpec struct {
	Name         string
	Requiredness Requiredness
	DisplayName  string
	DataTypeTag  string
	Description  string
	Category     string

	// FileTypes is only set when the parameter's domain is a file-type domain.
	FileTypes []string
}

// DataType returns the parsed data type of the parameter.
func (p ParameterSpec) DataType() DataType {
	return ParseDataType(p.DataTypeTag)
}

// NewParameters returns an empty ordered parameter map.
func NewParameters() *orderedmap.OrderedMap[string, ParameterSpec] {
	return orderedmap.New[string, ParameterSpec]()
}
