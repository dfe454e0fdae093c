package domain

// DataType is the normalized data type of a tool parameter.
type DataType string

const (
	DataTypeFolder     DataType = "folder"
	DataTypeFile       DataType = "file"
	DataTypeWorkspace  DataType = "workspace"
	DataTypeString     DataType = "string"
	DataTypeDouble     DataType = "double"
	DataTypeLong       DataType = "long"
	DataTypeMultiValue DataType = "multi-value"
	DataTypeValueTable DataType = "value-table"
)

// dataTypeTags maps archive `datatype.type` tags to data types.
var dataTypeTags = map[string]DataType{
	"DEFolder":     DataTypeFolder,
	"DEFile":       DataTypeFile,
	"DEWorkspace":  DataTypeWorkspace,
	"GPString":     DataTypeString,
	"GPDouble":     DataTypeDouble,
	"GPLong":       DataTypeLong,
	"GPMultiValue": DataTypeMultiValue,
	"GPValueTable": DataTypeValueTable,
}

// ParseDataType maps an archive data type tag to a DataType.
// Unknown tags fall back to DataTypeString.
func ParseDataType(tag string) DataType {
	if dt, ok := dataTypeTags[tag]; ok {
		return dt
	}
	return DataTypeString
}

// Requiredness tells whether a parameter must be supplied.
type Requiredness string

const (
	Required Requiredness = "Required"
	Optional Requiredness = "Optional"
)

// ParseRequiredness maps the archive parameter `type` field to a Requiredness.
// Only the literal "optional" makes a parameter optional.
func ParseRequiredness(kind string) Requiredness {
	if kind == "optional" {
		return Optional
	}
	return Required
}

// FileDomainType is the archive domain type that carries a file-type filter.
const FileDomainType = "GPFileDomain"
