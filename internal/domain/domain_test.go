package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/i2y/tbx2pyt/internal/domain"
)

func TestReferenceMap_Resolve(t *testing.T) {
	refs := domain.ReferenceMap{"title": "Sample Tools", "empty": ""}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain string untouched", in: "Buffer", want: "Buffer"},
		{name: "known key resolved", in: "$rc:title", want: "Sample Tools"},
		{name: "known key with empty value", in: "$rc:empty", want: ""},
		{name: "unknown key keeps original", in: "$rc:missing", want: "$rc:missing"},
		{name: "marker must be a prefix", in: "see $rc:title", want: "see $rc:title"},
		{name: "empty string", in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, refs.Resolve(tt.in))
		})
	}
}

func TestReferenceMap_ResolveNilMap(t *testing.T) {
	var refs domain.ReferenceMap
	assert.Equal(t, "$rc:title", refs.Resolve("$rc:title"))
}

func TestIsReference(t *testing.T) {
	assert.True(t, domain.IsReference("$rc:title"))
	assert.True(t, domain.IsReference("$rc:"))
	assert.False(t, domain.IsReference("Buffer"))
	assert.False(t, domain.IsReference("see $rc:title"))
	assert.False(t, domain.IsReference(""))
}

func TestParseDataType(t *testing.T) {
	tests := map[string]domain.DataType{
		"DEFolder":     domain.DataTypeFolder,
		"DEFile":       domain.DataTypeFile,
		"DEWorkspace":  domain.DataTypeWorkspace,
		"GPString":     domain.DataTypeString,
		"GPDouble":     domain.DataTypeDouble,
		"GPLong":       domain.DataTypeLong,
		"GPMultiValue": domain.DataTypeMultiValue,
		"GPValueTable": domain.DataTypeValueTable,
		"GPFeatureSet": domain.DataTypeString,
		"":             domain.DataTypeString,
	}
	for tag, want := range tests {
		assert.Equal(t, want, domain.ParseDataType(tag), "tag %q", tag)
	}
}

func TestParseRequiredness(t *testing.T) {
	assert.Equal(t, domain.Optional, domain.ParseRequiredness("optional"))
	assert.Equal(t, domain.Required, domain.ParseRequiredness(""))
	assert.Equal(t, domain.Required, domain.ParseRequiredness("required"))
	assert.Equal(t, domain.Required, domain.ParseRequiredness("derived"))
}

func TestToolModel_ClassNameAndCount(t *testing.T) {
	tool := domain.ToolModel{Name: "Buffer"}
	assert.Equal(t, "BufferTool", tool.ClassName())
	assert.Equal(t, 0, tool.ParameterCount())

	tool.Parameters = domain.NewParameters()
	tool.Parameters.Set("in_features", domain.ParameterSpec{Name: "in_features"})
	assert.Equal(t, 1, tool.ParameterCount())
}

func TestParseHook(t *testing.T) {
	h, ok := domain.ParseHook("updateMessages")
	assert.True(t, ok)
	assert.Equal(t, domain.HookUpdateMessages, h)

	_, ok = domain.ParseHook("execute")
	assert.False(t, ok)
}
