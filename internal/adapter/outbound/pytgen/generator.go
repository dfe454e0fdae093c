// Package pytgen renders toolbox models as Python toolbox (.pyt) source.
//
// Output is a pure function of the model: no timestamps, no map iteration.
package pytgen

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/i2y/tbx2pyt/internal/domain"
	"github.com/i2y/tbx2pyt/internal/usecase"
)

// indentUnit is one nesting level: class, then method, then statement.
const indentUnit = "    "

const (
	levelClass = iota
	levelMethod
	levelStatement
)

// Generator implements usecase.SourceGenerator.
type Generator struct {
	logger *slog.Logger
}

// NewGenerator creates a new Python toolbox Generator.
func NewGenerator(logger *slog.Logger) *Generator {
	return &Generator{logger: logger.With("component", "pyt_generator")}
}

// NewEmitter returns an empty emitter for one conversion.
func (g *Generator) NewEmitter() usecase.SourceEmitter {
	return NewEmitter(g.logger)
}

// Emitter accumulates generated lines. It is not safe for concurrent use.
type Emitter struct {
	lines  []string
	logger *slog.Logger
}

// NewEmitter creates an Emitter. A nil logger discards log output.
func NewEmitter(logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Emitter{logger: logger}
}

// Source returns the text generated so far, newline terminated.
func (e *Emitter) Source() string {
	if len(e.lines) == 0 {
		return ""
	}
	return strings.Join(e.lines, "\n") + "\n"
}

func (e *Emitter) line(level int, text string) {
	e.lines = append(e.lines, strings.Repeat(indentUnit, level)+text)
}

func (e *Emitter) linef(level int, format string, args ...any) {
	e.line(level, fmt.Sprintf(format, args...))
}

func (e *Emitter) blank() {
	e.lines = append(e.lines, "")
}

// EmitHeader writes the encoding marker and the arcpy import.
func (e *Emitter) EmitHeader() {
	e.line(levelClass, "# -*- coding: utf-8 -*-")
	e.blank()
	e.line(levelClass, "import arcpy")
}

// EmitToolbox writes the Toolbox class listing the tool classes in archive order.
func (e *Emitter) EmitToolbox(toolbox domain.ToolboxModel) {
	classes := make([]string, len(toolbox.ToolNames))
	for i, name := range toolbox.ToolNames {
		classes[i] = domain.ToolClassName(name)
	}

	e.blank()
	e.blank()
	e.line(levelClass, "class Toolbox(object):")
	e.line(levelMethod, "def __init__(self):")
	e.linef(levelStatement, "self.label = %s", quote(toolbox.Label))
	e.linef(levelStatement, "self.alias = %s", quote(toolbox.Alias))
	e.linef(levelStatement, "self.tools = [%s]", strings.Join(classes, ", "))
}

// EmitTool writes the class of one tool. Every method is always present.
func (e *Emitter) EmitTool(tool domain.ToolModel) {
	e.blank()
	e.blank()
	e.linef(levelClass, "class %s(object):", tool.ClassName())

	e.line(levelMethod, "def __init__(self):")
	e.linef(levelStatement, "self.label = %s", quote(tool.Label))
	e.linef(levelStatement, "self.description = %s", quote(stripMarkup(tool.Description)))

	e.blank()
	e.emitParameterInfo(tool)

	e.blank()
	e.line(levelMethod, "def isLicensed(self):")
	e.line(levelStatement, "return True")

	e.blank()
	e.line(levelMethod, "def updateParameters(self, parameters):")
	e.emitHookBody(tool.Validation, domain.HookUpdateParameters)

	e.blank()
	e.line(levelMethod, "def updateMessages(self, parameters):")
	e.emitHookBody(tool.Validation, domain.HookUpdateMessages)

	e.blank()
	e.emitExecute(tool)

	e.blank()
	e.line(levelMethod, "def postExecute(self, parameters):")
	e.line(levelStatement, "return")
}

// emitExecute writes the execute stub. Execution logic is never generated.
func (e *Emitter) emitExecute(tool domain.ToolModel) {
	e.line(levelMethod, "def execute(self, parameters, messages):")
	if tool.ExecuteReference == "" {
		e.line(levelStatement, "# TODO: Implementation required.")
		e.linef(levelStatement, "arcpy.AddWarning(%s)",
			quote("Tool execution has not been implemented."))
		e.line(levelStatement, "return")
		return
	}
	ref := commentText(tool.ExecuteReference)
	e.line(levelStatement, "# TODO: Implementation required.")
	e.linef(levelStatement, "# Original execute script: %s", ref)
	e.line(levelStatement, "# Migrate the logic of the original script into this method.")
	e.linef(levelStatement, "arcpy.AddWarning(%s)",
		quote("Tool execution has not been migrated. Original script: "+tool.ExecuteReference))
	e.line(levelStatement, "return")
}
