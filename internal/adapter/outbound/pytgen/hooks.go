package pytgen

import (
	"strings"

	"github.com/i2y/tbx2pyt/internal/domain"
)

// instanceParams is how validator methods refer to the parameter list.
const instanceParams = "self.params"

// TransformHook rewrites hook body lines for use inside a tool method:
// every self.params becomes target and one indentation unit is removed from
// lines that start with it. Relative indentation is preserved.
func TransformHook(lines []string, target string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		l = strings.ReplaceAll(l, instanceParams, target)
		out[i] = strings.TrimPrefix(l, indentUnit)
	}
	return out
}

// emitHookBody writes the relocated hook as a method body, or a bare return
// when the hook is absent.
func (e *Emitter) emitHookBody(methods domain.ValidationMethods, hook domain.Hook) {
	lines, ok := methods.Body(hook)
	if !ok {
		e.line(levelStatement, "return")
		return
	}
	e.emitHookLines(TransformHook(lines, "parameters"))
}

// emitHookLines writes transformed lines at class level; the indentation the
// lines still carry puts them inside the method. Blank lines are dropped.
func (e *Emitter) emitHookLines(lines []string) {
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		e.line(levelMethod, l)
	}
}
