package tbxarchive

import (
	"regexp"
	"strings"

	"github.com/i2y/tbx2pyt/internal/domain"
)

var (
	// hookDefPattern matches a zero-argument method definition: def name(self):
	hookDefPattern = regexp.MustCompile(`^\s*def\s+(\w+)\s*\(\s*self\s*\)\s*(?:->\s*[^:]+)?:`)
	defPattern     = regexp.MustCompile(`^\s*def\s`)
)

// ParseValidationSource extracts the bodies of the recognized hooks from a
// validation script.
//
// The scan is line based and assumes the conventional layout of a validator
// class: methods indented one level, bodies indented at least one level more,
// no statement spanning an indentation change. A body ends at the next
// unindented non-blank line or at the next def. Full-line comments and bare
// return statements are dropped; every other line, blank lines included, is
// kept verbatim. Hooks whose body has no other content are left out. When a
// hook is defined more than once, the first definition wins.
func ParseValidationSource(source string) domain.ValidationMethods {
	methods := domain.ValidationMethods{}
	seen := make(map[domain.Hook]bool)

	var (
		capturing bool
		discard   bool
		current   domain.Hook
		body      []string
	)
	finish := func() {
		if capturing && !discard && hasContent(body) {
			methods[current] = body
		}
		capturing, discard, body = false, false, nil
	}

	for _, line := range splitLines(source) {
		if capturing {
			if !isBodyBoundary(line) {
				if keepBodyLine(line) {
					body = append(body, line)
				}
				continue
			}
			finish()
		}
		hook, ok := matchHookDef(line)
		if !ok {
			continue
		}
		capturing, current = true, hook
		discard = seen[hook]
		seen[hook] = true
	}
	finish()
	return methods
}

func matchHookDef(line string) (domain.Hook, bool) {
	m := hookDefPattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return domain.ParseHook(m[1])
}

func isBodyBoundary(line string) bool {
	if defPattern.MatchString(line) {
		return true
	}
	return strings.TrimSpace(line) != "" && !startsIndented(line)
}

func keepBodyLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return !strings.HasPrefix(trimmed, "#") && trimmed != "return"
}

func hasContent(lines []string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return true
		}
	}
	return false
}

func startsIndented(line string) bool {
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
}

func splitLines(source string) []string {
	lines := strings.Split(strings.TrimSuffix(source, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
