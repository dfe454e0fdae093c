package domain

// Hook names one of the validation callbacks relocated into generated tools.
type Hook string

const (
	HookInitializeParameters Hook = "initializeParameters"
	HookUpdateParameters     Hook = "updateParameters"
	HookUpdateMessages       Hook = "updateMessages"
)

// Hooks lists the recognized hooks in their conventional declaration order.
var Hooks = []Hook{HookInitializeParameters, HookUpdateParameters, HookUpdateMessages}

// ParseHook returns the hook named by name, if it is one of the recognized hooks.
func ParseHook(name string) (Hook, bool) {
	for _, h := range Hooks {
		if string(h) == name {
			return h, true
		}
	}
	return "", false
}

// ValidationMethods maps hooks to their body lines.
// A hook that is not a key is absent; present hooks always have at least one
// non-blank line.
type ValidationMethods map[Hook][]string

// Body returns the body lines of h and whether the hook is present.
func (v ValidationMethods) Body(h Hook) ([]string, bool) {
	lines, ok := v[h]
	return lines, ok
}
