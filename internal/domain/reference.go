package domain

import "strings"

// ReferencePrefix marks a string value as a key into a reference map.
const ReferencePrefix = "$rc:"

// ReferenceMap holds the resource strings of one scope (toolbox or tool).
type ReferenceMap map[string]string

// Resolve returns the mapped value when s is an indirect reference whose key
// exists; otherwise s is returned unchanged.
func (m ReferenceMap) Resolve(s string) string {
	key, ok := strings.CutPrefix(s, ReferencePrefix)
	if !ok {
		return s
	}
	if v, found := m[key]; found {
		return v
	}
	return s
}

// IsReference reports whether s carries the indirect reference marker.
func IsReference(s string) bool {
	return strings.HasPrefix(s, ReferencePrefix)
}
