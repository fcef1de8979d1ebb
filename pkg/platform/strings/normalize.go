// Package strings provides string normalization helpers for request decoding.
package strings

import (
	"strings"
)

// TrimSpacePtr trims whitespace from an optional string pointer.
// Returns nil if input is nil, otherwise returns a pointer to the trimmed string.
func TrimSpacePtr(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	return &trimmed
}

// TrimLower trims whitespace and lowercases the value. Used for enum-like
// request fields such as mode and rule_type.
//
// Example:
//
//	TrimLower("  Soft_Block ")
//	// Returns: "soft_block"
func TrimLower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// TrimMapKeys returns a copy of m with surrounding whitespace removed from
// every key. Keys that collapse to the empty string are dropped; when two
// keys collapse to the same value the later one in iteration order wins.
func TrimMapKeys(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		trimmed := strings.TrimSpace(k)
		if trimmed == "" {
			continue
		}
		out[trimmed] = v
	}
	return out
}
