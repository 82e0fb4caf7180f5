// Package util provides common utility functions.
package util

import "strings"

// NormalizeTagName converts user input to the canonical tag name.
// The normalized name is the source of truth for tag identity:
// trimmed and lower-cased. Returns "" for blank input.
//
// Examples:
//
//	"Work"     → "work"
//	" work "   → "work"
//	"WORK"     → "work"
//	"   "      → ""
func NormalizeTagName(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

// NormalizeTagNames canonicalizes a list of raw tag names into a set of
// distinct, non-empty normalized names. Blank entries are silently dropped
// rather than rejected, so one malformed tag never blocks a write.
// Order is first-seen, which keeps the result deterministic.
func NormalizeTagNames(inputs []string) []string {
	seen := make(map[string]struct{}, len(inputs))
	out := make([]string, 0, len(inputs))
	for _, raw := range inputs {
		name := NormalizeTagName(raw)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
