// Package parsers turns raw model output into typed pipeline results. Both
// parsers tolerate the cosmetic quirks chat models add around JSON (markdown
// fences, stray whitespace) and reject everything else; the caller decides
// what a parse failure falls back to.
package parsers

import "strings"

// basic safety limits to avoid pathological inputs
const (
	maxContentLen = 64 * 1024 // 64KB
	maxErrSnippet = 200       // limit error snippet size
)

// stripFences removes a surrounding markdown code fence, with or without a
// json language tag, and trims whitespace.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[3:]
	}
	if strings.HasSuffix(s, "```") {
		s = s[:len(s)-3]
	}
	return strings.TrimSpace(s)
}

// guardLen caps pathological content so a runaway model cannot make the
// parser allocate without bound.
func guardLen(s string) string {
	if len(s) > maxContentLen {
		return s[:maxContentLen]
	}
	return s
}

func safeSnippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxErrSnippet {
		return s
	}
	return s[:maxErrSnippet]
}
