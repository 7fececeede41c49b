// Package sanitize normalizes raw note text before it is digested or previewed.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// CodeBlockMarker replaces a fenced code region in digest output.
const CodeBlockMarker = "[code block omitted]"

// completedTaskRe matches a checked checklist item such as "- [x] done".
var completedTaskRe = regexp.MustCompile(`^[-*+]\s+\[[xX]\]`)

// ForDigest prepares note content for digest building.
//
// Fenced code regions are replaced by a single CodeBlockMarker line, written
// when the opening fence is seen. A fence that is never closed swallows every
// remaining line. Completed checklist lines are dropped and every surviving
// line is trimmed. Invalid UTF-8 is replaced with U+FFFD.
func ForDigest(content string) string {
	lines := strings.Split(ValidUTF8(content), "\n")
	out := make([]string, 0, len(lines))
	inFence := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if isFence(trimmed) {
			if !inFence {
				out = append(out, CodeBlockMarker)
			}
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		if IsCompletedTask(trimmed) {
			continue
		}
		out = append(out, trimmed)
	}
	return strings.Join(out, "\n")
}

// ForPreview builds a single-line row preview of at most maxChars runes.
// Fenced regions are dropped without a marker and blank lines are skipped.
func ForPreview(content string, maxChars int) string {
	var parts []string
	inFence := false

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if isFence(trimmed) {
			inFence = !inFence
			continue
		}
		if inFence || trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	return Truncate(strings.Join(parts, " "), maxChars)
}

// IsCompletedTask reports whether a trimmed line is a checked checklist item.
func IsCompletedTask(trimmed string) bool {
	return completedTaskRe.MatchString(trimmed)
}

// ValidUTF8 replaces each run of invalid bytes with U+FFFD, the same
// substitution encoding/json applies.
func ValidUTF8(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}

// Truncate cuts s to at most n runes and trims trailing whitespace.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimRightFunc(string(runes[:n]), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n'
	})
}

func isFence(trimmed string) bool {
	return strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~")
}
