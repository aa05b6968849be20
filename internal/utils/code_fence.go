package utils

import (
	"regexp"
	"strings"
)

var (
	// ```python ... ``` anywhere in the text
	fencedBlock = regexp.MustCompile("(?s)```(?:[A-Za-z0-9_+-]*[ \t]*\r?\n)?(.*?)\\s*```")
	// opening fence without a closing one (truncated completions)
	openFence = regexp.MustCompile("^```(?:[A-Za-z0-9_+-]*[ \t]*\r?\n)?")
)

// StripCodeFences returns the body of the first markdown code block in a
// model completion, or the trimmed input when it holds no fence.
// Supports: ```python ...```, ``` ... ```, and an unterminated opening fence.
func StripCodeFences(input string) string {
	s := strings.TrimSpace(input)
	if !strings.Contains(s, "```") {
		return s
	}

	if m := fencedBlock.FindStringSubmatch(s); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}

	s = openFence.ReplaceAllString(s, "")
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

// TruncateString shortens s to maxLen bytes for log and error messages.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
