package strings

import (
	"strings"
)

// DefaultDescriptionMaxLen is the default maximum length for descriptions in
// formatted output, shared so every command truncates the same way.
const DefaultDescriptionMaxLen = 60

// MinTruncateLen is the smallest usable maxLen: anything shorter leaves no
// room for content plus "...".
const MinTruncateLen = 4

// TruncateDescription collapses a string to a single line of at most maxLen
// characters, appending "..." when it had to cut. It operates on runes so
// multi-byte characters are never split, and it collapses all whitespace
// runs (newlines included) into single spaces first.
func TruncateDescription(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
