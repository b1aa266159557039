package pipeline

import (
	"regexp"
	"strings"
)

var (
	fenceRe   = regexp.MustCompile("```([A-Za-z0-9_+-]*)")
	keywordRe = regexp.MustCompile(`(?i)\b(SELECT|WITH)\b`)
)

// stripFences removes code-block markers and their language tag. A word
// glued to the opening fence is kept when it is itself a SQL keyword.
func stripFences(text string) string {
	return fenceRe.ReplaceAllStringFunc(text, func(fence string) string {
		tag := strings.TrimPrefix(fence, "```")
		if keywordRe.MatchString(tag) {
			return tag
		}
		return ""
	})
}

// Sanitize extracts the SQL statement from model output. It strips fenced
// code-block markers and drops everything before the first SELECT or WITH
// keyword. Text with no such keyword is returned trimmed, unchanged
// otherwise, and left for execution to reject.
func Sanitize(text string) string {
	cleaned := stripFences(text)
	loc := keywordRe.FindStringIndex(cleaned)
	if loc == nil {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(cleaned[loc[0]:])
}
