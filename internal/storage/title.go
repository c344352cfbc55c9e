package storage

import (
	"regexp"
	"strings"
)

// Non-article namespaces that never take part in path search
var excludedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(talk|user|user_talk|wikipedia|wikipedia_talk):`),
	regexp.MustCompile(`(?i)^(file|file_talk|image|mediawiki|template|template_talk):`),
	regexp.MustCompile(`(?i)^(help|help_talk|category|category_talk|portal|draft):`),
	regexp.MustCompile(`(?i)^(special|module|timedtext|book|education_program):`),
}

// SanitizeTitle converts a human-readable title into the stored form
// Example: " Albert Einstein " -> "Albert_Einstein"
func SanitizeTitle(title string) string {
	title = strings.TrimSpace(title)
	title = strings.Join(strings.Fields(title), "_")
	return title
}

// FoldTitle lowercases ASCII letters only, matching sqlite's NOCASE collation
// Example: "Cat" -> "cat", "Écrivain" keeps its "É"
func FoldTitle(title string) string {
	b := []byte(title)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// IsExcludedTitle checks if a title belongs to a non-article namespace
func IsExcludedTitle(title string) bool {
	for _, pattern := range excludedPatterns {
		if pattern.MatchString(title) {
			return true
		}
	}
	return false
}
