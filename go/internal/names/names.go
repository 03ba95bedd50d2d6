package names

import "strings"

// Normalize returns the comparison key for a participant name: surrounding
// whitespace trimmed and lower-cased. Every allow-list, history and survey
// lookup compares names through this function.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Display returns the name as it should be shown and recorded: trimmed, case
// preserved.
func Display(name string) string {
	return strings.TrimSpace(name)
}
