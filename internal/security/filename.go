// Package security sanitises user-supplied names before they reach the
// filesystem.
package security

import "strings"

// maxFilenameLen bounds the sanitised name in bytes.
const maxFilenameLen = 128

func keepInFilename(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
		r == '.' || r == '-'
}

// SanitizeFilename turns a railplot -prefix into a single path element.
// Runs of anything outside [A-Za-z0-9.-] become one '_', so separators and
// "../" cannot survive, and dots or underscores at either end are dropped.
// Names that sanitise to nothing become "unknown".
func SanitizeFilename(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return !keepInFilename(r) })
	out := strings.Join(words, "_")
	if len(out) > maxFilenameLen {
		out = out[:maxFilenameLen]
	}
	if out = strings.Trim(out, "._"); out == "" {
		return "unknown"
	}
	return out
}
