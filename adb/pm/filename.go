package pm

import "strings"

// SanitizeFilename replaces every character of s outside
// [A-Za-z0-9_.-] with an underscore so it can be used as the split
// name of an install-write.
func SanitizeFilename(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '_', r == '.', r == '-':
			return r
		}
		return '_'
	}, s)
}
