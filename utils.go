package pitfall

import (
	"strings"
)

// IsValidFilename reports whether name is acceptable as a single file name
// inside the uploads directory. It rejects:
//   - the empty string
//   - any occurrence of ".." (path traversal)
//   - any path separator, "/" or "\"
func IsValidFilename(name string) bool {
	if name == "" {
		return false
	}

	if strings.Contains(name, "..") {
		return false
	}

	if strings.ContainsAny(name, `/\`) {
		return false
	}

	return true
}

// SanitizeFilename drops every character outside [A-Za-z0-9.-_].
// The result may be empty.
func SanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			return r
		default:
			return -1
		}
	}, name)
}
