// Package textutil holds small string-handling helpers shared by the
// tool adapters, chiefly character-boundary-safe
// truncation (grounded on original_source's use of
// str::floor_char_boundary / ceil_char_boundary before slicing UTF-8
// strings by byte length).
package textutil

import "unicode/utf8"

// Truncate returns s cut to at most maxBytes bytes, never splitting a
// multi-byte UTF-8 rune. If s already fits, it is returned unchanged.
func Truncate(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	cut := floorCharBoundary(s, maxBytes)
	return s[:cut]
}

// floorCharBoundary returns the largest byte index <= n that lies on a
// UTF-8 rune boundary within s.
func floorCharBoundary(s string, n int) int {
	if n >= len(s) {
		return len(s)
	}
	if n <= 0 {
		return 0
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return n
}
