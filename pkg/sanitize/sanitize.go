package sanitize

import "strings"

// safe reports whether c belongs to the conservative identifier set
// [-_.0-9a-zA-Z] that survives every filesystem and shell we care about.
func safe(c rune) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_' || c == '.':
		return true
	}
	return false
}

// FileName returns name with every character outside [-_.0-9a-zA-Z]
// removed. It turns a URL into something usable as a file name; the
// encoding is destructive, so two different URLs can collide, but in
// practice broker URLs differ in their safe characters too.
func FileName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, c := range name {
		if safe(c) {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// Name returns name with every character outside [-_.0-9a-zA-Z]
// replaced by underscore. Unlike FileName it preserves length and word
// boundaries, which keeps sanitized identifiers readable in logs and
// keyword values.
func Name(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, c := range name {
		if safe(c) {
			b.WriteRune(c)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
