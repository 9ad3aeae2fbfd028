package interests

import (
	"strings"
	"unicode"
)

// Slugify derives the unique key of a topic or hashtag from its display name:
// trimmed, leading '#' stripped, lower-cased, whitespace runs collapsed to '-'
// and anything other than letters, digits, '-' and '_' dropped.
func Slugify(name string) string {
	s := strings.ToLower(DisplayName(name))

	var b strings.Builder
	b.Grow(len(s))
	pendingDash := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-':
			pendingDash = true
		}
	}
	return b.String()
}

// DisplayName is the name stored on a lazily created node.
func DisplayName(name string) string {
	return strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(name), "#"))
}
