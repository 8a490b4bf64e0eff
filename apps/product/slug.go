package product

import (
	"regexp"
	"strings"
	"unicode"
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// Slugify lowercases s and joins its ASCII letter/digit runs with hyphens.
// "Silver Paw Necklace!" -> "silver-paw-necklace"
func Slugify(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '_':
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		default:
			pendingDash = true
		}
	}
	return b.String()
}

func validSlug(s string) bool {
	return slugPattern.MatchString(s)
}
