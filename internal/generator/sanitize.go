package generator

import (
	"strings"
	"unicode"
)

// SanitizeName replaces every character that is not a letter, digit, or
// underscore with an underscore. Case is preserved and the function is
// idempotent, so sanitizing an already-sanitized name is a no-op.
func SanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
