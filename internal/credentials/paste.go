package credentials

import (
	"regexp"
	"strings"
	"unicode"
)

// ansiEscapePattern matches ANSI escape sequences (colors, cursor control).
var ansiEscapePattern = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]`)

// SanitizePaste strips ANSI escape sequences and non-printable control
// characters from pasted text. Newlines and tabs survive; callers decide how
// to treat whitespace.
func SanitizePaste(content string) string {
	content = ansiEscapePattern.ReplaceAllString(content, "")

	var b strings.Builder
	b.Grow(len(content))
	for _, r := range content {
		switch {
		case r == '\n' || r == '\t' || r == '\r':
			b.WriteRune(r)
		case unicode.IsControl(r):
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// stripSpace removes every whitespace rune.
func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// CleanPaste prepares pasted text for a field. Credential values lose all
// whitespace, which copy-paste from a broker dashboard tends to pick up. The
// account id additionally keeps only digits, truncated to its fixed length.
// The display name keeps inner spaces, collapsed to one.
func CleanPaste(field Field, text string) string {
	text = SanitizePaste(text)

	switch field {
	case FieldAccountID:
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, text)
		if len(digits) > AccountIDLength {
			digits = digits[:AccountIDLength]
		}
		return digits
	case FieldDisplayName:
		return strings.Join(strings.Fields(text), " ")
	default:
		return stripSpace(text)
	}
}
