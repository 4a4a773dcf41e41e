// Package markup converts backend-native answer text into the front-end's
// markup dialect: inline citation markers become superscript links, a leading
// list hyphen becomes a bullet, and MarkdownV2-significant characters are
// escaped. The legacy dialect passes text through untouched.
package markup

import (
	"fmt"
	"regexp"
	"strings"
)

// Mode selects the output dialect.
type Mode string

const (
	// ModeStrict renders MarkdownV2 with citation links, bullet
	// normalization, and escaping.
	ModeStrict Mode = "strict"
	// ModeLegacy passes the answer text through unmodified.
	ModeLegacy Mode = "legacy"
)

// ParseMode maps a configured mode string to a Mode. The empty string selects
// strict.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return ModeStrict, nil
	case "legacy":
		return ModeLegacy, nil
	default:
		return "", fmt.Errorf("markup mode must be one of: strict, legacy (got %q)", s)
	}
}

// ParseModeValue returns the Telegram parse_mode for this dialect. Legacy
// output is plain text.
func (m Mode) ParseModeValue() string {
	if m == ModeStrict {
		return "MarkdownV2"
	}
	return ""
}

// Render formats an answer. Citation rewriting and bullet normalization run
// before escaping so the inserted link syntax and bullet survive it.
func Render(mode Mode, text string, citations []string) string {
	if mode == ModeLegacy {
		return text
	}
	text = rewriteCitations(text, citations)
	text = normalizeLeadingBullet(text)
	return Escape(text)
}

// rewriteCitations replaces every [^N^] marker with a hyperlink labelled by
// the 1-based index in superscript digits, targeting the Nth citation source.
func rewriteCitations(text string, citations []string) string {
	for i, source := range citations {
		index := i + 1
		marker := fmt.Sprintf("[^%d^]", index)
		text = strings.ReplaceAll(text, marker, fmt.Sprintf("[%s](%s)", Sup(index), source))
	}
	return text
}

var leadingListHyphen = regexp.MustCompile(`^\n-`)

// normalizeLeadingBullet converts a list hyphen on the very first line into a
// bullet. A synthetic newline is prefixed so a single start-of-line pattern
// covers the match, then removed.
func normalizeLeadingBullet(text string) string {
	padded := leadingListHyphen.ReplaceAllString("\n"+text, "\n•")
	return padded[1:]
}

var escapedChars = map[byte]bool{
	'"': true,
	'{': true,
	'}': true,
	'_': true,
	'.': true,
}

// Escape prefixes a backslash before each markup-significant character.
func Escape(text string) string {
	var b strings.Builder
	b.Grow(len(text) + 8)
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if escapedChars[ch] {
			b.WriteByte('\\')
		}
		b.WriteByte(ch)
	}
	return b.String()
}

var supDigits = [...]rune{'⁰', '¹', '²', '³', '⁴', '⁵', '⁶', '⁷', '⁸', '⁹'}

// Sup renders a citation index with Unicode superscript digits, supporting up
// to three digits.
func Sup(n int) string {
	if n < 0 {
		n = 0
	}
	var b strings.Builder
	hundreds := n / 100 % 10
	tens := n / 10 % 10
	if hundreds > 0 {
		b.WriteRune(supDigits[hundreds])
	}
	if hundreds > 0 || tens > 0 {
		b.WriteRune(supDigits[tens])
	}
	b.WriteRune(supDigits[n%10])
	return b.String()
}
