package lexical

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Common digit/symbol-for-letter substitutions seen in filter evasion.
// Mapped values are never themselves keys, which keeps Normalize idempotent.
var leetRunes = map[rune]rune{
	'0': 'o',
	'1': 'i',
	'3': 'e',
	'4': 'a',
	'5': 's',
	'7': 't',
	'$': 's',
	'@': 'a',
	'!': 'i',
}

var foldTransformer = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize reduces text to a canonical lowercase form for matching:
// Unicode-folded, diacritics stripped, leetspeak substituted, punctuation
// removed, repeated runes collapsed, whitespace collapsed.
//
// Normalize(Normalize(x)) == Normalize(x) for all x.
func Normalize(text string) string {
	lowered := strings.ToLower(text)

	folded, _, err := transform.String(foldTransformer, lowered)
	if err != nil {
		// Fold failures leave the lowered text; matching still works on it.
		folded = lowered
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if sub, ok := leetRunes[r]; ok {
			r = sub
		}
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	collapsed := collapseRepeats(b.String())
	return strings.Join(strings.Fields(collapsed), " ")
}

// Tokens returns the normalized word tokens of text.
func Tokens(text string) []string {
	return strings.Fields(Normalize(text))
}

// collapseRepeats shortens runs of three or more identical runes to two,
// so "pornnnn" still contains "porn" while "cool" is left alone.
func collapseRepeats(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev {
			run++
		} else {
			prev = r
			run = 1
		}
		if run <= 2 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
