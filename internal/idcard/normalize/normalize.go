// Package normalize canonicalizes raw OCR text before any field logic runs.
//
// Egyptian cards mix Arabic letters with Arabic-Indic digits, and the engines
// additionally emit Persian digit variants and OCR garbage. Everything
// downstream (locator, address parser, ID decoder, reconciler) assumes lines
// have been through Line once; running it again is a no-op.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	arabicIndicZero  = '٠' // ٠
	easternIndicZero = '۰' // ۰ (Persian variant, common in OCR output)
	tatweel          = 'ـ' // ـ elongation mark
)

// stripMarks removes Arabic combining marks (harakat) after NFD decomposition.
var stripMarks = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Digits maps Arabic-Indic and Eastern Arabic-Indic digit glyphs to ASCII.
// All other runes pass through unchanged.
func Digits(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		b.WriteRune(asciiDigit(r))
	}
	return b.String()
}

func asciiDigit(r rune) rune {
	switch {
	case r >= arabicIndicZero && r <= arabicIndicZero+9:
		return '0' + (r - arabicIndicZero)
	case r >= easternIndicZero && r <= easternIndicZero+9:
		return '0' + (r - easternIndicZero)
	default:
		return r
	}
}

// Line canonicalizes a raw OCR line: digits to ASCII, diacritics and tatweel
// stripped, characters outside the allow-list dropped, whitespace collapsed.
// Malformed input yields an empty string, never an error.
func Line(s string) string {
	if s == "" {
		return ""
	}
	cleaned, _, err := transform.String(stripMarks, s)
	if err != nil {
		// Transform failures mean undecodable input; treat as malformed.
		return ""
	}

	var b strings.Builder
	b.Grow(len(cleaned))
	for _, r := range cleaned {
		r = asciiDigit(r)
		switch {
		case r == tatweel:
			// dropped
		case allowed(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// allowed reports whether a rune survives normalization: Arabic letters,
// ASCII digits, spaces and the hyphen used as an address separator.
func allowed(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r == ' ' || r == '-':
		return true
	case unicode.Is(unicode.Arabic, r) && unicode.IsLetter(r):
		return true
	default:
		return false
	}
}

// LetterCount counts Arabic letters, the locator's measure of how much real
// text a line carries.
func LetterCount(s string) int {
	n := 0
	for _, r := range s {
		if unicode.Is(unicode.Arabic, r) && unicode.IsLetter(r) {
			n++
		}
	}
	return n
}

// DigitRun returns the longest run of consecutive ASCII digits in s.
func DigitRun(s string) string {
	best, cur := "", strings.Builder{}
	for _, r := range s {
		if r >= '0' && r <= '9' {
			cur.WriteRune(r)
			continue
		}
		if cur.Len() > len(best) {
			best = cur.String()
		}
		cur.Reset()
	}
	if cur.Len() > len(best) {
		best = cur.String()
	}
	return best
}
