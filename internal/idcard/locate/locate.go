// Package locate assigns an engine's normalized OCR lines to the logical
// card fields using positional and marker heuristics.
//
// The card layout is fixed: first name on its own line, full (second) name
// below it, address next, and the 14-digit number printed apart from the
// text block. None of the fields are labeled, so assignment leans on what
// the content looks like rather than on anchor words.
package locate

import (
	"strings"
	"unicode"

	"github.com/bitaqa/bitaqa-backend/internal/idcard/address"
	"github.com/bitaqa/bitaqa-backend/internal/idcard/domain"
	"github.com/bitaqa/bitaqa-backend/internal/idcard/natid"
	"github.com/bitaqa/bitaqa-backend/internal/idcard/normalize"
)

// minPartialIDDigits is the smallest digit run still treated as a damaged
// ID reading; shorter runs are noise. Partial readings are kept so the
// reconciler can prefer the engine that recovered more digits.
const minPartialIDDigits = 10

type line struct {
	text       string
	confidence float64
	pos        int
}

// boilerplate words appear in the card's printed template (header, field
// captions, republic name) rather than in holder data. A line containing
// any of them is template text, never a name or address.
var boilerplate = func() map[string]struct{} {
	words := []string{
		"بطاقة", "بطاقه", "تحقيق", "الشخصية", "الشخصيه",
		"جمهورية", "جمهوريه", "مصر", "العربية", "العربيه",
		"القومى", "القومي", "الرقم",
		"وزارة", "وزاره", "الداخلية", "الداخليه",
		"الاحوال", "المدنية", "المدنيه",
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}()

func isBoilerplate(s string) bool {
	for _, w := range strings.Fields(s) {
		if _, ok := boilerplate[w]; ok {
			return true
		}
	}
	return false
}

// Fields scans one engine's result and returns at most one candidate per
// logical field. Absent fields are simply missing from the map; that is a
// valid outcome, not an error.
func Fields(res domain.RawOcrResult) map[domain.FieldName]domain.FieldCandidate {
	lines := make([]line, 0, len(res.Lines))
	for i, l := range res.Lines {
		text := normalize.Line(l.Text)
		if text == "" {
			continue
		}
		lines = append(lines, line{text: text, confidence: l.Confidence, pos: i})
	}

	out := make(map[domain.FieldName]domain.FieldCandidate, 4)

	idLine, idValue, ok := locateID(lines)
	if ok {
		out[domain.FieldID] = domain.FieldCandidate{
			Field:      domain.FieldID,
			Value:      idValue,
			Engine:     res.Engine,
			Confidence: idLine.confidence,
		}
	}

	first, second := locateNames(lines)
	if first != nil {
		out[domain.FieldFirstName] = domain.FieldCandidate{
			Field:      domain.FieldFirstName,
			Value:      cleanName(first.text),
			Engine:     res.Engine,
			Confidence: first.confidence,
		}
	}
	if second != nil {
		out[domain.FieldSecondName] = domain.FieldCandidate{
			Field:      domain.FieldSecondName,
			Value:      cleanName(second.text),
			Engine:     res.Engine,
			Confidence: second.confidence,
		}
	}

	if addr := locateAddress(lines, first, second); addr != nil {
		out[domain.FieldAddress] = domain.FieldCandidate{
			Field:      domain.FieldAddress,
			Value:      DedupeWords(addr.text),
			Engine:     res.Engine,
			Confidence: addr.confidence,
		}
	}

	return out
}

// locateID picks the line carrying the ID number: the unique line with a
// 14-digit run, or failing that the line with the longest digit run of at
// least minPartialIDDigits. Ties go to higher confidence, then earlier
// position.
func locateID(lines []line) (line, string, bool) {
	var (
		best    line
		bestLen int
		found   bool
	)
	for _, l := range lines {
		run := normalize.DigitRun(l.text)
		if len(run) < minPartialIDDigits {
			continue
		}
		cleaned, _ := natid.Clean(l.text)
		n := len(cleaned)
		switch {
		case !found, better(n, bestLen, l, best):
			best, bestLen, found = l, n, true
		}
	}
	if !found {
		return line{}, "", false
	}
	cleaned, _ := natid.Clean(best.text)
	return best, cleaned, true
}

func better(n, bestLen int, l, best line) bool {
	// Prefer a structurally valid reading, then more digits recovered,
	// then confidence, then earlier position.
	if (n == natid.Length) != (bestLen == natid.Length) {
		return n == natid.Length
	}
	if n != bestLen {
		return n > bestLen
	}
	if l.confidence != best.confidence {
		return l.confidence > best.confidence
	}
	return l.pos < best.pos
}

// locateNames returns the first and second name lines: the first two
// plausible Arabic text lines in reading order. Lines carrying digits or a
// structural marker belong to other fields and are never name-plausible.
func locateNames(lines []line) (first, second *line) {
	for i := range lines {
		l := &lines[i]
		if !namePlausible(l.text) {
			continue
		}
		if first == nil {
			first = l
			continue
		}
		second = l
		break
	}
	return first, second
}

func namePlausible(s string) bool {
	if normalize.LetterCount(s) < 2 || isBoilerplate(s) {
		return false
	}
	for _, r := range s {
		if unicode.IsDigit(r) {
			return false
		}
	}
	return !address.Parse(s).HasMarker()
}

// locateAddress picks the address line: the longest line containing a
// structural marker, or failing that the longest Arabic line after the
// name lines. Ties go to higher confidence, then earlier position.
func locateAddress(lines []line, first, second *line) *line {
	var best *line
	pick := func(l *line) {
		switch {
		case best == nil:
			best = l
		case lineLen(l.text) > lineLen(best.text):
			best = l
		case lineLen(l.text) == lineLen(best.text) && l.confidence > best.confidence:
			best = l
		}
	}

	for i := range lines {
		l := &lines[i]
		if l == first || l == second {
			continue
		}
		if address.Parse(l.text).HasMarker() {
			pick(l)
		}
	}
	if best != nil {
		return best
	}

	// No marker anywhere: fall back to the longest remaining Arabic line
	// below the names.
	afterNames := 0
	if second != nil {
		afterNames = second.pos + 1
	} else if first != nil {
		afterNames = first.pos + 1
	}
	for i := range lines {
		l := &lines[i]
		if l.pos < afterNames || l == first || l == second {
			continue
		}
		if normalize.LetterCount(l.text) < 3 || isBoilerplate(l.text) {
			continue
		}
		if len(normalize.DigitRun(l.text)) >= minPartialIDDigits {
			continue
		}
		pick(l)
	}
	return best
}

func lineLen(s string) int { return len([]rune(s)) }

func cleanName(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (unicode.Is(unicode.Arabic, r) && unicode.IsLetter(r)) || r == ' ' {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// DedupeWords removes words repeated across an address line, keeping the
// last occurrence. OCR of the two stacked address lines often reads the
// shared locality twice. Digit tokens, separators and bare markers are
// structural and always kept.
func DedupeWords(s string) string {
	parts := strings.Fields(s)
	if len(parts) <= 1 {
		return s
	}

	structural := func(w string) bool {
		if w == "-" || w == address.MarkerMarkaz || w == address.MarkerQism || w == address.MarkerKafr {
			return true
		}
		for _, r := range w {
			if !unicode.IsDigit(r) {
				return false
			}
		}
		return true
	}

	last := make(map[string]int, len(parts))
	for i, w := range parts {
		if !structural(w) {
			last[w] = i
		}
	}

	kept := make([]string, 0, len(parts))
	for i, w := range parts {
		if !structural(w) && last[w] != i {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}
