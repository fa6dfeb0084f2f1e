// Package natid validates Egyptian national-ID numbers and decodes the
// birthdate they embed.
//
// A valid ID is exactly 14 digits. The first digit encodes the birth
// century (1 → 1900s, 2 → 2000s), digits 2-3 the two-digit year, 4-5 the
// month and 6-7 the day. ID validity and birthdate decodability are
// independent: a structurally valid ID with a nonsense date still counts
// as an ID, only the birthdate comes back absent.
package natid

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bitaqa/bitaqa-backend/internal/idcard/normalize"
)

// Length is the exact digit count of a national ID
const Length = 14

// Clean normalizes digit script and strips everything that is not a digit.
// The second return reports whether the remainder is a structurally valid
// ID (exactly 14 digits). An invalid candidate is returned cleaned anyway
// so the reconciler can still compare lengths.
func Clean(s string) (string, bool) {
	mapped := normalize.Digits(s)
	digits := make([]byte, 0, len(mapped))
	for i := 0; i < len(mapped); i++ {
		if c := mapped[i]; c >= '0' && c <= '9' {
			digits = append(digits, c)
		}
	}
	cleaned := string(digits)
	return cleaned, len(cleaned) == Length
}

// Valid reports whether s is exactly 14 ASCII digits
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// DecodeBirthdate extracts the embedded birthdate from a structurally valid
// ID and returns it in ISO format (YYYY-MM-DD). The century mapping is
// fixed: 1 → 1900, 2 → 2000; any other century digit fails the decode.
// Month and day are range-checked (01-12, 01-31) without a calendar
// day-count cross-check. Failure returns ("", false) and never invalidates
// the ID itself.
func DecodeBirthdate(id string) (string, bool) {
	if !Valid(id) {
		return "", false
	}

	var base int
	switch id[0] {
	case '1':
		base = 1900
	case '2':
		base = 2000
	default:
		return "", false
	}

	yy, _ := strconv.Atoi(id[1:3])
	mm, _ := strconv.Atoi(id[3:5])
	dd, _ := strconv.Atoi(id[5:7])

	if mm < 1 || mm > 12 {
		return "", false
	}
	if dd < 1 || dd > 31 {
		return "", false
	}

	return fmt.Sprintf("%04d-%02d-%02d", base+yy, mm, dd), true
}

// EncodeDateDigits returns the 6 date digits (YYMMDD) a birthdate would
// occupy in an ID. It is the inverse of DecodeBirthdate for round-trip
// checks.
func EncodeDateDigits(iso string) (string, bool) {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return "", false
	}
	return t.Format("060102"), true
}

// Plausible reports whether a decoded birthdate is not in the future.
// The century rule is fixed by the format, so an implausible year is a
// data-quality warning for the caller, never a decode failure.
func Plausible(iso string, now time.Time) bool {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return false
	}
	return !t.After(now)
}
