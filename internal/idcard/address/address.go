// Package address interprets the marker grammar of Egyptian card addresses.
//
// An address line is locality text optionally followed by a subdivision
// marker: م (markaz/center), ق (qism/district) or ك (kafr/hamlet), then an
// identifying value, typically a number. Parsing is an explicit finite-state
// scan so the split point is auditable, not a regex chain.
package address

import (
	"strings"

	"github.com/bitaqa/bitaqa-backend/internal/idcard/normalize"
)

// Recognized marker characters
const (
	MarkerMarkaz = "م"
	MarkerQism   = "ق"
	MarkerKafr   = "ك"
)

// Components is the structured decomposition of an address line
type Components struct {
	Locality string
	// Marker is one of the recognized marker characters, or empty.
	Marker string
	// Value is the text after the marker, digits normalized to ASCII.
	// Marker-looking characters after the first marker stay verbatim here.
	Value string
}

// HasMarker reports whether a structural marker was found
func (c Components) HasMarker() bool { return c.Marker != "" }

// String recombines the components into a single normalized address,
// preserving original ordering with a single space between locality and
// marker segment.
func (c Components) String() string {
	if c.Marker == "" {
		return c.Locality
	}
	seg := c.Marker
	if c.Value != "" {
		seg += " " + c.Value
	}
	if c.Locality == "" {
		return seg
	}
	return c.Locality + " " + seg
}

type scanState int

const (
	scanningLocality scanState = iota
	inMarker
)

// Parse scans s left to right for the first structural marker. A marker
// character is structural only as a standalone token: preceded by start of
// string, space or hyphen, and followed by end, space, hyphen or a digit.
// Words that merely begin with a marker letter (مركز, قسم) never split.
// Input is expected to be normalize.Line output; unrecognized markers stay
// inside the locality text rather than being dropped.
func Parse(s string) Components {
	var (
		st       = scanningLocality
		locality strings.Builder
		value    strings.Builder
		c        Components
	)

	rs := []rune(s)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch st {
		case scanningLocality:
			if isMarkerRune(r) && startsToken(rs, i) && valueFollows(rs, i) {
				c.Marker = string(r)
				st = inMarker
				continue
			}
			locality.WriteRune(r)
		case inMarker:
			// Terminal state: the remainder is the marker value.
			value.WriteRune(r)
		}
	}

	c.Locality = strings.TrimSpace(locality.String())
	c.Value = normalize.Digits(strings.TrimSpace(value.String()))
	return c
}

func isMarkerRune(r rune) bool {
	s := string(r)
	return s == MarkerMarkaz || s == MarkerQism || s == MarkerKafr
}

func startsToken(rs []rune, i int) bool {
	if i == 0 {
		return true
	}
	prev := rs[i-1]
	return prev == ' ' || prev == '-'
}

func valueFollows(rs []rune, i int) bool {
	if i+1 >= len(rs) {
		return true
	}
	next := rs[i+1]
	return next == ' ' || next == '-' || (next >= '0' && next <= '9')
}
