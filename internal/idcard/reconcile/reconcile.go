// Package reconcile merges per-engine field candidates into a single
// answer per field.
package reconcile

import (
	"github.com/bitaqa/bitaqa-backend/internal/idcard/domain"
	"github.com/bitaqa/bitaqa-backend/internal/idcard/natid"
)

// Merge votes field by field across the engines' candidate sets. A field
// missing from every set stays missing. A field only one engine produced
// is taken as-is. When engines disagree the ID field prefers the
// structurally valid reading, then the longer one; free-text fields prefer
// the higher confidence when both engines reported one, then the longer
// value. Remaining ties go to engine precedence, so the chosen value never
// depends on input order.
func Merge(sets ...map[domain.FieldName]domain.FieldCandidate) map[domain.FieldName]domain.FieldCandidate {
	out := make(map[domain.FieldName]domain.FieldCandidate, len(domain.Fields))
	for _, field := range domain.Fields {
		var winner domain.FieldCandidate
		for _, set := range sets {
			c, ok := set[field]
			if !ok || c.Value == "" {
				continue
			}
			if winner.IsZero() {
				winner = c
				continue
			}
			if prefer(field, c, winner) {
				winner = c
			}
		}
		if !winner.IsZero() {
			out[field] = winner
		}
	}
	return out
}

// prefer reports whether challenger should replace incumbent for field.
// Equal values never swap, whichever engine they came from.
func prefer(field domain.FieldName, challenger, incumbent domain.FieldCandidate) bool {
	if challenger.Value == incumbent.Value {
		return false
	}
	if field == domain.FieldID {
		return preferID(challenger, incumbent)
	}
	return preferText(challenger, incumbent)
}

func preferID(c, w domain.FieldCandidate) bool {
	cValid := natid.Valid(c.Value)
	wValid := natid.Valid(w.Value)
	if cValid != wValid {
		return cValid
	}
	if len(c.Value) != len(w.Value) {
		return len(c.Value) > len(w.Value)
	}
	return c.Engine.Precedence() < w.Engine.Precedence()
}

func preferText(c, w domain.FieldCandidate) bool {
	// Confidence decides only when both engines reported one. A negative
	// value means the engine reported none, which says nothing about the
	// text itself, so the comparison falls through to length.
	if c.Confidence >= 0 && w.Confidence >= 0 && c.Confidence != w.Confidence {
		return c.Confidence > w.Confidence
	}
	if len([]rune(c.Value)) != len([]rune(w.Value)) {
		return len([]rune(c.Value)) > len([]rune(w.Value))
	}
	return c.Engine.Precedence() < w.Engine.Precedence()
}
