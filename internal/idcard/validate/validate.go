// Package validate scores a reconciled record against the output
// contract. It never rejects a record: extraction degrades, so every
// record is returned with a code describing exactly what is missing or
// malformed.
package validate

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/bitaqa/bitaqa-backend/internal/idcard/domain"
	"github.com/bitaqa/bitaqa-backend/internal/idcard/natid"
)

var structChecks = validator.New()

// Card names follow a fixed shape: a given name on its own line and a
// multi-word patronymic chain below it. Readings outside that shape mean
// the locator grabbed the wrong lines.
const (
	maxFirstNameWords  = 3
	minSecondNameWords = 2
)

// Code computes the error bitmask for rec. Pipeline-level bits
// (ErrEnginesFailed, ErrPreprocessFailed) are the orchestrator's to OR
// in; rec.Error itself is ignored here.
func Code(rec domain.ResultRecord) int {
	code := domain.ErrNone
	failed := tagFailures(rec)

	switch {
	case rec.ID == "":
		code |= domain.ErrIDMissing
	case failed["ID"] || !natid.Valid(rec.ID):
		code |= domain.ErrIDFormat
	}

	idReadable := rec.ID != "" && code&domain.ErrIDFormat == 0
	switch {
	case rec.Birthdate == "":
		// A readable ID always yields a birthdate; its absence means the
		// embedded date digits did not decode.
		if idReadable {
			code |= domain.ErrBirthdateInvalid
		}
	case failed["Birthdate"]:
		code |= domain.ErrBirthdateInvalid
	case idReadable && !birthdateMatchesID(rec):
		// The birthdate is derived, never read off the card; a mismatch
		// with the ID's date digits means the record was tampered with or
		// assembled by hand.
		code |= domain.ErrBirthdateInvalid
	}

	switch {
	case rec.FirstName == "" || rec.SecondName == "":
		code |= domain.ErrNamesMissing
	case wordCount(rec.FirstName) > maxFirstNameWords || wordCount(rec.SecondName) < minSecondNameWords:
		code |= domain.ErrNamesMissing
	}
	if rec.Address == "" {
		code |= domain.ErrAddressMissing
	}
	return code
}

// tagFailures runs the struct tag rules and returns the set of failing
// field names.
func tagFailures(rec domain.ResultRecord) map[string]bool {
	err := structChecks.Struct(rec)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	failed := make(map[string]bool, len(verrs))
	for _, fe := range verrs {
		failed[fe.StructField()] = true
	}
	return failed
}

func wordCount(s string) int { return len(strings.Fields(s)) }

// birthdateMatchesID reports whether the birthdate is the one the ID's
// date digits decode to.
func birthdateMatchesID(rec domain.ResultRecord) bool {
	decoded, ok := natid.DecodeBirthdate(rec.ID)
	return ok && decoded == rec.Birthdate
}
