package normalize_test

import (
	"testing"

	"github.com/bitaqa/bitaqa-backend/internal/idcard/normalize"
)

func TestDigits(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"arabic indic", "١٤", "14"},
		{"eastern indic", "۲۹", "29"},
		{"mixed with ascii", "٢900", "2900"},
		{"full id", "٢٩٠٠١٢٣٤٥٦٧٨٩٠", "29001234567890"},
		{"no digits", "مركز", "مركز"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalize.Digits(tt.in); got != tt.want {
				t.Errorf("Digits(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLine(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"digit conversion", "ك ١٤", "ك 14"},
		{"whitespace collapse", "  ابوخليفه   مركز  ", "ابوخليفه مركز"},
		{"strip ocr garbage", "منيا>? القمح", "منيا القمح"},
		{"strip latin letters", "abcمحمد xyz", "محمد"},
		{"strip diacritics", "مُحَمَّد", "محمد"},
		{"strip tatweel", "محـــمد", "محمد"},
		{"keeps hyphen separator", "م ٢٦ - ق ٣", "م 26 - ق 3"},
		{"empty", "", ""},
		{"only garbage", "[']>?", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalize.Line(tt.in); got != tt.want {
				t.Errorf("Line(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLine_Idempotent(t *testing.T) {
	inputs := []string{
		"ابوخليفه مركز القنطره غرب ك ١٤",
		"٢٩٠٠١٢٣٤٥٦٧٨٩٠",
		"محمد أحمد على",
		"",
	}
	for _, in := range inputs {
		once := normalize.Line(in)
		twice := normalize.Line(once)
		if once != twice {
			t.Errorf("Line not idempotent: Line(%q) = %q, Line(Line(...)) = %q", in, once, twice)
		}
	}
}

func TestLetterCount(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"محمد", 4},
		{"محمد 14", 4},
		{"abc 123", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := normalize.LetterCount(tt.in); got != tt.want {
			t.Errorf("LetterCount(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestDigitRun(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"29001234567890", "29001234567890"},
		{"id 290 0123456 7890", "0123456"},
		{"no digits", ""},
		{"trailing 123", "123"},
	}
	for _, tt := range tests {
		if got := normalize.DigitRun(tt.in); got != tt.want {
			t.Errorf("DigitRun(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
