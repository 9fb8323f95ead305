// Package voice normalizes speech-to-text transcripts for the manual
// entry form. Capture itself happens in the browser; the server only
// sees the final transcript and the field it targets.
package voice

import (
	"strings"

	"logautofill/internal/record"
)

// substitution maps a spoken word to its digit expansion.
type substitution struct {
	word   string
	digits string
}

// wordTable is applied in order, longest entry first, so compounds like
// "double zero" win over the "zero" inside them. The order is fixed and
// deterministic; ties between equal-length entries keep declaration
// order. Substitution is literal text replacement across the whole
// transcript, matching the capture layer's lower-cased output.
var wordTable = []substitution{
	{"triple zero", "000"},
	{"double zero", "00"},
	{"triple o", "000"},
	{"double o", "00"},
	{"nought", "0"},
	{"three", "3"},
	{"seven", "7"},
	{"eight", "8"},
	{"zero", "0"},
	{"four", "4"},
	{"five", "5"},
	{"nine", "9"},
	{"one", "1"},
	{"two", "2"},
	{"six", "6"},
	{"oh", "0"},
}

// Normalize maps spoken number words in a transcript to digits and
// applies per-field cleaning:
//
//   - scNo and dtrCode have all whitespace removed;
//   - scNo additionally drops every remaining non-digit character;
//   - the result is upper-cased (relevant for alphanumeric codes).
//
// No length or digit-count validation happens here; that is the
// validator's job.
func Normalize(transcript string, field record.Field) string {
	s := transcript
	for _, sub := range wordTable {
		s = strings.ReplaceAll(s, sub.word, sub.digits)
	}

	if field == record.FieldScNo || field == record.FieldDtrCode {
		s = stripSpace(s)
		if field == record.FieldScNo {
			s = digitsOnly(s)
		}
	}

	return strings.ToUpper(s)
}

func stripSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\u00a0' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
