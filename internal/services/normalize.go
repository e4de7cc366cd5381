package services

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Canonical answer tokens stored in answers.canonical.
const (
	CanonYes    = "yes"
	CanonNo     = "no"
	CanonFemale = "female"
	CanonMale   = "male"
)

// canonicalWords maps case-folded display text in every supported UI language
// to its canonical token.
var canonicalWords = map[string]string{
	"yes": CanonYes, "y": CanonYes, "true": CanonYes,
	"होय": CanonYes, "हाँ": CanonYes, "हां": CanonYes, "అవును": CanonYes,

	"no": CanonNo, "n": CanonNo, "false": CanonNo,
	"नाही": CanonNo, "नहीं": CanonNo, "కాదు": CanonNo, "లేదు": CanonNo,

	"female": CanonFemale, "f": CanonFemale,
	"मादी": CanonFemale, "मादा": CanonFemale, "ఆడ": CanonFemale,

	"male": CanonMale, "m": CanonMale,
	"नर": CanonMale, "మగ": CanonMale,
}

// Canonicalize returns the locale-independent token for a display answer, or
// "" when the answer has no canonical form.
func Canonicalize(answer string) string {
	k := cases.Fold().String(strings.TrimSpace(answer))
	return canonicalWords[k]
}

// statusValue renders a pregnancy/lactation answer for the yield timeline:
// "Yes"/"No" for canonical booleans, the trimmed literal otherwise.
func statusValue(answer, canonical string) string {
	switch canonical {
	case CanonYes:
		return "Yes"
	case CanonNo:
		return "No"
	}
	return strings.TrimSpace(answer)
}

var dateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
	time.RFC3339,
}

// parseDay parses a calendar date answer and returns it as midnight UTC.
func parseDay(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// sameDay reports whether a and b denote the same calendar date, comparing
// parsed dates when both parse and trimmed literals otherwise.
func sameDay(a, b string) bool {
	da, okA := parseDay(a)
	db, okB := parseDay(b)
	if okA && okB {
		return da.Equal(db)
	}
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}
