// Package derive holds the pure functions computing dependent record
// fields. They are cheap enough to recompute on every edit.
package derive

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Age returns whole years between birth and now, accounting for a
// birthday not yet reached this year. A zero birth date yields 0.
func Age(birth, now time.Time) int {
	if birth.IsZero() || birth.After(now) {
		return 0
	}
	years := now.Year() - birth.Year()
	anniversary := time.Date(now.Year(), birth.Month(), birth.Day(), 0, 0, 0, 0, time.UTC)
	nowDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if nowDay.Before(anniversary) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// Initials returns the uppercased first letters of the first and last
// name. Either part may be empty.
func Initials(first, last string) string {
	var b strings.Builder
	for _, part := range []string{first, last} {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		r, _ := utf8.DecodeRuneInString(part)
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// OwedAmount returns the patient-owed remainder after insurance, clamped
// to zero. Whether it may overwrite an existing entry is the caller's
// concern; see payments.ApplyEdit.
func OwedAmount(total, insurance float64) float64 {
	owed := total - insurance
	if owed < 0 {
		return 0
	}
	return owed
}
