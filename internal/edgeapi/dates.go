package edgeapi

import (
	"fmt"
	"strings"
	"time"
)

const dateOnly = "2006-01-02"

// Date is a calendar date crossing the wire. It accepts full ISO
// timestamps or date-only strings on read and always writes the date-only
// form, so a value round-trips to the date component of whatever the
// server sent. This boundary is the single place date conversion happens.
type Date struct {
	time.Time
}

// NewDate builds a Date truncated to its calendar day in UTC.
func NewDate(t time.Time) Date {
	u := t.UTC()
	return Date{Time: time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO timestamp or date-only string.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	for _, layout := range []string{dateOnly, time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t), nil
		}
	}
	return Date{}, fmt.Errorf("edgeapi: unparseable date %q", s)
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d.Time.IsZero()
}

// String renders the date-only wire form, empty when unset.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time.Format(dateOnly)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
