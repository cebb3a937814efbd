package derive

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAge(t *testing.T) {
	now := date(2026, time.September, 1)
	cases := []struct {
		birth time.Time
		want  int
	}{
		{date(1990, time.September, 1), 36},  // birthday today
		{date(1990, time.September, 2), 35},  // birthday tomorrow
		{date(1990, time.August, 31), 36},    // birthday passed
		{date(2026, time.January, 15), 0},    // infant
		{time.Time{}, 0},                     // unknown birth date
		{date(2027, time.January, 1), 0},     // future date guarded
	}
	for _, tc := range cases {
		if got := Age(tc.birth, now); got != tc.want {
			t.Errorf("Age(%v) = %d, want %d", tc.birth, got, tc.want)
		}
	}
}

func TestInitials(t *testing.T) {
	cases := []struct {
		first, last, want string
	}{
		{"Jane", "Doe", "JD"},
		{"jane", "doe", "JD"},
		{"Jane", "", "J"},
		{"", "Doe", "D"},
		{"", "", ""},
		{"  Jane  ", "Doe", "JD"},
		{"élodie", "martin", "ÉM"},
	}
	for _, tc := range cases {
		if got := Initials(tc.first, tc.last); got != tc.want {
			t.Errorf("Initials(%q, %q) = %q, want %q", tc.first, tc.last, got, tc.want)
		}
	}
}

func TestOwedAmount(t *testing.T) {
	cases := []struct {
		total, insurance, want float64
	}{
		{500, 200, 300},
		{500, 0, 500},
		{200, 500, 0}, // over-covered claims clamp to zero
		{0, 0, 0},
	}
	for _, tc := range cases {
		if got := OwedAmount(tc.total, tc.insurance); got != tc.want {
			t.Errorf("OwedAmount(%v, %v) = %v, want %v", tc.total, tc.insurance, got, tc.want)
		}
	}
}
