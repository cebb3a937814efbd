package edgeapi

import (
	"encoding/json"
	"testing"
)

func TestNumberAcceptsStringsAndNumbers(t *testing.T) {
	var v struct {
		Total     Number `json:"total"`
		Insurance Number `json:"insurance_amount"`
		Missing   Number `json:"missing"`
	}
	payload := `{"total": 500, "insurance_amount": "200.50", "missing": null}`
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.Total.Float() != 500 || v.Insurance.Float() != 200.50 || v.Missing.Float() != 0 {
		t.Fatalf("unexpected values: %+v", v)
	}
}

func TestNumberRejectsGarbage(t *testing.T) {
	var n Number
	if err := json.Unmarshal([]byte(`"abc"`), &n); err == nil {
		t.Fatal("expected error")
	}
}

func TestPaginate(t *testing.T) {
	cases := []struct {
		offset, limit, count int
		page, totalPages     int
		hasMore              bool
	}{
		{0, 20, 2, 1, 1, false},
		{0, 20, 0, 1, 1, false},
		{20, 20, 45, 2, 3, true},
		{40, 20, 45, 3, 3, false},
		{0, 10, 100, 1, 10, true},
	}
	for _, tc := range cases {
		p := Paginate(tc.offset, tc.limit, tc.count)
		if p.Page != tc.page || p.TotalPages != tc.totalPages || p.HasMore != tc.hasMore {
			t.Errorf("Paginate(%d,%d,%d) = %+v, want page=%d totalPages=%d hasMore=%v",
				tc.offset, tc.limit, tc.count, p, tc.page, tc.totalPages, tc.hasMore)
		}
	}
}

func TestQueryCanonicalAndSparse(t *testing.T) {
	got := Query(map[string]any{
		"page":   1,
		"limit":  20,
		"search": "jane",
		"status": "",
		"from":   NewDateFromString("2026-01-01"),
		"active": true,
	})
	want := "?active=true&from=2026-01-01&limit=20&page=1&search=jane"
	if got != want {
		t.Fatalf("Query = %q, want %q", got, want)
	}
}

func TestQueryEmpty(t *testing.T) {
	if got := Query(nil); got != "" {
		t.Fatalf("Query(nil) = %q", got)
	}
	if got := Query(map[string]any{"search": ""}); got != "" {
		t.Fatalf("Query(empty values) = %q", got)
	}
}

// NewDateFromString is a test convenience; parse errors fail loudly at the
// call site via the zero value.
func NewDateFromString(s string) Date {
	d, _ := ParseDate(s)
	return d
}
