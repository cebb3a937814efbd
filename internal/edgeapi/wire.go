package edgeapi

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Number tolerates numeric fields arriving as JSON numbers or as quoted
// strings across endpoint versions.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("edgeapi: unparseable number %q", s)
	}
	*n = Number(f)
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(n))
}

// Float returns the plain float value.
func (n Number) Float() float64 {
	return float64(n)
}

// Envelope is the response contract every edge function follows: a success
// flag, an error message on failure, and the payload under data.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    T      `json:"data"`
	Count   int    `json:"count,omitempty"`
}

// Pagination carries the derived paging state for a list response.
type Pagination struct {
	Page       int
	TotalPages int
	HasMore    bool
}

// Paginate derives paging state from an offset/limit window and the total
// row count reported by the server.
func Paginate(offset, limit, count int) Pagination {
	if limit <= 0 {
		limit = 1
	}
	page := offset/limit + 1
	totalPages := (count + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}
	return Pagination{
		Page:       page,
		TotalPages: totalPages,
		HasMore:    page < totalPages,
	}
}

// Query renders filter params as a canonical query string, empty values
// omitted. Returns "" or "?k=v&...".
func Query(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := url.Values{}
	for _, k := range keys {
		switch v := params[k].(type) {
		case nil:
			continue
		case string:
			if v == "" {
				continue
			}
			values.Set(k, v)
		case Date:
			if v.IsZero() {
				continue
			}
			values.Set(k, v.String())
		case bool:
			values.Set(k, strconv.FormatBool(v))
		case int:
			values.Set(k, strconv.Itoa(v))
		case int64:
			values.Set(k, strconv.FormatInt(v, 10))
		case float64:
			values.Set(k, strconv.FormatFloat(v, 'f', -1, 64))
		default:
			values.Set(k, fmt.Sprint(v))
		}
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}
