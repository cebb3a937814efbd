package forms

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/devSoft1007/netraAI-sub000/internal/edgeapi"
)

// equalNormalized compares two field values after canonicalization, so
// equivalent-but-differently-typed values (a date value vs its wire
// string, an int vs a float) are not falsely flagged dirty.
func equalNormalized(a, b any) bool {
	return normalize(a) == normalize(b)
}

func normalize(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case edgeapi.Date:
		return t.String()
	case *edgeapi.Date:
		if t == nil {
			return ""
		}
		return t.String()
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format("2006-01-02")
	case edgeapi.Number:
		return normalizeFloat(t.Float())
	case int:
		return normalizeFloat(float64(t))
	case int32:
		return normalizeFloat(float64(t))
	case int64:
		return normalizeFloat(float64(t))
	case float32:
		return normalizeFloat(float64(t))
	case float64:
		return normalizeFloat(t)
	case []string:
		parts := make([]string, len(t))
		copy(parts, t)
		return strings.Join(parts, ",")
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = normalize(e)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(t)
	}
}

func normalizeFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
