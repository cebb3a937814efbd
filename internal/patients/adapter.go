package patients

import (
	"strings"
	"time"

	"github.com/devSoft1007/netraAI-sub000/internal/edgeapi"
)

// wirePatient mirrors the edge function payload. Older endpoint versions
// send a single "name" instead of first/last; the adapter resolves that
// here so nothing downstream probes alternate keys.
type wirePatient struct {
	ID                string       `json:"id"`
	FirstName         string       `json:"first_name"`
	LastName          string       `json:"last_name"`
	Name              string       `json:"name"`
	Email             string       `json:"email"`
	Phone             string       `json:"phone"`
	Gender            string       `json:"gender"`
	DateOfBirth       edgeapi.Date `json:"date_of_birth"`
	Address           string       `json:"address"`
	Status            string       `json:"status"`
	InsuranceProvider string       `json:"insurance_provider"`
	CreatedAt         string       `json:"created_at"`
	UpdatedAt         string       `json:"updated_at"`
}

func fromWire(w wirePatient) Patient {
	first, last := w.FirstName, w.LastName
	if first == "" && last == "" && w.Name != "" {
		first, last = splitName(w.Name)
	}
	return Patient{
		ID:                w.ID,
		FirstName:         first,
		LastName:          last,
		Email:             w.Email,
		Phone:             w.Phone,
		Gender:            w.Gender,
		BirthDate:         w.DateOfBirth,
		Address:           w.Address,
		Status:            w.Status,
		InsuranceProvider: w.InsuranceProvider,
		CreatedAt:         parseTimestamp(w.CreatedAt),
		UpdatedAt:         parseTimestamp(w.UpdatedAt),
	}
}

func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func toWireAdd(in AddInput) map[string]any {
	return map[string]any{
		"first_name":         in.FirstName,
		"last_name":          in.LastName,
		"email":              in.Email,
		"phone":              in.Phone,
		"gender":             in.Gender,
		"date_of_birth":      in.BirthDate.String(),
		"address":            in.Address,
		"insurance_provider": in.InsuranceProvider,
	}
}

// toWireUpdate renames the client-side id to the server's patientId key
// and truncates date values to their date-only wire form.
func toWireUpdate(diff map[string]any) map[string]any {
	payload := make(map[string]any, len(diff)+1)
	for k, v := range diff {
		if k == "id" {
			payload["patientId"] = v
			continue
		}
		payload[k] = truncateDates(v)
	}
	return payload
}

func truncateDates(v any) any {
	switch t := v.(type) {
	case edgeapi.Date:
		return t.String()
	case time.Time:
		return edgeapi.NewDate(t).String()
	default:
		return v
	}
}
