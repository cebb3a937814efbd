package patients

import (
	"time"

	"github.com/devSoft1007/netraAI-sub000/internal/derive"
	"github.com/devSoft1007/netraAI-sub000/internal/edgeapi"
)

// Patient is the canonical domain shape. Wire payloads are normalized
// into it exactly once, in the adapter.
type Patient struct {
	ID                string       `json:"id"`
	FirstName         string       `json:"firstName"`
	LastName          string       `json:"lastName"`
	Email             string       `json:"email"`
	Phone             string       `json:"phone"`
	Gender            string       `json:"gender"`
	BirthDate         edgeapi.Date `json:"birthDate"`
	Address           string       `json:"address"`
	Status            string       `json:"status"`
	InsuranceProvider string       `json:"insuranceProvider"`
	CreatedAt         time.Time    `json:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt"`
}

// Initials returns the patient's display initials.
func (p Patient) Initials() string {
	return derive.Initials(p.FirstName, p.LastName)
}

// Age returns the patient's age in whole years at now.
func (p Patient) Age(now time.Time) int {
	return derive.Age(p.BirthDate.Time, now)
}

// ListParams filter and paginate the patient list.
type ListParams struct {
	Page   int
	Limit  int
	Search string
	Status string
	Sort   string
	Dir    string
}

func (p ListParams) withDefaults() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 20
	}
	return p
}

// List is a page of patients plus derived paging state.
type List struct {
	Patients   []Patient          `json:"patients"`
	Count      int                `json:"count"`
	Pagination edgeapi.Pagination `json:"pagination"`
}

// AddInput creates a new patient record.
type AddInput struct {
	FirstName         string
	LastName          string
	Email             string
	Phone             string
	Gender            string
	BirthDate         edgeapi.Date
	Address           string
	InsuranceProvider string
}
