package payments

import (
	"time"

	"github.com/devSoft1007/netraAI-sub000/internal/edgeapi"
)

// Payment is the canonical domain shape of one payment record.
type Payment struct {
	ID              string       `json:"id"`
	PatientID       string       `json:"patientId"`
	AppointmentID   string       `json:"appointmentId"`
	Amount          float64      `json:"amount"`
	InsuranceClaim  bool         `json:"insuranceClaim"`
	InsuranceAmount float64      `json:"insuranceAmount"`
	PatientAmount   float64      `json:"patientAmount"`
	Method          string       `json:"method"`
	Status          string       `json:"status"`
	Date            edgeapi.Date `json:"date"`
	CreatedAt       time.Time    `json:"createdAt"`
}

// ListParams filter and paginate the payment list.
type ListParams struct {
	Page      int
	Limit     int
	PatientID string
	Status    string
	From      edgeapi.Date
	To        edgeapi.Date
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

// List is a page of payments plus derived paging state.
type List struct {
	Payments   []Payment          `json:"payments"`
	Count      int                `json:"count"`
	Pagination edgeapi.Pagination `json:"pagination"`
}

// AddInput creates a payment. PatientAmount nil means "derive it": the
// patient owes total minus insurance. An explicit value is never
// overwritten by the derivation.
type AddInput struct {
	PatientID       string
	AppointmentID   string
	Amount          float64
	InsuranceClaim  bool
	InsuranceAmount float64
	PatientAmount   *float64
	Method          string
	Date            edgeapi.Date
}
