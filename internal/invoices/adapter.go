package invoices

import (
	"time"

	"github.com/devSoft1007/netraAI-sub000/internal/edgeapi"
)

type wireLine struct {
	ProcedureID string         `json:"procedure_id"`
	Description string         `json:"description"`
	Quantity    int            `json:"quantity"`
	UnitPrice   edgeapi.Number `json:"unit_price"`
}

type wireInvoice struct {
	ID              string         `json:"id"`
	Number          string         `json:"number"`
	PatientID       string         `json:"patient_id"`
	AppointmentID   string         `json:"appointment_id"`
	Lines           []wireLine     `json:"lines"`
	Total           edgeapi.Number `json:"total"`
	InsuranceAmount edgeapi.Number `json:"insurance_amount"`
	PatientAmount   edgeapi.Number `json:"patient_amount"`
	Status          string         `json:"status"`
	IssuedAt        edgeapi.Date   `json:"issued_at"`
	DueAt           edgeapi.Date   `json:"due_at"`
	CreatedAt       string         `json:"created_at"`
}

func fromWire(w wireInvoice) Invoice {
	createdAt, _ := time.Parse(time.RFC3339, w.CreatedAt)
	lines := make([]Line, 0, len(w.Lines))
	for _, l := range w.Lines {
		lines = append(lines, Line{
			ProcedureID: l.ProcedureID,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice.Float(),
		})
	}
	return Invoice{
		ID:              w.ID,
		Number:          w.Number,
		PatientID:       w.PatientID,
		AppointmentID:   w.AppointmentID,
		Lines:           lines,
		Total:           w.Total.Float(),
		InsuranceAmount: w.InsuranceAmount.Float(),
		PatientAmount:   w.PatientAmount.Float(),
		Status:          w.Status,
		IssuedAt:        w.IssuedAt,
		DueAt:           w.DueAt,
		CreatedAt:       createdAt,
	}
}
