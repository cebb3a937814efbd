package payments

import (
	"time"

	"github.com/devSoft1007/netraAI-sub000/internal/edgeapi"
)

// wirePayment mirrors the edge function payload. Amount fields arrive as
// numbers or numeric strings depending on endpoint version; the Number
// codec absorbs both.
type wirePayment struct {
	ID              string         `json:"id"`
	PatientID       string         `json:"patient_id"`
	AppointmentID   string         `json:"appointment_id"`
	Amount          edgeapi.Number `json:"amount"`
	InsuranceClaim  bool           `json:"insurance_claim"`
	InsuranceAmount edgeapi.Number `json:"insurance_amount"`
	PatientAmount   edgeapi.Number `json:"patient_amount"`
	Method          string         `json:"method"`
	Status          string         `json:"status"`
	Date            edgeapi.Date   `json:"payment_date"`
	CreatedAt       string         `json:"created_at"`
}

func fromWire(w wirePayment) Payment {
	createdAt, _ := time.Parse(time.RFC3339, w.CreatedAt)
	return Payment{
		ID:              w.ID,
		PatientID:       w.PatientID,
		AppointmentID:   w.AppointmentID,
		Amount:          w.Amount.Float(),
		InsuranceClaim:  w.InsuranceClaim,
		InsuranceAmount: w.InsuranceAmount.Float(),
		PatientAmount:   w.PatientAmount.Float(),
		Method:          w.Method,
		Status:          w.Status,
		Date:            w.Date,
		CreatedAt:       createdAt,
	}
}

func toWireAdd(in AddInput, patientAmount float64) map[string]any {
	return map[string]any{
		"patient_id":       in.PatientID,
		"appointment_id":   in.AppointmentID,
		"amount":           in.Amount,
		"insurance_claim":  in.InsuranceClaim,
		"insurance_amount": in.InsuranceAmount,
		"patientAmount":    patientAmount,
		"method":           in.Method,
		"payment_date":     in.Date.String(),
	}
}

func toWireUpdate(diff map[string]any) map[string]any {
	payload := make(map[string]any, len(diff)+1)
	for k, v := range diff {
		if k == "id" {
			payload["paymentId"] = v
			continue
		}
		if d, ok := v.(edgeapi.Date); ok {
			payload[k] = d.String()
			continue
		}
		payload[k] = v
	}
	return payload
}
