package main

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/devSoft1007/netraAI-sub000/pkg/logging"
)

// server implements the edge function wire contract over the in-memory
// store: snake_case rows inside a {success, data, count} envelope.
type server struct {
	store  *store
	logger *logging.Logger
}

func newServer(logger *logging.Logger) *server {
	return &server{store: newStore(), logger: logger}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Get("/get-patients", s.handleList("patients", []string{"first_name", "last_name", "email"}))
	r.Get("/get-patient", s.handleGet("patients"))
	r.Post("/create-patient", s.handleCreate("patients"))
	r.Patch("/update-patient", s.handleUpdate("patients", "patientId"))
	r.Delete("/delete-patient", s.handleDelete("patients", "patientId"))

	r.Get("/get-appointments", s.handleList("appointments", nil))
	r.Get("/get-appointment", s.handleGet("appointments"))
	r.Post("/create-appointment", s.handleCreate("appointments"))
	r.Patch("/update-appointment", s.handleUpdate("appointments", "appointmentId"))
	r.Post("/cancel-appointment", s.handleCancelAppointment)

	r.Get("/get-procedures", s.handleList("procedures", []string{"name", "code"}))
	r.Post("/create-procedure", s.handleCreate("procedures"))
	r.Patch("/update-procedure", s.handleUpdate("procedures", "procedureId"))
	r.Delete("/delete-procedure", s.handleDelete("procedures", "procedureId"))

	r.Get("/get-payments", s.handleList("payments", nil))
	r.Post("/create-payment", s.handleCreatePayment)
	r.Patch("/update-payment", s.handleUpdate("payments", "paymentId"))

	r.Get("/get-invoices", s.handleList("invoices", nil))
	r.Get("/get-invoice", s.handleGet("invoices"))
	r.Post("/create-invoice", s.handleCreateInvoice)
	r.Post("/mark-invoice-paid", s.handleMarkInvoicePaid)

	r.Get("/get-doctors", s.handleList("doctors", []string{"display_name", "name", "first_name", "last_name"}))
	r.Get("/get-doctor", s.handleGet("doctors"))

	r.Get("/get-ai-diagnoses", s.handleList("ai_diagnoses", nil))
	r.Post("/save-ai-diagnosis", s.handleSaveDiagnosis)
	r.Post("/api/ai-diagnoses", s.handleDiagnose)

	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "healthy", "time": time.Now().UTC().Format(time.RFC3339)})
}

// handleList implements the shared list contract: page/limit pagination,
// optional search over the given fields, plus exact-match filters for the
// well-known foreign keys.
func (s *server) handleList(collection string, searchFields []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		search := q.Get("search")
		rows := s.store.list(collection, func(rec record) bool {
			for _, key := range []string{"patient_id", "doctor_id", "status", "specialty"} {
				if want := q.Get(key); want != "" && rec[key] != want {
					return false
				}
			}
			return containsFold(rec, searchFields, search)
		})
		page, _ := strconv.Atoi(q.Get("page"))
		limit, _ := strconv.Atoi(q.Get("limit"))
		writeEnvelope(w, pageSlice(rows, page, limit), len(rows))
	}
}

func (s *server) handleGet(collection string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		rec, ok := s.store.get(collection, id)
		if !ok {
			writeError(w, http.StatusNotFound, "record not found")
			return
		}
		writeEnvelope(w, rec, 1)
	}
}

func (s *server) handleCreate(collection string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body record
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		rec := s.store.insert(collection, body)
		s.logger.Info("record created", "collection", collection, "id", rec["id"])
		writeEnvelope(w, rec, 1)
	}
}

// handleUpdate accepts the client's partial diff with the identity carried
// under the endpoint-specific key (patientId, appointmentId, ...).
func (s *server) handleUpdate(collection, idKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body record
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		id, _ := body[idKey].(string)
		if id == "" {
			writeError(w, http.StatusBadRequest, idKey+" is required")
			return
		}
		delete(body, idKey)
		rec, ok := s.store.update(collection, id, body)
		if !ok {
			writeError(w, http.StatusNotFound, "record not found")
			return
		}
		writeEnvelope(w, rec, 1)
	}
}

func (s *server) handleDelete(collection, idKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body record
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		id, _ := body[idKey].(string)
		if !s.store.delete(collection, id) {
			writeError(w, http.StatusNotFound, "record not found")
			return
		}
		writeEnvelope(w, nil, 0)
	}
}

func (s *server) handleCancelAppointment(w http.ResponseWriter, r *http.Request) {
	var body record
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	id, _ := body["appointmentId"].(string)
	rec, ok := s.store.update("appointments", id, record{"status": "cancelled"})
	if !ok {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	writeEnvelope(w, rec, 1)
}

func (s *server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var body record
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if amount, ok := body["amount"].(float64); !ok || amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}
	// The client sends its derived owed amount camelCased; store it the
	// way the hosted function does.
	if v, ok := body["patientAmount"]; ok {
		body["patient_amount"] = v
		delete(body, "patientAmount")
	}
	if body["status"] == nil {
		body["status"] = "recorded"
	}
	writeEnvelope(w, s.store.insert("payments", body), 1)
}

func (s *server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var body record
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	lines, _ := body["lines"].([]any)
	if len(lines) == 0 {
		writeError(w, http.StatusBadRequest, "at least one line is required")
		return
	}
	s.store.mu.Lock()
	number := s.store.counters["invoices"] + 1
	s.store.mu.Unlock()
	body["number"] = "INV-" + pad4(number)
	body["status"] = "open"
	body["issued_at"] = time.Now().UTC().Format("2006-01-02")
	writeEnvelope(w, s.store.insert("invoices", body), 1)
}

func (s *server) handleMarkInvoicePaid(w http.ResponseWriter, r *http.Request) {
	var body record
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	id, _ := body["invoiceId"].(string)
	rec, ok := s.store.update("invoices", id, record{"status": "paid"})
	if !ok {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	// Settlement records a matching payment, mirroring the hosted flow.
	s.store.insert("payments", record{
		"patient_id":   rec["patient_id"],
		"amount":       rec["patient_amount"],
		"method":       "invoice",
		"status":       "recorded",
		"payment_date": time.Now().UTC().Format("2006-01-02"),
	})
	writeEnvelope(w, rec, 1)
}

func (s *server) handleSaveDiagnosis(w http.ResponseWriter, r *http.Request) {
	var body record
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body["patient_id"] == nil || body["patient_id"] == "" {
		writeError(w, http.StatusBadRequest, "patient_id is required")
		return
	}
	writeEnvelope(w, s.store.insert("ai_diagnoses", body), 1)
}

var (
	drClasses       = []string{"No DR", "Mild NPDR", "Moderate NPDR", "Severe NPDR", "Proliferative DR"}
	glaucomaClasses = []string{"Normal", "Glaucoma"}

	drNotes = []string{
		"No diabetic retinopathy detected. Continue routine screening.",
		"Mild changes detected. Regular follow-up recommended.",
		"Signs of moderate non-proliferative DR. Monitor and consider treatment.",
		"Severe NPDR detected. Closer monitoring and treatment required.",
		"Proliferative DR detected. Immediate treatment is strongly advised.",
	}
	glaucomaNotes = []string{
		"No significant signs of glaucoma.",
		"Increased likelihood of glaucoma. Recommend further IOP measurement and visual field testing.",
	}
)

// handleDiagnose fakes the inference server: it accepts the same multipart
// contract (file XOR img_url) and returns a plausibly-shaped result.
func (s *server) handleDiagnose(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "multipart form expected")
		return
	}
	_, _, fileErr := r.FormFile("file")
	imgURL := r.FormValue("img_url")
	hasFile := fileErr == nil
	if !hasFile && imgURL == "" {
		writeError(w, http.StatusBadRequest, "Either file or img_url must be provided")
		return
	}
	if hasFile && imgURL != "" {
		writeError(w, http.StatusBadRequest, "Provide either file or img_url, not both")
		return
	}

	source := "url"
	if hasFile {
		source = "file"
	}
	drIndex := rand.Intn(len(drClasses))
	glIndex := rand.Intn(len(glaucomaClasses))
	writeJSON(w, http.StatusOK, map[string]any{
		"diabetic_retinopathy": finding(drClasses, drNotes, drIndex),
		"glaucoma":             finding(glaucomaClasses, glaucomaNotes, glIndex),
		"meta": map[string]any{
			"request_id":        uuid.NewString(),
			"image_size":        "224x224",
			"model_version":     "edgesim",
			"inference_time_ms": 5,
			"input_source":      source,
			"timing": map[string]any{
				"image_loading_ms":       1.0,
				"dr_prediction_ms":       2.0,
				"glaucoma_prediction_ms": 2.0,
			},
		},
	})
}

func finding(classes, notes []string, index int) map[string]any {
	probs := make(map[string]float64, len(classes))
	for i, c := range classes {
		if i == index {
			probs[c] = 0.9
		} else {
			probs[c] = 0.1 / float64(len(classes)-1)
		}
	}
	return map[string]any{
		"prediction":     classes[index],
		"confidence":     0.9,
		"probabilities":  probs,
		"severity_level": index,
		"doctor_note":    notes[index],
	}
}

func writeEnvelope(w http.ResponseWriter, data any, count int) {
	if data == nil {
		data = []any{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": data, "count": count})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func pad4(n int) string {
	s := strconv.Itoa(n)
	for len(s) < 4 {
		s = "0" + s
	}
	return s
}
