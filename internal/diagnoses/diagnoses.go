// Package diagnoses calls the AI fundus triage endpoint and keeps the
// per-patient diagnosis history.
//
// The triage endpoint scores a retinal image against two models at once
// (diabetic retinopathy staging and glaucoma screening) and replies with
// one block per condition plus inference metadata. It takes either an
// uploaded image (multipart field "file") or a fetchable URL (form field
// "img_url"), never both.
package diagnoses

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/devSoft1007/netraAI-sub000/internal/edgeapi"
	"github.com/devSoft1007/netraAI-sub000/internal/gateway"
	"github.com/devSoft1007/netraAI-sub000/internal/mutation"
	"github.com/devSoft1007/netraAI-sub000/internal/notify"
	"github.com/devSoft1007/netraAI-sub000/internal/querycache"
)

const (
	diagnosePath = "/api/ai-diagnoses"

	listResource = "ai-diagnoses"
)

var (
	// ErrNoImage rejects a triage call with neither a file nor a URL.
	ErrNoImage = errors.New("diagnoses: an image file or URL is required")
	// ErrMissingPatient guards saving a result without a patient.
	ErrMissingPatient = errors.New("diagnoses: missing patient id")
)

// Finding is one model's verdict for a single condition.
type Finding struct {
	Prediction    string             `json:"prediction"`
	Confidence    float64            `json:"confidence"`
	Probabilities map[string]float64 `json:"probabilities"`
	SeverityLevel int                `json:"severity_level"`
	DoctorNote    string             `json:"doctor_note"`
}

// Timing breaks down where inference time went.
type Timing struct {
	ImageLoadingMS       float64 `json:"image_loading_ms"`
	DRPredictionMS       float64 `json:"dr_prediction_ms"`
	GlaucomaPredictionMS float64 `json:"glaucoma_prediction_ms"`
}

// Meta describes the inference run itself.
type Meta struct {
	RequestID       string   `json:"request_id"`
	ImageSize       string   `json:"image_size"`
	ModelVersion    string   `json:"model_version"`
	InferenceTimeMS int      `json:"inference_time_ms"`
	InputSource     string   `json:"input_source"`
	Optimizations   []string `json:"optimizations_applied"`
	Timing          Timing   `json:"timing"`
}

// Result is the full triage response.
type Result struct {
	DiabeticRetinopathy Finding `json:"diabetic_retinopathy"`
	Glaucoma            Finding `json:"glaucoma"`
	Meta                Meta    `json:"meta"`
}

// Record is a saved diagnosis in a patient's history.
type Record struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patientId"`
	Result    Result    `json:"result"`
	ImageURL  string    `json:"imageUrl"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
}

// SaveInput persists a triage result against a patient.
type SaveInput struct {
	PatientID string
	Result    Result
	ImageURL  string
	Notes     string
}

// HistoryParams filter a patient's saved diagnoses.
type HistoryParams struct {
	PatientID string
	Page      int
	Limit     int
}

func (p HistoryParams) withDefaults() HistoryParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 20
	}
	return p
}

// History is a page of saved diagnoses.
type History struct {
	Records    []Record           `json:"records"`
	Count      int                `json:"count"`
	Pagination edgeapi.Pagination `json:"pagination"`
}

// Service composes the triage endpoint, the history cache, and the save
// mutation.
type Service struct {
	gw    *gateway.Client
	cache *querycache.Client

	save *mutation.Executor[SaveInput, *Record]
}

// NewService wires the diagnosis service.
func NewService(gw *gateway.Client, cache *querycache.Client, notifier notify.Notifier) *Service {
	s := &Service{gw: gw, cache: cache}
	s.save = mutation.NewExecutor(s.doSave,
		mutation.InvalidateHooks[*Record](cache, notifier, "Diagnosis saved", listResource))
	return s
}

// Diagnose uploads an image for triage. Triage calls are never cached:
// two runs over the same image are two distinct inferences.
func (s *Service) Diagnose(ctx context.Context, filename string, image io.Reader) (*Result, error) {
	if image == nil {
		return nil, ErrNoImage
	}
	var res Result
	if err := s.gw.PostJSON(ctx, diagnosePath, &gateway.File{Name: filename, Reader: image}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// DiagnoseURL triages an image the server fetches itself.
func (s *Service) DiagnoseURL(ctx context.Context, imgURL string) (*Result, error) {
	if imgURL == "" {
		return nil, ErrNoImage
	}
	var res Result
	if err := s.gw.PostForm(ctx, diagnosePath, map[string]string{"img_url": imgURL}, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// HistoryKey is the cache key for a history page.
func (s *Service) HistoryKey(p HistoryParams) querycache.Key {
	p = p.withDefaults()
	return querycache.NewKey(listResource, map[string]any{
		"patientId": p.PatientID,
		"page":      p.Page,
		"limit":     p.Limit,
	})
}

// History lists a patient's saved diagnoses.
func (s *Service) History(ctx context.Context, p HistoryParams) (*History, error) {
	if p.PatientID == "" {
		return nil, ErrMissingPatient
	}
	p = p.withDefaults()
	v, err := s.cache.Fetch(ctx, s.HistoryKey(p), func(ctx context.Context) (any, error) {
		query := edgeapi.Query(map[string]any{
			"patient_id": p.PatientID,
			"page":       p.Page,
			"limit":      p.Limit,
		})
		var env edgeapi.Envelope[[]wireRecord]
		if err := s.gw.GetJSON(ctx, "/get-ai-diagnoses"+query, &env); err != nil {
			return nil, err
		}
		h := &History{
			Records:    make([]Record, 0, len(env.Data)),
			Count:      env.Count,
			Pagination: edgeapi.Paginate((p.Page-1)*p.Limit, p.Limit, env.Count),
		}
		for _, w := range env.Data {
			h.Records = append(h.Records, recordFromWire(w))
		}
		return h, nil
	}, querycache.QueryOptions{})
	if err != nil {
		return nil, err
	}
	return edgeapi.As[*History](v)
}

// Save persists a triage result into the patient's history.
func (s *Service) Save(ctx context.Context, in SaveInput) (*Record, error) {
	return s.save.Do(ctx, in)
}

func (s *Service) doSave(ctx context.Context, in SaveInput) (*Record, error) {
	if in.PatientID == "" {
		return nil, ErrMissingPatient
	}
	payload := map[string]any{
		"patient_id": in.PatientID,
		"result":     in.Result,
		"image_url":  in.ImageURL,
		"notes":      in.Notes,
	}
	var env edgeapi.Envelope[wireRecord]
	if err := s.gw.PostJSON(ctx, "/save-ai-diagnosis", payload, &env); err != nil {
		return nil, err
	}
	r := recordFromWire(env.Data)
	return &r, nil
}

type wireRecord struct {
	ID        string `json:"id"`
	PatientID string `json:"patient_id"`
	Result    Result `json:"result"`
	ImageURL  string `json:"image_url"`
	Notes     string `json:"notes"`
	CreatedAt string `json:"created_at"`
}

func recordFromWire(w wireRecord) Record {
	createdAt, _ := time.Parse(time.RFC3339, w.CreatedAt)
	return Record{
		ID:        w.ID,
		PatientID: w.PatientID,
		Result:    w.Result,
		ImageURL:  w.ImageURL,
		Notes:     w.Notes,
		CreatedAt: createdAt,
	}
}
