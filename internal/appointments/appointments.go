// Package appointments is the typed read/write interface for the
// appointment schedule.
package appointments

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/devSoft1007/netraAI-sub000/internal/edgeapi"
	"github.com/devSoft1007/netraAI-sub000/internal/gateway"
	"github.com/devSoft1007/netraAI-sub000/internal/mutation"
	"github.com/devSoft1007/netraAI-sub000/internal/notify"
	"github.com/devSoft1007/netraAI-sub000/internal/querycache"
)

const (
	listResource   = "appointments"
	recordResource = "appointment"

	// The schedule changes behind the client's back (front desk, other
	// operators), so list reads carry a five-minute freshness window.
	listStaleTime = 5 * time.Minute
)

// ErrMissingID guards single-record operations invoked before the id is
// known.
var ErrMissingID = errors.New("appointments: missing id")

// Appointment is the canonical domain shape.
type Appointment struct {
	ID        string       `json:"id"`
	PatientID string       `json:"patientId"`
	DoctorID  string       `json:"doctorId"`
	Date      edgeapi.Date `json:"date"`
	StartTime string       `json:"startTime"`
	EndTime   string       `json:"endTime"`
	Reason    string       `json:"reason"`
	Status    string       `json:"status"`
	Notes     string       `json:"notes"`
	CreatedAt time.Time    `json:"createdAt"`
}

// ListParams filter and paginate the schedule.
type ListParams struct {
	Page     int
	Limit    int
	From     edgeapi.Date
	To       edgeapi.Date
	DoctorID string
	Status   string
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

// List is a page of appointments plus derived paging state.
type List struct {
	Appointments []Appointment      `json:"appointments"`
	Count        int                `json:"count"`
	Pagination   edgeapi.Pagination `json:"pagination"`
}

// AddInput books a new appointment.
type AddInput struct {
	PatientID string
	DoctorID  string
	Date      edgeapi.Date
	StartTime string
	EndTime   string
	Reason    string
}

type wireAppointment struct {
	ID        string       `json:"id"`
	PatientID string       `json:"patient_id"`
	DoctorID  string       `json:"doctor_id"`
	Date      edgeapi.Date `json:"appointment_date"`
	StartTime string       `json:"start_time"`
	EndTime   string       `json:"end_time"`
	Reason    string       `json:"reason"`
	Status    string       `json:"status"`
	Notes     string       `json:"notes"`
	CreatedAt string       `json:"created_at"`
}

func fromWire(w wireAppointment) Appointment {
	createdAt, _ := time.Parse(time.RFC3339, w.CreatedAt)
	return Appointment{
		ID:        w.ID,
		PatientID: w.PatientID,
		DoctorID:  w.DoctorID,
		Date:      w.Date,
		StartTime: w.StartTime,
		EndTime:   w.EndTime,
		Reason:    w.Reason,
		Status:    w.Status,
		Notes:     w.Notes,
		CreatedAt: createdAt,
	}
}

// Service composes the cache and mutation layers for appointments.
type Service struct {
	gw    *gateway.Client
	cache *querycache.Client

	add    *mutation.Executor[AddInput, *Appointment]
	update *mutation.Executor[map[string]any, *Appointment]
	cancel *mutation.Executor[string, struct{}]
}

// NewService wires the appointment service.
func NewService(gw *gateway.Client, cache *querycache.Client, notifier notify.Notifier) *Service {
	s := &Service{gw: gw, cache: cache}
	s.add = mutation.NewExecutor(s.doAdd,
		mutation.InvalidateHooks[*Appointment](cache, notifier, "Appointment booked", listResource))
	s.update = mutation.NewExecutor(s.doUpdate,
		mutation.InvalidateHooks[*Appointment](cache, notifier, "Appointment updated", listResource, recordResource))
	s.cancel = mutation.NewExecutor(s.doCancel,
		mutation.InvalidateHooks[struct{}](cache, notifier, "Appointment cancelled", listResource, recordResource))
	return s
}

// ListKey is the cache key for a schedule page.
func (s *Service) ListKey(p ListParams) querycache.Key {
	p = p.withDefaults()
	params := map[string]any{"page": p.Page, "limit": p.Limit}
	if !p.From.IsZero() {
		params["from"] = p.From.String()
	}
	if !p.To.IsZero() {
		params["to"] = p.To.String()
	}
	if p.DoctorID != "" {
		params["doctorId"] = p.DoctorID
	}
	if p.Status != "" {
		params["status"] = p.Status
	}
	return querycache.NewKey(listResource, params)
}

// List returns a page of the schedule.
func (s *Service) List(ctx context.Context, p ListParams) (*List, error) {
	p = p.withDefaults()
	v, err := s.cache.Fetch(ctx, s.ListKey(p), func(ctx context.Context) (any, error) {
		return s.fetchList(ctx, p)
	}, querycache.QueryOptions{StaleTime: querycache.StaleFor(listStaleTime)})
	if err != nil {
		return nil, err
	}
	return edgeapi.As[*List](v)
}

func (s *Service) fetchList(ctx context.Context, p ListParams) (*List, error) {
	query := edgeapi.Query(map[string]any{
		"page":      p.Page,
		"limit":     p.Limit,
		"from":      p.From,
		"to":        p.To,
		"doctor_id": p.DoctorID,
		"status":    p.Status,
	})
	var env edgeapi.Envelope[[]wireAppointment]
	if err := s.gw.GetJSON(ctx, "/get-appointments"+query, &env); err != nil {
		return nil, err
	}
	list := &List{
		Appointments: make([]Appointment, 0, len(env.Data)),
		Count:        env.Count,
		Pagination:   edgeapi.Paginate((p.Page-1)*p.Limit, p.Limit, env.Count),
	}
	for _, w := range env.Data {
		list.Appointments = append(list.Appointments, fromWire(w))
	}
	return list, nil
}

// Get fetches one appointment; empty ids never reach the network.
func (s *Service) Get(ctx context.Context, id string) (*Appointment, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	key := querycache.NewKey(recordResource, map[string]any{"id": id})
	v, err := s.cache.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		var env edgeapi.Envelope[wireAppointment]
		if err := s.gw.GetJSON(ctx, "/get-appointment"+edgeapi.Query(map[string]any{"id": id}), &env); err != nil {
			return nil, err
		}
		a := fromWire(env.Data)
		return &a, nil
	}, querycache.QueryOptions{})
	if err != nil {
		return nil, err
	}
	return edgeapi.As[*Appointment](v)
}

// Add books an appointment.
func (s *Service) Add(ctx context.Context, in AddInput) (*Appointment, error) {
	return s.add.Do(ctx, in)
}

func (s *Service) doAdd(ctx context.Context, in AddInput) (*Appointment, error) {
	if in.PatientID == "" || in.DoctorID == "" {
		return nil, fmt.Errorf("appointments: patient and doctor are required")
	}
	if in.Date.IsZero() {
		return nil, fmt.Errorf("appointments: date is required")
	}
	payload := map[string]any{
		"patient_id":       in.PatientID,
		"doctor_id":        in.DoctorID,
		"appointment_date": in.Date.String(),
		"start_time":       in.StartTime,
		"end_time":         in.EndTime,
		"reason":           in.Reason,
	}
	var env edgeapi.Envelope[wireAppointment]
	if err := s.gw.PostJSON(ctx, "/create-appointment", payload, &env); err != nil {
		return nil, err
	}
	a := fromWire(env.Data)
	return &a, nil
}

// Update submits a dirty diff (identity under "id").
func (s *Service) Update(ctx context.Context, diff map[string]any) (*Appointment, error) {
	return s.update.Do(ctx, diff)
}

func (s *Service) doUpdate(ctx context.Context, diff map[string]any) (*Appointment, error) {
	if diff["id"] == nil || diff["id"] == "" {
		return nil, ErrMissingID
	}
	payload := make(map[string]any, len(diff)+1)
	for k, v := range diff {
		if k == "id" {
			payload["appointmentId"] = v
			continue
		}
		if d, ok := v.(edgeapi.Date); ok {
			payload[k] = d.String()
			continue
		}
		payload[k] = v
	}
	var env edgeapi.Envelope[wireAppointment]
	if err := s.gw.DoJSON(ctx, http.MethodPatch, "/update-appointment", payload, &env); err != nil {
		return nil, err
	}
	a := fromWire(env.Data)
	return &a, nil
}

// Cancel marks an appointment cancelled.
func (s *Service) Cancel(ctx context.Context, id string) error {
	_, err := s.cancel.Do(ctx, id)
	return err
}

func (s *Service) doCancel(ctx context.Context, id string) (struct{}, error) {
	if id == "" {
		return struct{}{}, ErrMissingID
	}
	err := s.gw.PostJSON(ctx, "/cancel-appointment", map[string]any{"appointmentId": id}, nil)
	return struct{}{}, err
}
