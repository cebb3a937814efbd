package patients

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/devSoft1007/netraAI-sub000/internal/edgeapi"
	"github.com/devSoft1007/netraAI-sub000/internal/forms"
	"github.com/devSoft1007/netraAI-sub000/internal/gateway"
	"github.com/devSoft1007/netraAI-sub000/internal/mutation"
	"github.com/devSoft1007/netraAI-sub000/internal/notify"
	"github.com/devSoft1007/netraAI-sub000/internal/querycache"
)

const (
	listResource   = "patients"
	recordResource = "patient"
)

// ErrMissingID means a single-record lookup was attempted before the id
// was known. No request is fired in that case.
var ErrMissingID = errors.New("patients: missing id")

// Service is the typed read/write interface for patient records.
type Service struct {
	gw    *gateway.Client
	cache *querycache.Client

	add    *mutation.Executor[AddInput, *Patient]
	update *mutation.Executor[map[string]any, *Patient]
	remove *mutation.Executor[string, struct{}]
}

// NewService wires the patient service against the gateway and cache.
func NewService(gw *gateway.Client, cache *querycache.Client, notifier notify.Notifier) *Service {
	s := &Service{gw: gw, cache: cache}
	s.add = mutation.NewExecutor(s.doAdd,
		mutation.InvalidateHooks[*Patient](cache, notifier, "Patient added", listResource))
	s.update = mutation.NewExecutor(s.doUpdate,
		mutation.InvalidateHooks[*Patient](cache, notifier, "Patient updated", listResource, recordResource))
	s.remove = mutation.NewExecutor(s.doDelete,
		mutation.InvalidateHooks[struct{}](cache, notifier, "Patient deleted", listResource, recordResource))
	return s
}

// ListKey is the cache key for a list variant; exposed so consumers can
// subscribe to invalidations.
func (s *Service) ListKey(p ListParams) querycache.Key {
	p = p.withDefaults()
	params := map[string]any{"page": p.Page, "limit": p.Limit}
	if p.Search != "" {
		params["search"] = p.Search
	}
	if p.Status != "" {
		params["status"] = p.Status
	}
	if p.Sort != "" {
		params["sort"] = p.Sort
		params["dir"] = p.Dir
	}
	return querycache.NewKey(listResource, params)
}

// List returns a page of patients, served from cache when fresh. The
// patient list uses the explicit-invalidation-only policy: it refreshes
// when a mutation invalidates it, not on a timer.
func (s *Service) List(ctx context.Context, p ListParams) (*List, error) {
	p = p.withDefaults()
	v, err := s.cache.Fetch(ctx, s.ListKey(p), func(ctx context.Context) (any, error) {
		return s.fetchList(ctx, p)
	}, querycache.QueryOptions{})
	if err != nil {
		return nil, err
	}
	return edgeapi.As[*List](v)
}

func (s *Service) fetchList(ctx context.Context, p ListParams) (*List, error) {
	query := edgeapi.Query(map[string]any{
		"page":   p.Page,
		"limit":  p.Limit,
		"search": p.Search,
		"status": p.Status,
		"sort":   p.Sort,
		"dir":    p.Dir,
	})
	var env edgeapi.Envelope[[]wirePatient]
	if err := s.gw.GetJSON(ctx, "/get-patients"+query, &env); err != nil {
		return nil, err
	}
	list := &List{
		Patients:   make([]Patient, 0, len(env.Data)),
		Count:      env.Count,
		Pagination: edgeapi.Paginate((p.Page-1)*p.Limit, p.Limit, env.Count),
	}
	for _, w := range env.Data {
		list.Patients = append(list.Patients, fromWire(w))
	}
	return list, nil
}

// RecordKey is the cache key for one patient record.
func (s *Service) RecordKey(id string) querycache.Key {
	return querycache.NewKey(recordResource, map[string]any{"id": id})
}

// Get fetches one patient by id. An empty id is a contract violation and
// returns ErrMissingID without firing a request.
func (s *Service) Get(ctx context.Context, id string) (*Patient, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	v, err := s.cache.Fetch(ctx, s.RecordKey(id), func(ctx context.Context) (any, error) {
		var env edgeapi.Envelope[wirePatient]
		if err := s.gw.GetJSON(ctx, "/get-patient"+edgeapi.Query(map[string]any{"id": id}), &env); err != nil {
			return nil, err
		}
		p := fromWire(env.Data)
		return &p, nil
	}, querycache.QueryOptions{})
	if err != nil {
		return nil, err
	}
	return edgeapi.As[*Patient](v)
}

// Add creates a patient.
func (s *Service) Add(ctx context.Context, in AddInput) (*Patient, error) {
	return s.add.Do(ctx, in)
}

// AddPending reports whether an add mutation is in flight.
func (s *Service) AddPending() bool {
	return s.add.Pending()
}

func (s *Service) doAdd(ctx context.Context, in AddInput) (*Patient, error) {
	if in.FirstName == "" && in.LastName == "" {
		return nil, fmt.Errorf("patients: name is required")
	}
	var env edgeapi.Envelope[wirePatient]
	if err := s.gw.PostJSON(ctx, "/create-patient", toWireAdd(in), &env); err != nil {
		return nil, err
	}
	p := fromWire(env.Data)
	return &p, nil
}

// Update submits a dirty diff (identity under "id") to the update
// endpoint. Used as the submit func of an edit form.
func (s *Service) Update(ctx context.Context, diff map[string]any) (*Patient, error) {
	return s.update.Do(ctx, diff)
}

// UpdatePending reports whether an update mutation is in flight.
func (s *Service) UpdatePending() bool {
	return s.update.Pending()
}

func (s *Service) doUpdate(ctx context.Context, diff map[string]any) (*Patient, error) {
	if diff["id"] == nil || diff["id"] == "" {
		return nil, ErrMissingID
	}
	var env edgeapi.Envelope[wirePatient]
	if err := s.gw.DoJSON(ctx, http.MethodPatch, "/update-patient", toWireUpdate(diff), &env); err != nil {
		return nil, err
	}
	p := fromWire(env.Data)
	return &p, nil
}

// Delete removes a patient.
func (s *Service) Delete(ctx context.Context, id string) error {
	_, err := s.remove.Do(ctx, id)
	return err
}

func (s *Service) doDelete(ctx context.Context, id string) (struct{}, error) {
	if id == "" {
		return struct{}{}, ErrMissingID
	}
	err := s.gw.DeleteJSON(ctx, "/delete-patient", map[string]any{"patientId": id}, nil)
	return struct{}{}, err
}

// EditForm opens a reconciliation form over the canonical record and
// returns it with the submit func bound to Update.
func (s *Service) EditForm(ctx context.Context, id string) (*forms.Form, forms.SubmitFunc, error) {
	f := forms.New("id")
	f.Begin()
	p, err := s.Get(ctx, id)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	f.Open(map[string]any{
		"id":                p.ID,
		"firstName":         p.FirstName,
		"lastName":          p.LastName,
		"email":             p.Email,
		"phone":             p.Phone,
		"gender":            p.Gender,
		"birthDate":         p.BirthDate,
		"address":           p.Address,
		"status":            p.Status,
		"insuranceProvider": p.InsuranceProvider,
	})
	submit := func(ctx context.Context, diff map[string]any) error {
		_, err := s.Update(ctx, diff)
		return err
	}
	return f, submit, nil
}
