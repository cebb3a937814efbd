package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/devSoft1007/netraAI-sub000/internal/derive"
	"github.com/devSoft1007/netraAI-sub000/internal/edgeapi"
	"github.com/devSoft1007/netraAI-sub000/internal/gateway"
	"github.com/devSoft1007/netraAI-sub000/internal/mutation"
	"github.com/devSoft1007/netraAI-sub000/internal/notify"
	"github.com/devSoft1007/netraAI-sub000/internal/querycache"
)

const listResource = "payments"

// ErrInvalidAmount rejects non-positive payment amounts before any
// network call.
var ErrInvalidAmount = errors.New("payments: amount must be positive")

// Service is the typed read/write interface for payments.
type Service struct {
	gw    *gateway.Client
	cache *querycache.Client

	add    *mutation.Executor[AddInput, *Payment]
	update *mutation.Executor[map[string]any, *Payment]
}

// NewService wires the payment service.
func NewService(gw *gateway.Client, cache *querycache.Client, notifier notify.Notifier) *Service {
	s := &Service{gw: gw, cache: cache}
	s.add = mutation.NewExecutor(s.doAdd,
		mutation.InvalidateHooks[*Payment](cache, notifier, "Payment recorded", listResource, "invoices"))
	s.update = mutation.NewExecutor(s.doUpdate,
		mutation.InvalidateHooks[*Payment](cache, notifier, "Payment updated", listResource, "invoices"))
	return s
}

// ListKey is the cache key for a list variant.
func (s *Service) ListKey(p ListParams) querycache.Key {
	p = p.withDefaults()
	params := map[string]any{"page": p.Page, "limit": p.Limit}
	if p.PatientID != "" {
		params["patientId"] = p.PatientID
	}
	if p.Status != "" {
		params["status"] = p.Status
	}
	if !p.From.IsZero() {
		params["from"] = p.From.String()
	}
	if !p.To.IsZero() {
		params["to"] = p.To.String()
	}
	return querycache.NewKey(listResource, params)
}

// List returns a page of payments. Billing data changes out from under
// the client more often than demographics, so this call site uses a
// five-minute staleness window instead of explicit-invalidation-only.
func (s *Service) List(ctx context.Context, p ListParams) (*List, error) {
	p = p.withDefaults()
	v, err := s.cache.Fetch(ctx, s.ListKey(p), func(ctx context.Context) (any, error) {
		return s.fetchList(ctx, p)
	}, querycache.QueryOptions{StaleTime: querycache.StaleFor(5 * time.Minute)})
	if err != nil {
		return nil, err
	}
	return edgeapi.As[*List](v)
}

func (s *Service) fetchList(ctx context.Context, p ListParams) (*List, error) {
	query := edgeapi.Query(map[string]any{
		"page":       p.Page,
		"limit":      p.Limit,
		"patient_id": p.PatientID,
		"status":     p.Status,
		"from":       p.From,
		"to":         p.To,
	})
	var env edgeapi.Envelope[[]wirePayment]
	if err := s.gw.GetJSON(ctx, "/get-payments"+query, &env); err != nil {
		return nil, err
	}
	list := &List{
		Payments:   make([]Payment, 0, len(env.Data)),
		Count:      env.Count,
		Pagination: edgeapi.Paginate((p.Page-1)*p.Limit, p.Limit, env.Count),
	}
	for _, w := range env.Data {
		list.Payments = append(list.Payments, fromWire(w))
	}
	return list, nil
}

// Add records a payment, deriving the patient-owed amount when the
// caller did not supply one.
func (s *Service) Add(ctx context.Context, in AddInput) (*Payment, error) {
	return s.add.Do(ctx, in)
}

// AddPending reports whether an add mutation is in flight.
func (s *Service) AddPending() bool {
	return s.add.Pending()
}

func (s *Service) doAdd(ctx context.Context, in AddInput) (*Payment, error) {
	if in.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if in.InsuranceAmount < 0 {
		return nil, fmt.Errorf("payments: insurance amount must not be negative")
	}
	patientAmount := derive.OwedAmount(in.Amount, in.InsuranceAmount)
	if in.PatientAmount != nil {
		patientAmount = *in.PatientAmount
	}
	var env edgeapi.Envelope[wirePayment]
	if err := s.gw.PostJSON(ctx, "/create-payment", toWireAdd(in, patientAmount), &env); err != nil {
		return nil, err
	}
	p := fromWire(env.Data)
	return &p, nil
}

// Update submits a dirty diff (identity under "id").
func (s *Service) Update(ctx context.Context, diff map[string]any) (*Payment, error) {
	return s.update.Do(ctx, diff)
}

func (s *Service) doUpdate(ctx context.Context, diff map[string]any) (*Payment, error) {
	if diff["id"] == nil || diff["id"] == "" {
		return nil, fmt.Errorf("payments: missing id")
	}
	var env edgeapi.Envelope[wirePayment]
	if err := s.gw.DoJSON(ctx, http.MethodPatch, "/update-payment", toWireUpdate(diff), &env); err != nil {
		return nil, err
	}
	p := fromWire(env.Data)
	return &p, nil
}
