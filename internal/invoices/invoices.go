// Package invoices builds and tracks patient invoices. An invoice is
// assembled client-side from an appointment plus one line per performed
// procedure; the server owns numbering and totals reconciliation.
package invoices

import (
	"context"
	"errors"
	"time"

	"github.com/devSoft1007/netraAI-sub000/internal/derive"
	"github.com/devSoft1007/netraAI-sub000/internal/edgeapi"
	"github.com/devSoft1007/netraAI-sub000/internal/gateway"
	"github.com/devSoft1007/netraAI-sub000/internal/mutation"
	"github.com/devSoft1007/netraAI-sub000/internal/notify"
	"github.com/devSoft1007/netraAI-sub000/internal/querycache"
)

const (
	listResource   = "invoices"
	recordResource = "invoice"

	listStaleTime = 5 * time.Minute
)

var (
	// ErrMissingID guards single-record operations invoked without an id.
	ErrMissingID = errors.New("invoices: missing id")
	// ErrNoLines rejects creating an invoice with nothing on it.
	ErrNoLines = errors.New("invoices: at least one line is required")
)

// Line is one billed procedure on an invoice.
type Line struct {
	ProcedureID string  `json:"procedureId"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
}

// Invoice is the canonical domain shape.
type Invoice struct {
	ID              string       `json:"id"`
	Number          string       `json:"number"`
	PatientID       string       `json:"patientId"`
	AppointmentID   string       `json:"appointmentId"`
	Lines           []Line       `json:"lines"`
	Total           float64      `json:"total"`
	InsuranceAmount float64      `json:"insuranceAmount"`
	PatientAmount   float64      `json:"patientAmount"`
	Status          string       `json:"status"`
	IssuedAt        edgeapi.Date `json:"issuedAt"`
	DueAt           edgeapi.Date `json:"dueAt"`
	CreatedAt       time.Time    `json:"createdAt"`
}

// ListParams filter and paginate the invoice ledger.
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

// List is a page of invoices plus derived paging state.
type List struct {
	Invoices   []Invoice          `json:"invoices"`
	Count      int                `json:"count"`
	Pagination edgeapi.Pagination `json:"pagination"`
}

// CreateInput assembles an invoice from an appointment and its
// procedure lines.
type CreateInput struct {
	PatientID       string
	AppointmentID   string
	Lines           []Line
	InsuranceAmount float64
	DueAt           edgeapi.Date
}

// Total sums the line amounts.
func (in CreateInput) Total() float64 {
	var total float64
	for _, l := range in.Lines {
		qty := l.Quantity
		if qty < 1 {
			qty = 1
		}
		total += float64(qty) * l.UnitPrice
	}
	return total
}

// Service composes the cache and mutation layers for invoices.
type Service struct {
	gw    *gateway.Client
	cache *querycache.Client

	create   *mutation.Executor[CreateInput, *Invoice]
	markPaid *mutation.Executor[string, *Invoice]
}

// NewService wires the invoice service. Payment writes elsewhere
// invalidate the invoice list too, so the resources here mirror that.
func NewService(gw *gateway.Client, cache *querycache.Client, notifier notify.Notifier) *Service {
	s := &Service{gw: gw, cache: cache}
	s.create = mutation.NewExecutor(s.doCreate,
		mutation.InvalidateHooks[*Invoice](cache, notifier, "Invoice created", listResource))
	s.markPaid = mutation.NewExecutor(s.doMarkPaid,
		mutation.InvalidateHooks[*Invoice](cache, notifier, "Invoice marked paid", listResource, recordResource, "payments"))
	return s
}

// ListKey is the cache key for a ledger page.
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

// List returns a page of the ledger.
func (s *Service) List(ctx context.Context, p ListParams) (*List, error) {
	p = p.withDefaults()
	v, err := s.cache.Fetch(ctx, s.ListKey(p), func(ctx context.Context) (any, error) {
		query := edgeapi.Query(map[string]any{
			"page":       p.Page,
			"limit":      p.Limit,
			"patient_id": p.PatientID,
			"status":     p.Status,
			"from":       p.From,
			"to":         p.To,
		})
		var env edgeapi.Envelope[[]wireInvoice]
		if err := s.gw.GetJSON(ctx, "/get-invoices"+query, &env); err != nil {
			return nil, err
		}
		list := &List{
			Invoices:   make([]Invoice, 0, len(env.Data)),
			Count:      env.Count,
			Pagination: edgeapi.Paginate((p.Page-1)*p.Limit, p.Limit, env.Count),
		}
		for _, w := range env.Data {
			list.Invoices = append(list.Invoices, fromWire(w))
		}
		return list, nil
	}, querycache.QueryOptions{StaleTime: querycache.StaleFor(listStaleTime)})
	if err != nil {
		return nil, err
	}
	return edgeapi.As[*List](v)
}

// Get fetches one invoice; empty ids never reach the network.
func (s *Service) Get(ctx context.Context, id string) (*Invoice, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	key := querycache.NewKey(recordResource, map[string]any{"id": id})
	v, err := s.cache.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		var env edgeapi.Envelope[wireInvoice]
		if err := s.gw.GetJSON(ctx, "/get-invoice"+edgeapi.Query(map[string]any{"id": id}), &env); err != nil {
			return nil, err
		}
		inv := fromWire(env.Data)
		return &inv, nil
	}, querycache.QueryOptions{})
	if err != nil {
		return nil, err
	}
	return edgeapi.As[*Invoice](v)
}

// Create issues an invoice.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Invoice, error) {
	return s.create.Do(ctx, in)
}

func (s *Service) doCreate(ctx context.Context, in CreateInput) (*Invoice, error) {
	if in.PatientID == "" {
		return nil, errors.New("invoices: patient is required")
	}
	if len(in.Lines) == 0 {
		return nil, ErrNoLines
	}
	total := in.Total()
	lines := make([]map[string]any, 0, len(in.Lines))
	for _, l := range in.Lines {
		qty := l.Quantity
		if qty < 1 {
			qty = 1
		}
		lines = append(lines, map[string]any{
			"procedure_id": l.ProcedureID,
			"description":  l.Description,
			"quantity":     qty,
			"unit_price":   l.UnitPrice,
		})
	}
	payload := map[string]any{
		"patient_id":       in.PatientID,
		"appointment_id":   in.AppointmentID,
		"lines":            lines,
		"total":            total,
		"insurance_amount": in.InsuranceAmount,
		"patient_amount":   derive.OwedAmount(total, in.InsuranceAmount),
	}
	if !in.DueAt.IsZero() {
		payload["due_at"] = in.DueAt.String()
	}
	var env edgeapi.Envelope[wireInvoice]
	if err := s.gw.PostJSON(ctx, "/create-invoice", payload, &env); err != nil {
		return nil, err
	}
	inv := fromWire(env.Data)
	return &inv, nil
}

// MarkPaid settles an invoice. The payments list is invalidated too
// because settlement records a payment server-side.
func (s *Service) MarkPaid(ctx context.Context, id string) (*Invoice, error) {
	return s.markPaid.Do(ctx, id)
}

func (s *Service) doMarkPaid(ctx context.Context, id string) (*Invoice, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	var env edgeapi.Envelope[wireInvoice]
	if err := s.gw.PostJSON(ctx, "/mark-invoice-paid", map[string]any{"invoiceId": id}, &env); err != nil {
		return nil, err
	}
	inv := fromWire(env.Data)
	return &inv, nil
}
