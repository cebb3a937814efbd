// Package procedures manages the clinic's billable procedure catalog.
package procedures

import (
	"context"
	"errors"
	"net/http"

	"github.com/devSoft1007/netraAI-sub000/internal/edgeapi"
	"github.com/devSoft1007/netraAI-sub000/internal/gateway"
	"github.com/devSoft1007/netraAI-sub000/internal/mutation"
	"github.com/devSoft1007/netraAI-sub000/internal/notify"
	"github.com/devSoft1007/netraAI-sub000/internal/querycache"
)

const listResource = "procedures"

// ErrMissingID guards record mutations invoked without an id.
var ErrMissingID = errors.New("procedures: missing id")

// Procedure is one catalog entry.
type Procedure struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	DurationMin int     `json:"durationMin"`
	Active      bool    `json:"active"`
}

// ListParams filter the catalog.
type ListParams struct {
	Page   int
	Limit  int
	Search string
	Active *bool
}

func (p ListParams) withDefaults() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 50
	}
	return p
}

// List is a page of the catalog.
type List struct {
	Procedures []Procedure        `json:"procedures"`
	Count      int                `json:"count"`
	Pagination edgeapi.Pagination `json:"pagination"`
}

type wireProcedure struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Code        string         `json:"code"`
	Description string         `json:"description"`
	Price       edgeapi.Number `json:"price"`
	DurationMin int            `json:"duration_min"`
	Active      bool           `json:"active"`
}

func fromWire(w wireProcedure) Procedure {
	return Procedure{
		ID:          w.ID,
		Name:        w.Name,
		Code:        w.Code,
		Description: w.Description,
		Price:       w.Price.Float(),
		DurationMin: w.DurationMin,
		Active:      w.Active,
	}
}

// AddInput creates a catalog entry.
type AddInput struct {
	Name        string
	Code        string
	Description string
	Price       float64
	DurationMin int
}

// Service composes the cache and mutation layers for the catalog.
type Service struct {
	gw    *gateway.Client
	cache *querycache.Client

	add    *mutation.Executor[AddInput, *Procedure]
	update *mutation.Executor[map[string]any, *Procedure]
	remove *mutation.Executor[string, struct{}]
}

// NewService wires the procedure service.
func NewService(gw *gateway.Client, cache *querycache.Client, notifier notify.Notifier) *Service {
	s := &Service{gw: gw, cache: cache}
	s.add = mutation.NewExecutor(s.doAdd,
		mutation.InvalidateHooks[*Procedure](cache, notifier, "Procedure added", listResource))
	s.update = mutation.NewExecutor(s.doUpdate,
		mutation.InvalidateHooks[*Procedure](cache, notifier, "Procedure updated", listResource))
	s.remove = mutation.NewExecutor(s.doDelete,
		mutation.InvalidateHooks[struct{}](cache, notifier, "Procedure deleted", listResource))
	return s
}

// ListKey is the cache key for a catalog page.
func (s *Service) ListKey(p ListParams) querycache.Key {
	p = p.withDefaults()
	params := map[string]any{"page": p.Page, "limit": p.Limit}
	if p.Search != "" {
		params["search"] = p.Search
	}
	if p.Active != nil {
		params["active"] = *p.Active
	}
	return querycache.NewKey(listResource, params)
}

// List returns a catalog page. The catalog rarely changes, so it uses
// the explicit-invalidation-only policy.
func (s *Service) List(ctx context.Context, p ListParams) (*List, error) {
	p = p.withDefaults()
	v, err := s.cache.Fetch(ctx, s.ListKey(p), func(ctx context.Context) (any, error) {
		query := map[string]any{
			"page":   p.Page,
			"limit":  p.Limit,
			"search": p.Search,
		}
		if p.Active != nil {
			query["active"] = *p.Active
		}
		var env edgeapi.Envelope[[]wireProcedure]
		if err := s.gw.GetJSON(ctx, "/get-procedures"+edgeapi.Query(query), &env); err != nil {
			return nil, err
		}
		list := &List{
			Procedures: make([]Procedure, 0, len(env.Data)),
			Count:      env.Count,
			Pagination: edgeapi.Paginate((p.Page-1)*p.Limit, p.Limit, env.Count),
		}
		for _, w := range env.Data {
			list.Procedures = append(list.Procedures, fromWire(w))
		}
		return list, nil
	}, querycache.QueryOptions{})
	if err != nil {
		return nil, err
	}
	return edgeapi.As[*List](v)
}

// Add creates a catalog entry.
func (s *Service) Add(ctx context.Context, in AddInput) (*Procedure, error) {
	return s.add.Do(ctx, in)
}

func (s *Service) doAdd(ctx context.Context, in AddInput) (*Procedure, error) {
	if in.Name == "" {
		return nil, errors.New("procedures: name is required")
	}
	payload := map[string]any{
		"name":         in.Name,
		"code":         in.Code,
		"description":  in.Description,
		"price":        in.Price,
		"duration_min": in.DurationMin,
	}
	var env edgeapi.Envelope[wireProcedure]
	if err := s.gw.PostJSON(ctx, "/create-procedure", payload, &env); err != nil {
		return nil, err
	}
	p := fromWire(env.Data)
	return &p, nil
}

// Update submits a dirty diff (identity under "id").
func (s *Service) Update(ctx context.Context, diff map[string]any) (*Procedure, error) {
	return s.update.Do(ctx, diff)
}

func (s *Service) doUpdate(ctx context.Context, diff map[string]any) (*Procedure, error) {
	if diff["id"] == nil || diff["id"] == "" {
		return nil, ErrMissingID
	}
	payload := make(map[string]any, len(diff)+1)
	for k, v := range diff {
		if k == "id" {
			payload["procedureId"] = v
			continue
		}
		payload[k] = v
	}
	var env edgeapi.Envelope[wireProcedure]
	if err := s.gw.DoJSON(ctx, http.MethodPatch, "/update-procedure", payload, &env); err != nil {
		return nil, err
	}
	p := fromWire(env.Data)
	return &p, nil
}

// Delete removes a catalog entry.
func (s *Service) Delete(ctx context.Context, id string) error {
	_, err := s.remove.Do(ctx, id)
	return err
}

func (s *Service) doDelete(ctx context.Context, id string) (struct{}, error) {
	if id == "" {
		return struct{}{}, ErrMissingID
	}
	err := s.gw.DeleteJSON(ctx, "/delete-procedure", map[string]any{"procedureId": id}, nil)
	return struct{}{}, err
}
