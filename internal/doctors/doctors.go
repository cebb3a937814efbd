// Package doctors is the read-only directory of practitioners.
//
// The directory endpoint has drifted across deployments: older rows carry
// a single "name", newer ones "display_name" or split first/last fields.
// The adapter probes the variants once so the rest of the client only ever
// sees DisplayName.
package doctors

import (
	"context"
	"errors"
	"strings"

	"github.com/devSoft1007/netraAI-sub000/internal/edgeapi"
	"github.com/devSoft1007/netraAI-sub000/internal/gateway"
	"github.com/devSoft1007/netraAI-sub000/internal/querycache"
)

const (
	listResource   = "doctors"
	recordResource = "doctor"
)

// ErrMissingID guards single-record reads invoked without an id.
var ErrMissingID = errors.New("doctors: missing id")

// Doctor is the canonical domain shape.
type Doctor struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Specialty   string `json:"specialty"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Active      bool   `json:"active"`
}

// ListParams filter the directory.
type ListParams struct {
	Search    string
	Specialty string
}

// List is the directory response. The directory is small enough that the
// endpoint does not paginate.
type List struct {
	Doctors []Doctor `json:"doctors"`
	Count   int      `json:"count"`
}

type wireDoctor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Name        string `json:"name"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Specialty   string `json:"specialty"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Active      bool   `json:"active"`
}

// displayName probes the naming variants in precedence order.
func (w wireDoctor) displayName() string {
	if w.DisplayName != "" {
		return w.DisplayName
	}
	if w.Name != "" {
		return w.Name
	}
	return strings.TrimSpace(w.FirstName + " " + w.LastName)
}

func fromWire(w wireDoctor) Doctor {
	return Doctor{
		ID:          w.ID,
		DisplayName: w.displayName(),
		Specialty:   w.Specialty,
		Email:       w.Email,
		Phone:       w.Phone,
		Active:      w.Active,
	}
}

// Service is the read-side for the directory. Doctors are managed by an
// admin surface outside this client, so there are no mutations here.
type Service struct {
	gw    *gateway.Client
	cache *querycache.Client
}

// NewService wires the doctor directory.
func NewService(gw *gateway.Client, cache *querycache.Client) *Service {
	return &Service{gw: gw, cache: cache}
}

// ListKey is the cache key for a directory query.
func (s *Service) ListKey(p ListParams) querycache.Key {
	params := map[string]any{}
	if p.Search != "" {
		params["search"] = p.Search
	}
	if p.Specialty != "" {
		params["specialty"] = p.Specialty
	}
	return querycache.NewKey(listResource, params)
}

// List returns the directory, cached until explicitly invalidated.
func (s *Service) List(ctx context.Context, p ListParams) (*List, error) {
	v, err := s.cache.Fetch(ctx, s.ListKey(p), func(ctx context.Context) (any, error) {
		query := edgeapi.Query(map[string]any{
			"search":    p.Search,
			"specialty": p.Specialty,
		})
		var env edgeapi.Envelope[[]wireDoctor]
		if err := s.gw.GetJSON(ctx, "/get-doctors"+query, &env); err != nil {
			return nil, err
		}
		list := &List{Doctors: make([]Doctor, 0, len(env.Data)), Count: env.Count}
		if list.Count == 0 {
			list.Count = len(env.Data)
		}
		for _, w := range env.Data {
			list.Doctors = append(list.Doctors, fromWire(w))
		}
		return list, nil
	}, querycache.QueryOptions{})
	if err != nil {
		return nil, err
	}
	return edgeapi.As[*List](v)
}

// Get fetches one practitioner; empty ids never reach the network.
func (s *Service) Get(ctx context.Context, id string) (*Doctor, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	key := querycache.NewKey(recordResource, map[string]any{"id": id})
	v, err := s.cache.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		var env edgeapi.Envelope[wireDoctor]
		if err := s.gw.GetJSON(ctx, "/get-doctor"+edgeapi.Query(map[string]any{"id": id}), &env); err != nil {
			return nil, err
		}
		d := fromWire(env.Data)
		return &d, nil
	}, querycache.QueryOptions{})
	if err != nil {
		return nil, err
	}
	return edgeapi.As[*Doctor](v)
}
