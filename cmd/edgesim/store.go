package main

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// record is a snake_case row as the hosted edge functions would store it.
type record map[string]any

// store is the in-memory stand-in for the hosted database. Collections are
// keyed by entity name, rows by id.
type store struct {
	mu          sync.RWMutex
	collections map[string]map[string]record
	counters    map[string]int
}

func newStore() *store {
	return &store{
		collections: make(map[string]map[string]record),
		counters:    make(map[string]int),
	}
}

func (s *store) insert(collection string, r record) record {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]record)
	}
	if r["id"] == nil || r["id"] == "" {
		r["id"] = uuid.NewString()
	}
	if r["created_at"] == nil {
		r["created_at"] = time.Now().UTC().Format(time.RFC3339)
	}
	s.counters[collection]++
	s.collections[collection][r["id"].(string)] = r
	return r
}

func (s *store) get(collection, id string) (record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.collections[collection][id]
	if !ok {
		return nil, false
	}
	return cloneRecord(r), true
}

func (s *store) update(collection, id string, patch record) (record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.collections[collection][id]
	if !ok {
		return nil, false
	}
	for k, v := range patch {
		r[k] = v
	}
	r["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	return cloneRecord(r), true
}

func (s *store) delete(collection, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[collection][id]; !ok {
		return false
	}
	delete(s.collections[collection], id)
	return true
}

// list returns the rows matching every filter, ordered by created_at then
// id for a stable pagination window.
func (s *store) list(collection string, match func(record) bool) []record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []record
	for _, r := range s.collections[collection] {
		if match == nil || match(r) {
			out = append(out, cloneRecord(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := out[i]["created_at"].(string)
		b, _ := out[j]["created_at"].(string)
		if a != b {
			return a < b
		}
		ai, _ := out[i]["id"].(string)
		bi, _ := out[j]["id"].(string)
		return ai < bi
	})
	return out
}

func cloneRecord(r record) record {
	out := make(record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// containsFold reports whether any of the row's values contains the needle,
// case-insensitively. Good enough for the simulator's search filters.
func containsFold(r record, fields []string, needle string) bool {
	if needle == "" {
		return true
	}
	needle = strings.ToLower(needle)
	for _, f := range fields {
		if v, ok := r[f].(string); ok && strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

func pageSlice(rows []record, page, limit int) []record {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	start := (page - 1) * limit
	if start >= len(rows) {
		return []record{}
	}
	end := start + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}
