package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/devSoft1007/netraAI-sub000/internal/edgeapi"
	"github.com/devSoft1007/netraAI-sub000/internal/gateway"
	"github.com/devSoft1007/netraAI-sub000/internal/notify"
	"github.com/devSoft1007/netraAI-sub000/internal/querycache"
)

type fixture struct {
	svc      *Service
	cache    *querycache.Client
	rec      *notify.Recorder
	requests *int32
	mux      *http.ServeMux
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		rec:      notify.NewRecorder(),
		requests: new(int32),
		mux:      http.NewServeMux(),
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(f.requests, 1)
		f.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(ts.Close)

	f.cache = querycache.NewClient(querycache.Options{})
	t.Cleanup(f.cache.Close)
	f.svc = NewService(gateway.NewClient(ts.URL, "anon", nil, nil), f.cache, f.rec)
	return f
}

func TestAddDerivesPatientAmount(t *testing.T) {
	f := newFixture(t)
	var payload map[string]any
	f.mux.HandleFunc("/create-payment", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"id": "pay_1", "amount": 500, "patient_amount": 300},
		})
	})

	p, err := f.svc.Add(context.Background(), AddInput{
		PatientID:       "pat_1",
		Amount:          500,
		InsuranceClaim:  true,
		InsuranceAmount: 200,
	})
	require.NoError(t, err)
	require.Equal(t, 300.0, p.PatientAmount)
	require.Equal(t, 300.0, payload["patientAmount"], "derived owed amount must reach the wire")
}

func TestAddKeepsExplicitPatientAmount(t *testing.T) {
	f := newFixture(t)
	var payload map[string]any
	f.mux.HandleFunc("/create-payment", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]any{"id": "pay_1"}})
	})

	explicit := 250.0
	_, err := f.svc.Add(context.Background(), AddInput{
		Amount:          500,
		InsuranceClaim:  true,
		InsuranceAmount: 200,
		PatientAmount:   &explicit,
	})
	require.NoError(t, err)
	require.Equal(t, 250.0, payload["patientAmount"], "explicit user input must never be overwritten")
}

func TestAddRejectsInvalidAmountBeforeNetwork(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Add(context.Background(), AddInput{Amount: 0})
	require.ErrorIs(t, err, ErrInvalidAmount)
	require.EqualValues(t, 0, atomic.LoadInt32(f.requests), "validation errors are caught before any network call")
}

func TestListParsesFlexibleNumbersAndInvalidates(t *testing.T) {
	f := newFixture(t)
	f.mux.HandleFunc("/get-payments", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": []map[string]any{
				{"id": "pay_1", "amount": "500.25", "insurance_amount": 200, "payment_date": "2026-08-30"},
			},
			"count": 1,
		})
	})
	f.mux.HandleFunc("/create-payment", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]any{"id": "pay_2"}})
	})

	list, err := f.svc.List(context.Background(), ListParams{})
	require.NoError(t, err)
	require.Equal(t, 500.25, list.Payments[0].Amount)
	require.Equal(t, "2026-08-30", list.Payments[0].Date.String())

	_, err = f.svc.Add(context.Background(), AddInput{Amount: 10})
	require.NoError(t, err)
	entry, ok := f.cache.Get(f.svc.ListKey(ListParams{}))
	require.True(t, ok)
	require.True(t, entry.Stale)
}

func TestListUsesFiveMinuteWindow(t *testing.T) {
	f := newFixture(t)
	f.mux.HandleFunc("/get-payments", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": []map[string]any{}, "count": 0})
	})

	_, err := f.svc.List(context.Background(), ListParams{})
	require.NoError(t, err)
	_, err = f.svc.List(context.Background(), ListParams{})
	require.NoError(t, err)
	require.EqualValues(t, 1, atomic.LoadInt32(f.requests), "a fresh entry within the window is served from cache")
}

func TestServerErrorSurfacesMessage(t *testing.T) {
	f := newFixture(t)
	f.mux.HandleFunc("/create-payment", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Internal error", http.StatusInternalServerError)
	})

	_, err := f.svc.Add(context.Background(), AddInput{Amount: 100})
	require.Error(t, err)
	require.Equal(t, "500: Internal error", err.Error())
	require.Equal(t, []string{"500: Internal error"}, f.rec.Failures())
}

func TestDateFilterReachesQueryString(t *testing.T) {
	f := newFixture(t)
	var gotQuery string
	f.mux.HandleFunc("/get-payments", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": []map[string]any{}, "count": 0})
	})

	from, _ := time.Parse("2006-01-02", "2026-08-01")
	_, err := f.svc.List(context.Background(), ListParams{From: edgeapi.NewDate(from)})
	require.NoError(t, err)
	require.Contains(t, gotQuery, "from=2026-08-01")
}
