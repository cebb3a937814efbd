package patients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

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
	counting := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(f.requests, 1)
		f.mux.ServeHTTP(w, r)
	})
	ts := httptest.NewServer(counting)
	t.Cleanup(ts.Close)

	f.cache = querycache.NewClient(querycache.Options{})
	t.Cleanup(f.cache.Close)
	gw := gateway.NewClient(ts.URL, "anon", gateway.StaticToken("tok"), nil)
	f.svc = NewService(gw, f.cache, f.rec)
	return f
}

func patientsListHandler(records []map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    records,
			"count":   len(records),
		})
	}
}

func TestListPaginationDerivatives(t *testing.T) {
	f := newFixture(t)
	f.mux.HandleFunc("/get-patients", patientsListHandler([]map[string]any{
		{"id": "pat_1", "first_name": "Jane", "last_name": "Doe", "date_of_birth": "1990-04-12"},
		{"id": "pat_2", "name": "Arun Mehta"},
	}))

	list, err := f.svc.List(context.Background(), ListParams{Page: 1, Limit: 20})
	require.NoError(t, err)
	require.Len(t, list.Patients, 2)
	require.Equal(t, 2, list.Count)
	require.Equal(t, 1, list.Pagination.Page)
	require.Equal(t, 1, list.Pagination.TotalPages)
	require.False(t, list.Pagination.HasMore)

	// Wire shapes normalize once at the boundary.
	require.Equal(t, "Jane", list.Patients[0].FirstName)
	require.Equal(t, "1990-04-12", list.Patients[0].BirthDate.String())
	require.Equal(t, "Arun", list.Patients[1].FirstName)
	require.Equal(t, "Mehta", list.Patients[1].LastName)
}

func TestListServedFromCache(t *testing.T) {
	f := newFixture(t)
	f.mux.HandleFunc("/get-patients", patientsListHandler(nil))

	_, err := f.svc.List(context.Background(), ListParams{Page: 1, Limit: 20})
	require.NoError(t, err)
	_, err = f.svc.List(context.Background(), ListParams{Limit: 20, Page: 1})
	require.NoError(t, err)
	require.EqualValues(t, 1, atomic.LoadInt32(f.requests), "structurally equal params must share one request")
}

func TestGetEmptyIDFiresNoRequest(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Get(context.Background(), "")
	require.ErrorIs(t, err, ErrMissingID)
	require.EqualValues(t, 0, atomic.LoadInt32(f.requests))
}

func TestAddInvalidatesListAndNotifies(t *testing.T) {
	f := newFixture(t)
	f.mux.HandleFunc("/get-patients", patientsListHandler(nil))
	f.mux.HandleFunc("/create-patient", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"id": "pat_9", "first_name": "New", "last_name": "Patient"},
		})
	})

	_, err := f.svc.List(context.Background(), ListParams{})
	require.NoError(t, err)

	p, err := f.svc.Add(context.Background(), AddInput{FirstName: "New", LastName: "Patient"})
	require.NoError(t, err)
	require.Equal(t, "pat_9", p.ID)
	require.Equal(t, []string{"Patient added"}, f.rec.Successes())

	entry, ok := f.cache.Get(f.svc.ListKey(ListParams{}))
	require.True(t, ok)
	require.True(t, entry.Stale, "add must invalidate the patient list")
}

func TestEditFormSubmitsOnlyChangedFields(t *testing.T) {
	f := newFixture(t)
	f.mux.HandleFunc("/get-patient", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"id": "pat_1", "first_name": "Jane", "last_name": "Doe",
				"email": "jane@example.com", "date_of_birth": "1990-04-12",
			},
		})
	})
	var payload map[string]any
	f.mux.HandleFunc("/update-patient", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"id": "pat_1", "first_name": "Janet", "last_name": "Doe"},
		})
	})

	form, submit, err := f.svc.EditForm(context.Background(), "pat_1")
	require.NoError(t, err)
	require.NoError(t, form.Set("firstName", "Janet"))
	require.NoError(t, form.Save(context.Background(), submit))

	require.Equal(t, map[string]any{"patientId": "pat_1", "firstName": "Janet"}, payload,
		"payload must contain exactly the changed field plus the renamed identity")
	require.Equal(t, []string{"Patient updated"}, f.rec.Successes())
}

func TestUpdateFailureKeepsFormEditable(t *testing.T) {
	f := newFixture(t)
	f.mux.HandleFunc("/get-patient", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"id": "pat_1", "first_name": "Jane"},
		})
	})
	f.mux.HandleFunc("/update-patient", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Internal error", http.StatusInternalServerError)
	})

	form, submit, err := f.svc.EditForm(context.Background(), "pat_1")
	require.NoError(t, err)
	require.NoError(t, form.Set("firstName", "Janet"))

	err = form.Save(context.Background(), submit)
	require.Error(t, err)
	require.Equal(t, "500: Internal error", err.Error())
	require.Equal(t, []string{"500: Internal error"}, f.rec.Failures(), "failure surfaces as a notification")
	require.Equal(t, "Janet", form.Get("firstName"), "entered values survive a failed save")
}

func TestDeleteTranslatesID(t *testing.T) {
	f := newFixture(t)
	var payload map[string]any
	f.mux.HandleFunc("/delete-patient", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	})

	require.NoError(t, f.svc.Delete(context.Background(), "pat_1"))
	require.Equal(t, map[string]any{"patientId": "pat_1"}, payload)
}

func TestObserverRefetchesAfterMutation(t *testing.T) {
	f := newFixture(t)
	version := int32(0)
	f.mux.HandleFunc("/get-patients", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&version, 1)
		records := make([]map[string]any, n)
		for i := range records {
			records[i] = map[string]any{"id": "pat", "first_name": "P"}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": records, "count": len(records)})
	})
	f.mux.HandleFunc("/create-patient", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]any{"id": "pat_2"}})
	})

	params := ListParams{Page: 1, Limit: 20}
	var latest *List
	unsub := f.cache.Subscribe(f.svc.ListKey(params), func(ev querycache.Event) {
		if ev.Type == querycache.EventInvalidated {
			l, err := f.svc.List(context.Background(), params)
			require.NoError(t, err)
			latest = l
		}
	})
	defer unsub()

	first, err := f.svc.List(context.Background(), params)
	require.NoError(t, err)
	require.Equal(t, 1, first.Count)

	_, err = f.svc.Add(context.Background(), AddInput{FirstName: "New"})
	require.NoError(t, err)
	require.NotNil(t, latest, "observer must refetch on invalidation")
	require.Equal(t, 2, latest.Count, "observer sees fresh data without an explicit reload")
}
