package main

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devSoft1007/netraAI-sub000/pkg/logging"
)

func newTestServer(t *testing.T) (*server, *httptest.Server) {
	t.Helper()
	s := newServer(logging.NewWithWriter(io.Discard, "error"))
	ts := httptest.NewServer(s.routes())
	t.Cleanup(ts.Close)
	return s, ts
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestPatientLifecycle(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/create-patient", "application/json",
		strings.NewReader(`{"first_name":"Janet","last_name":"Mwangi","status":"active"}`))
	require.NoError(t, err)
	created := decode(t, resp)
	require.Equal(t, true, created["success"])
	id := created["data"].(map[string]any)["id"].(string)
	require.NotEmpty(t, id)

	resp, err = http.Get(ts.URL + "/get-patients?search=janet")
	require.NoError(t, err)
	listed := decode(t, resp)
	require.EqualValues(t, 1, listed["count"])

	req, _ := http.NewRequest(http.MethodPatch, ts.URL+"/update-patient",
		strings.NewReader(`{"patientId":"`+id+`","first_name":"Janet-Rose"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	updated := decode(t, resp)
	require.Equal(t, "Janet-Rose", updated["data"].(map[string]any)["first_name"])

	resp, err = http.Get(ts.URL + "/get-patient?id=missing")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	notFound := decode(t, resp)
	require.Equal(t, false, notFound["success"])
}

func TestMarkInvoicePaidRecordsPayment(t *testing.T) {
	s, ts := newTestServer(t)
	inv := s.store.insert("invoices", record{
		"patient_id":     "pat_1",
		"patient_amount": 300.0,
		"status":         "open",
	})

	resp, err := http.Post(ts.URL+"/mark-invoice-paid", "application/json",
		strings.NewReader(`{"invoiceId":"`+inv["id"].(string)+`"}`))
	require.NoError(t, err)
	body := decode(t, resp)
	require.Equal(t, "paid", body["data"].(map[string]any)["status"])

	payments := s.store.list("payments", nil)
	require.Len(t, payments, 1)
	require.Equal(t, 300.0, payments[0]["amount"])
}

func TestDiagnoseRejectsAmbiguousInput(t *testing.T) {
	_, ts := newTestServer(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "fundus.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("png-bytes"))
	require.NoError(t, w.WriteField("img_url", "https://img.example/x.png"))
	require.NoError(t, w.Close())

	resp, err := http.Post(ts.URL+"/api/ai-diagnoses", w.FormDataContentType(), &buf)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode(t, resp)
	require.Equal(t, "Provide either file or img_url, not both", body["error"])
}

func TestDiagnoseReturnsBothFindings(t *testing.T) {
	_, ts := newTestServer(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "fundus.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("png-bytes"))
	require.NoError(t, w.Close())

	resp, err := http.Post(ts.URL+"/api/ai-diagnoses", w.FormDataContentType(), &buf)
	require.NoError(t, err)
	body := decode(t, resp)
	dr := body["diabetic_retinopathy"].(map[string]any)
	require.Contains(t, drClasses, dr["prediction"])
	require.NotEmpty(t, dr["doctor_note"])
	meta := body["meta"].(map[string]any)
	require.Equal(t, "file", meta["input_source"])
}
