package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	httpadapter "github.com/ishanyash/btr-propflip/internal/adapter/http"
	"github.com/ishanyash/btr-propflip/internal/domain"
	"github.com/ishanyash/btr-propflip/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockReporter struct {
	result pipeline.Result
	err    error
	got    []pipeline.Request
}

func (m *mockReporter) Run(_ context.Context, req pipeline.Request) (pipeline.Result, error) {
	m.got = append(m.got, req)
	return m.result, m.err
}

func newTestServer(readyErr error) *httpadapter.Server {
	return httpadapter.NewServer(":0", &mockReporter{}, &mockReadiness{err: readyErr}, slog.Default())
}

func sampleResult() pipeline.Result {
	return pipeline.Result{
		Report: domain.Report{
			ID:    "6f0c4a9e-5b0e-4d7f-9a39-0c1b9d2e8f11",
			Score: domain.InvestmentScore{Total: 67.4, Category: "Above Average"},
		},
		Markdown: "# BTR Investment Report\n",
		PDF:      []byte("%PDF-1.3 fake"),
	}
}

func postReport(t *testing.T, srv http.Handler, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(fmt.Errorf("ppd: connection refused"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "ppd: connection refused", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestReportReturnsPDF(t *testing.T) {
	rep := &mockReporter{result: sampleResult()}
	srv := httpadapter.NewServer(":0", rep, &mockReadiness{}, slog.Default())

	rec := postReport(t, srv, "/reports", `{"address":"Buckingham Palace, London","postcode":"SW1A 1AA"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="btr-report-6f0c4a9e-5b0e-4d7f-9a39-0c1b9d2e8f11.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "6f0c4a9e-5b0e-4d7f-9a39-0c1b9d2e8f11", rec.Header().Get("X-Report-ID"))
	assert.Equal(t, "67.4", rec.Header().Get("X-Investment-Score"))
	assert.Equal(t, "%PDF-1.3 fake", rec.Body.String())
	assert.Equal(t, []pipeline.Request{{Address: "Buckingham Palace, London", Postcode: "SW1A 1AA"}}, rep.got)
}

func TestReportReturnsMarkdown(t *testing.T) {
	srv := httpadapter.NewServer(":0", &mockReporter{result: sampleResult()}, &mockReadiness{}, slog.Default())

	rec := postReport(t, srv, "/reports?format=markdown", `{"postcode":"SW1A 1AA"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "# BTR Investment Report\n", rec.Body.String())
}

func TestReportValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"empty object", `{}`, "address or postcode is required"},
		{"malformed", `{"address":`, "invalid JSON body"},
		{"unknown field", `{"address":"x","town":"London"}`, "invalid JSON body"},
		{"postcode too long", `{"postcode":"SW1A 1AA SW1A 1AA"}`, "postcode must be at most 10 characters"},
		{"address too long", `{"address":"` + strings.Repeat("a", 201) + `"}`, "address must be at most 200 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := &mockReporter{}
			srv := httpadapter.NewServer(":0", rep, &mockReadiness{}, slog.Default())

			rec := postReport(t, srv, "/reports", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, errorBody(t, rec), tt.wantErr)
			assert.Empty(t, rep.got)
		})
	}
}

func TestReportMissingCriticalDataReturns422(t *testing.T) {
	rep := &mockReporter{err: fmt.Errorf("geocode %q: %w", "Nowhere", domain.ErrMissingCriticalData)}
	srv := httpadapter.NewServer(":0", rep, &mockReadiness{}, slog.Default())

	rec := postReport(t, srv, "/reports", `{"address":"Nowhere"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, errorBody(t, rec), "missing critical data")
}

func TestReportFailureReturns500(t *testing.T) {
	rep := &mockReporter{err: errors.New("render report: boom")}
	srv := httpadapter.NewServer(":0", rep, &mockReadiness{}, slog.Default())

	rec := postReport(t, srv, "/reports", `{"address":"SW1A 1AA"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "report generation failed", errorBody(t, rec))
}

func TestReportRejectsGet(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
