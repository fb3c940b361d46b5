package alertapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/dispatch/internal/alert"
	"github.com/linnemanlabs/dispatch/internal/compliance"
	"github.com/linnemanlabs/dispatch/internal/triage"
)

// mockService implements TriageService for testing.
type mockService struct {
	mu        sync.Mutex
	submitted []*alert.Record
	submitErr error
	skip      bool
	results   map[string]*triage.Result
	getErr    error
	nextID    int
}

func newMockService() *mockService {
	return &mockService{results: make(map[string]*triage.Result)}
}

func (m *mockService) Submit(_ context.Context, rec *alert.Record) (*triage.SubmitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	if m.skip {
		return &triage.SubmitResult{Skipped: true, Reason: "duplicate"}, nil
	}
	m.submitted = append(m.submitted, rec)
	m.nextID++
	return &triage.SubmitResult{ID: fmt.Sprintf("id-%d", m.nextID)}, nil
}

func (m *mockService) Get(_ context.Context, id string) (*triage.Result, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	r, ok := m.results[id]
	return r, ok, nil
}

func newTestRouter(t *testing.T, svc TriageService, comp *compliance.Monitor) chi.Router {
	t.Helper()
	api := New(nil, svc, comp)
	r := chi.NewRouter()
	api.RegisterRoutes(r)
	return r
}

func TestNew_NilLogger(t *testing.T) {
	t.Parallel()

	api := New(nil, newMockService(), nil)
	if api.logger == nil {
		t.Fatal("New left logger nil; expected Nop logger")
	}
}

func TestNew_WithLogger(t *testing.T) {
	t.Parallel()

	api := New(log.Nop(), newMockService(), nil)
	if api.logger == nil {
		t.Fatal("New left logger nil")
	}
}

func TestNew_NilService_Panics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for nil service")
		}
	}()
	New(nil, nil, nil)
}

const webhookPayload = `{
	"receiver": "dispatch",
	"status": "firing",
	"commonLabels": {"env": "prod"},
	"alerts": [
		{
			"status": "firing",
			"fingerprint": "fp-a",
			"labels": {"alertname": "HighCPU", "severity": "critical", "instance": "web-01"},
			"annotations": {"summary": "CPU high"}
		},
		{
			"status": "firing",
			"fingerprint": "fp-b",
			"labels": {"alertname": "DiskFull", "severity": "warning"}
		}
	]
}`

func TestIngestAlert_Accepted(t *testing.T) {
	t.Parallel()

	svc := newMockService()
	r := newTestRouter(t, svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts", strings.NewReader(webhookPayload))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusAccepted, rec.Body.String())
	}

	var resp struct {
		Accepted []string `json:"accepted"`
		Skipped  int      `json:"skipped"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Accepted) != 2 || resp.Skipped != 0 {
		t.Errorf("response = %+v, want 2 accepted, 0 skipped", resp)
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	if len(svc.submitted) != 2 {
		t.Fatalf("submitted %d records, want 2", len(svc.submitted))
	}
	if svc.submitted[0].Name != "HighCPU" || svc.submitted[1].Name != "DiskFull" {
		t.Errorf("submitted = %v, %v", svc.submitted[0].Name, svc.submitted[1].Name)
	}
}

func TestIngestAlert_Duplicate(t *testing.T) {
	t.Parallel()

	svc := newMockService()
	svc.skip = true
	r := newTestRouter(t, svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts", strings.NewReader(webhookPayload))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}
	var resp struct {
		Accepted []string `json:"accepted"`
		Skipped  int      `json:"skipped"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Accepted) != 0 || resp.Skipped != 2 {
		t.Errorf("response = %+v, want 0 accepted, 2 skipped", resp)
	}
}

func TestIngestAlert_BadJSON(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, newMockService(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestGetTriage_Found(t *testing.T) {
	t.Parallel()

	svc := newMockService()
	svc.results["id-1"] = &triage.Result{ID: "id-1", Status: triage.StatusComplete, Alert: "HighCPU"}
	r := newTestRouter(t, svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/triage/id-1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var got triage.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ID != "id-1" || got.Status != triage.StatusComplete {
		t.Errorf("result = %+v", got)
	}
}

func TestGetTriage_NotFound(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, newMockService(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/triage/nope", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestGetTriage_StoreError(t *testing.T) {
	t.Parallel()

	svc := newMockService()
	svc.getErr = context.DeadlineExceeded
	r := newTestRouter(t, svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/triage/id-1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestGetCompliance_NotConfigured(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, newMockService(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/compliance", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestGetCompliance_Summary(t *testing.T) {
	t.Parallel()

	mon := compliance.NewMonitor(&compliance.Config{
		Rules: []compliance.Rule{{Name: "s3-bucket-public-read", Severity: "high"}},
	}, nil)
	mon.RecordEvent("s3-bucket-public-read", "bucket-1", "NON_COMPLIANT")

	r := newTestRouter(t, newMockService(), mon)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/compliance", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var got compliance.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Score != 0 {
		t.Errorf("score = %d, want 0 after a single violation", got.Score)
	}
	if len(got.Rules) != 1 || got.Rules[0].NonCompliant != 1 {
		t.Errorf("rules = %+v", got.Rules)
	}
}
