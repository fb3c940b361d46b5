package slack

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/linnemanlabs/dispatch/internal/classify"
	"github.com/linnemanlabs/dispatch/internal/route"
	"github.com/linnemanlabs/dispatch/internal/triage"
)

func completeResult() *triage.Result {
	return &triage.Result{
		ID:       "01J0TEST",
		Status:   triage.StatusComplete,
		Alert:    "HighCPU",
		Resource: "i-0abc123",
		Verdict: &classify.Verdict{
			RootCause:        "runaway worker process",
			Severity:         "high",
			AutoRemediate:    true,
			RemediationSteps: []string{"restart worker"},
		},
		Routing: []route.Result{
			{Target: "servicenow", Status: route.StatusSuccess, TicketID: "INC001"},
			{Target: "pagerduty", Status: route.StatusUnknownTarget},
			{Target: "linear", Status: route.StatusError, Error: "connection refused"},
		},
		CreatedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		CompletedAt: time.Date(2026, 3, 1, 12, 0, 8, 0, time.UTC),
		Duration:    8.2,
		TokensUsed:  140,
	}
}

func TestSend_PostsBlocks(t *testing.T) {
	t.Parallel()

	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	n := New(srv.URL)
	if err := n.Send(context.Background(), completeResult()); err != nil {
		t.Fatalf("Send: %v", err)
	}

	blocks, ok := payload["blocks"].([]any)
	if !ok || len(blocks) == 0 {
		t.Fatalf("payload has no blocks: %v", payload)
	}

	raw, _ := json.Marshal(payload)
	for _, want := range []string{"Alert Routed", "HighCPU", "runaway worker process", "INC001", "unknown target", "connection refused", "restart worker"} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestSend_FailedRun(t *testing.T) {
	t.Parallel()

	var raw []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	n := New(srv.URL)
	err := n.Send(context.Background(), &triage.Result{
		ID:     "01J1FAIL",
		Status: triage.StatusFailed,
		Alert:  "DiskFull",
		Error:  "classification failed",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !strings.Contains(string(raw), "Triage Failed") {
		t.Error("failed run not flagged in header")
	}
}

func TestSend_EmptyURLIsNoop(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}))
	t.Cleanup(srv.Close)

	n := New("")
	if err := n.Send(context.Background(), completeResult()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if calls.Load() != 0 {
		t.Error("no-op notifier made an HTTP call")
	}
}

func TestSend_WebhookError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid_payload", http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	n := New(srv.URL)
	err := n.Send(context.Background(), completeResult())
	if err == nil {
		t.Fatal("expected error on 400 response")
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("error %q does not carry status code", err)
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	long := strings.Repeat("x", 50)
	got := truncate(long, 10)
	if len(got) > 14 { // limit plus ellipsis
		t.Errorf("truncate did not shorten: %d chars", len(got))
	}
}
