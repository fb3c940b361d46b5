package alert

import (
	"encoding/json"
	"testing"
	"time"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestRecords_PerAlertEntries(t *testing.T) {
	t.Parallel()

	wh := &Webhook{
		Status:       "firing",
		CommonLabels: map[string]string{"env": "prod", "severity": "warning"},
		Alerts: []WebhookAlert{
			{
				Status:      "firing",
				Fingerprint: "fp-a",
				Labels:      map[string]string{"alertname": "HighCPU", "instance": "web-01", "resource_id": "i-1"},
				Annotations: map[string]string{"summary": "CPU high"},
			},
			{
				Status: "resolved",
				Labels: map[string]string{"alertname": "HighCPU", "instance": "web-02"},
			},
			{
				Status:      "firing",
				Labels:      map[string]string{"alertname": "DiskFull", "severity": "critical"},
				Annotations: map[string]string{"description": "disk at 97%"},
			},
		},
	}

	raw := json.RawMessage(`{"receiver":"dispatch"}`)
	recs := Records(wh, raw, now)

	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2 (resolved alert dropped)", len(recs))
	}

	r := recs[0]
	if r.Name != "HighCPU" || r.Instance != "web-01" || r.ResourceID != "i-1" {
		t.Errorf("record[0] = %+v", r)
	}
	if r.Severity != "warning" {
		t.Errorf("severity = %q, want common label %q", r.Severity, "warning")
	}
	if r.Summary != "CPU high" {
		t.Errorf("summary = %q", r.Summary)
	}
	if r.Fingerprint != "fp-a" {
		t.Errorf("fingerprint = %q, want sender-supplied %q", r.Fingerprint, "fp-a")
	}
	if !r.ReceivedAt.Equal(now) {
		t.Errorf("received at = %v", r.ReceivedAt)
	}
	if string(r.Raw) != string(raw) {
		t.Error("raw payload not preserved")
	}

	// per-alert labels override common labels
	if recs[1].Severity != "critical" {
		t.Errorf("record[1].Severity = %q, want per-alert override", recs[1].Severity)
	}
	if recs[1].Description != "disk at 97%" {
		t.Errorf("record[1].Description = %q", recs[1].Description)
	}
}

func TestRecords_CommonLabelsOnly(t *testing.T) {
	t.Parallel()

	wh := &Webhook{
		Status:            "firing",
		CommonLabels:      map[string]string{"alertname": "NodeDown", "severity": "critical", "instance": "node-3"},
		CommonAnnotations: map[string]string{"summary": "node unreachable"},
	}

	recs := Records(wh, nil, now)
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	r := recs[0]
	if r.Name != "NodeDown" || r.Severity != "critical" || r.Summary != "node unreachable" {
		t.Errorf("record = %+v", r)
	}
	if r.Fingerprint == "" {
		t.Error("expected derived fingerprint")
	}
}

func TestRecords_ResolvedCommonOnlyDropped(t *testing.T) {
	t.Parallel()

	wh := &Webhook{
		Status:       "resolved",
		CommonLabels: map[string]string{"alertname": "NodeDown"},
	}
	if recs := Records(wh, nil, now); len(recs) != 0 {
		t.Errorf("got %d records for resolved payload, want 0", len(recs))
	}
}

func TestRecords_EmptyPayload(t *testing.T) {
	t.Parallel()

	if recs := Records(&Webhook{}, nil, now); recs != nil {
		t.Errorf("got %v for empty payload, want nil", recs)
	}
}

func TestFingerprint_StableAndDistinct(t *testing.T) {
	t.Parallel()

	labels := map[string]string{"alertname": "HighCPU", "severity": "high", "instance": "web-01"}

	a := fromLabels(labels, nil, nil, now)
	b := fromLabels(labels, nil, nil, now.Add(time.Hour))
	if a.Fingerprint != b.Fingerprint {
		t.Error("fingerprint changed for identical identity labels")
	}
	if len(a.Fingerprint) != 16 {
		t.Errorf("fingerprint length = %d, want 16", len(a.Fingerprint))
	}

	other := map[string]string{"alertname": "HighCPU", "severity": "high", "instance": "web-02"}
	c := fromLabels(other, nil, nil, now)
	if c.Fingerprint == a.Fingerprint {
		t.Error("different instances produced the same fingerprint")
	}
}
