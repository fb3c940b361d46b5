// Package alert models inbound alerting-system webhooks and the
// immutable alert record the rest of the pipeline works with.
package alert

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// WebhookAlert is a single alert entry inside a webhook payload.
type WebhookAlert struct {
	Status      string            `json:"status"`
	Fingerprint string            `json:"fingerprint"`
	Labels      map[string]string `json:"labels"`
	Annotations map[string]string `json:"annotations"`
	StartsAt    time.Time         `json:"startsAt"`
}

// Webhook is the alertmanager-style payload posted to the ingest endpoint.
// Some senders deliver individual alerts, others only the aggregated
// commonLabels/commonAnnotations view; both shapes are accepted.
type Webhook struct {
	Receiver          string            `json:"receiver"`
	Status            string            `json:"status"`
	Alerts            []WebhookAlert    `json:"alerts"`
	CommonLabels      map[string]string `json:"commonLabels"`
	CommonAnnotations map[string]string `json:"commonAnnotations"`
}

// Record is one alert as seen by the classifier and the adapters.
// Fields are fixed at construction and never mutated afterwards.
type Record struct {
	Name        string          `json:"alert_name"`
	Severity    string          `json:"severity"`
	Instance    string          `json:"instance"`
	ResourceID  string          `json:"resource_id"`
	Description string          `json:"description"`
	Summary     string          `json:"summary"`
	ReceivedAt  time.Time       `json:"timestamp"`
	Raw         json.RawMessage `json:"raw_alert,omitempty"`

	Fingerprint string `json:"-"`
}

// Records extracts one Record per firing alert from the webhook. If the
// payload carries no per-alert entries, a single record is built from the
// common labels and annotations.
func Records(wh *Webhook, raw json.RawMessage, now time.Time) []*Record {
	if len(wh.Alerts) == 0 {
		if len(wh.CommonLabels) == 0 && len(wh.CommonAnnotations) == 0 {
			return nil
		}
		r := fromLabels(wh.CommonLabels, wh.CommonAnnotations, raw, now)
		if wh.Status != "" && wh.Status != "firing" {
			return nil
		}
		return []*Record{r}
	}

	var out []*Record
	for _, al := range wh.Alerts {
		if al.Status != "firing" {
			continue
		}
		labels := merged(wh.CommonLabels, al.Labels)
		annotations := merged(wh.CommonAnnotations, al.Annotations)
		r := fromLabels(labels, annotations, raw, now)
		if al.Fingerprint != "" {
			r.Fingerprint = al.Fingerprint
		}
		out = append(out, r)
	}
	return out
}

func fromLabels(labels, annotations map[string]string, raw json.RawMessage, now time.Time) *Record {
	r := &Record{
		Name:        labels["alertname"],
		Severity:    labels["severity"],
		Instance:    labels["instance"],
		ResourceID:  labels["resource_id"],
		Description: annotations["description"],
		Summary:     annotations["summary"],
		ReceivedAt:  now,
		Raw:         raw,
	}
	r.Fingerprint = fingerprint(r)
	return r
}

// fingerprint derives a stable dedup key for payloads that carry none.
func fingerprint(r *Record) string {
	h := sha256.New()
	for _, s := range []string{r.Name, r.Severity, r.Instance, r.ResourceID} {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func merged(common, own map[string]string) map[string]string {
	if len(common) == 0 {
		return own
	}
	out := make(map[string]string, len(common)+len(own))
	for k, v := range common {
		out[k] = v
	}
	for k, v := range own {
		out[k] = v
	}
	return out
}
