// Package slack sends triage summaries to Slack via incoming webhooks.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/linnemanlabs/dispatch/internal/route"
	"github.com/linnemanlabs/dispatch/internal/triage"
)

const (
	maxDescriptionLen = 3000
	httpTimeout       = 10 * time.Second
)

// Notifier sends triage results to a Slack webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
}

// New creates a new Slack notifier. If webhookURL is empty, Send is a no-op.
func New(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
	}
}

// Send posts a triage result to the configured Slack webhook.
// If no webhook URL is configured, it returns nil immediately.
func (n *Notifier) Send(ctx context.Context, result *triage.Result) error {
	if n.webhookURL == "" {
		return nil
	}

	msg := buildMessage(result)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func buildMessage(r *triage.Result) map[string]any {
	blocks := []map[string]any{
		headerBlock(r),
		{"type": "divider"},
		fieldsBlock(r),
	}
	if r.Verdict != nil {
		blocks = append(blocks, map[string]any{"type": "divider"}, verdictBlock(r))
	}
	if len(r.Routing) > 0 {
		blocks = append(blocks, map[string]any{"type": "divider"}, routingBlock(r))
	}
	blocks = append(blocks, map[string]any{"type": "divider"}, contextBlock(r))

	return map[string]any{"blocks": blocks}
}

func headerBlock(r *triage.Result) map[string]any {
	emoji := severityEmoji(r.Status, verdictSeverity(r))
	title := "Alert Routed"
	if r.Status == triage.StatusFailed {
		title = "Triage Failed"
	}
	text := fmt.Sprintf("%s %s: %s", emoji, title, r.Alert)

	return map[string]any{
		"type": "header",
		"text": map[string]any{
			"type": "plain_text",
			"text": text,
		},
	}
}

func fieldsBlock(r *triage.Result) map[string]any {
	tickets := 0
	for _, rr := range r.Routing {
		if rr.Status == route.StatusSuccess {
			tickets++
		}
	}

	fields := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Status:* %s", r.Status),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Severity:* %s", verdictSeverity(r)),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Tickets filed:* %d/%d", tickets, len(r.Routing)),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Duration:* %.1fs", r.Duration),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Tokens:* %d", r.TokensUsed),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Resource:* %s", orDash(r.Resource)),
		},
	}

	return map[string]any{
		"type":   "section",
		"fields": fields,
	}
}

func verdictBlock(r *triage.Result) map[string]any {
	v := r.Verdict
	text := fmt.Sprintf("*Root cause*\n\n%s", truncate(v.RootCause, maxDescriptionLen))
	if v.AutoRemediate && len(v.RemediationSteps) > 0 {
		text += "\n\n*Remediation steps*\n• " + strings.Join(v.RemediationSteps, "\n• ")
	}

	return map[string]any{
		"type": "section",
		"text": map[string]any{
			"type": "mrkdwn",
			"text": text,
		},
	}
}

func routingBlock(r *triage.Result) map[string]any {
	var lines []string
	for _, rr := range r.Routing {
		switch rr.Status {
		case route.StatusSuccess:
			lines = append(lines, fmt.Sprintf("✅ %s: %s", rr.Target, orDash(rr.TicketID)))
		case route.StatusUnknownTarget:
			lines = append(lines, fmt.Sprintf("❓ %s: unknown target", rr.Target))
		default:
			lines = append(lines, fmt.Sprintf("❌ %s: %s", rr.Target, truncate(rr.Error, 200)))
		}
	}

	return map[string]any{
		"type": "section",
		"text": map[string]any{
			"type": "mrkdwn",
			"text": "*Routing*\n" + strings.Join(lines, "\n"),
		},
	}
}

func contextBlock(r *triage.Result) map[string]any {
	ts := r.CompletedAt
	if ts.IsZero() {
		ts = r.CreatedAt
	}

	elements := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("dispatch • triage %s • %s", r.ID, ts.UTC().Format("2006-01-02 15:04 UTC")),
		},
	}

	return map[string]any{
		"type":     "context",
		"elements": elements,
	}
}

func verdictSeverity(r *triage.Result) string {
	if r.Verdict != nil && r.Verdict.Severity != "" {
		return r.Verdict.Severity
	}
	return r.Severity
}

func severityEmoji(status triage.Status, severity string) string {
	if status == triage.StatusFailed {
		return "\U0001f534" // red circle
	}
	switch strings.ToLower(severity) {
	case "critical", "high":
		return "\U0001f534" // red circle
	case "medium":
		return "\U0001f7e1" // yellow circle
	default:
		return "\U0001f7e2" // green circle
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
