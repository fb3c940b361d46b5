// Package classify turns an alert record into a routing verdict by asking
// an LLM provider for a structured JSON classification.
package classify

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/dispatch/internal/alert"
)

const (
	// ResponseTokens bounds the completion; verdicts are small.
	ResponseTokens = 2000

	defaultBackoff = 500 * time.Millisecond
)

// Request is the input to an LLM provider: a fixed system prompt plus the
// rendered alert details.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Completion is the raw output of an LLM provider.
type Completion struct {
	Text         string
	StopReason   string
	Model        string
	InputTokens  int
	OutputTokens int
}

// Provider is the interface for any LLM backend.
type Provider interface {
	Complete(ctx context.Context, req *Request) (*Completion, error)
}

// Hooks receives classification telemetry (wired to Prometheus by main).
type Hooks struct {
	// OnCall fires once per provider call with token counts and duration.
	OnCall func(inputTokens, outputTokens int, duration float64, outcome string)
}

// Classifier produces exactly one Verdict per alert record.
type Classifier struct {
	provider Provider
	logger   log.Logger
	retries  int
	backoff  time.Duration
	hooks    Hooks
}

// New creates a Classifier. retries is the number of extra attempts made
// after an upstream failure; parse failures are never retried.
func New(provider Provider, logger log.Logger, retries int, hooks Hooks) *Classifier {
	if logger == nil {
		logger = log.Nop()
	}
	if retries < 0 {
		retries = 0
	}
	return &Classifier{
		provider: provider,
		logger:   logger,
		retries:  retries,
		backoff:  defaultBackoff,
		hooks:    hooks,
	}
}

// Classify invokes the provider and parses its output into a Verdict.
// Returns *UpstreamError when every attempt failed at the provider, or
// *ParseError when the model output does not match the verdict schema.
func (c *Classifier) Classify(ctx context.Context, rec *alert.Record) (*Verdict, *Usage, error) {
	req := &Request{
		System:    buildSystemPrompt(),
		Prompt:    buildUserPrompt(rec),
		MaxTokens: ResponseTokens,
	}

	comp, err := c.complete(ctx, rec, req)
	if err != nil {
		return nil, nil, err
	}

	usage := &Usage{
		InputTokens:  comp.InputTokens,
		OutputTokens: comp.OutputTokens,
		Model:        comp.Model,
	}

	verdict, err := parseVerdict(comp.Text)
	if err != nil {
		return nil, usage, err
	}

	c.logger.Info(ctx, "verdict produced",
		"alert", rec.Name,
		"severity", verdict.Severity,
		"targets", verdict.Targets,
		"auto_remediate", verdict.AutoRemediate,
		"input_tokens", comp.InputTokens,
		"output_tokens", comp.OutputTokens,
	)

	return verdict, usage, nil
}

// complete calls the provider with bounded retry on upstream failures.
func (c *Classifier) complete(ctx context.Context, rec *alert.Record, req *Request) (*Completion, error) {
	var lastErr error

	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			backoff := c.backoff << (attempt - 1)
			c.logger.Warn(ctx, "retrying classification",
				"alert", rec.Name,
				"attempt", attempt+1,
				"backoff", backoff.String(),
			)
			select {
			case <-ctx.Done():
				return nil, &UpstreamError{Err: ctx.Err()}
			case <-time.After(backoff):
			}
		}

		start := time.Now()
		comp, err := c.provider.Complete(ctx, req)
		dur := time.Since(start).Seconds()

		if err != nil {
			lastErr = err
			if c.hooks.OnCall != nil {
				c.hooks.OnCall(0, 0, dur, "error")
			}
			c.logger.Error(ctx, err, "llm call failed", "alert", rec.Name, "attempt", attempt+1)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if c.hooks.OnCall != nil {
			c.hooks.OnCall(comp.InputTokens, comp.OutputTokens, dur, "success")
		}
		return comp, nil
	}

	return nil, &UpstreamError{Err: lastErr}
}

// parseVerdict decodes model output as strict JSON and validates the
// required fields. The severity string is lower-cased but deliberately not
// validated against the enum: downstream maps default unknowns to medium.
func parseVerdict(text string) (*Verdict, error) {
	body := stripFences(strings.TrimSpace(text))
	if body == "" {
		return nil, &ParseError{Reason: "empty model output"}
	}

	var v Verdict
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return nil, &ParseError{Reason: "invalid JSON", Output: snippet(body), Err: err}
	}

	var missing []string
	if v.RootCause == "" {
		missing = append(missing, "root_cause")
	}
	if v.Severity == "" {
		missing = append(missing, "severity")
	}
	if v.TicketSummary == "" {
		missing = append(missing, "ticket_summary")
	}
	if len(missing) > 0 {
		return nil, &ParseError{
			Reason: "missing required fields: " + strings.Join(missing, ", "),
			Output: snippet(body),
		}
	}

	v.Severity = strings.ToLower(strings.TrimSpace(v.Severity))
	return &v, nil
}

// stripFences removes a surrounding markdown code fence, which models add
// despite instructions to emit bare JSON.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func snippet(s string) string {
	const limit = 256
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
