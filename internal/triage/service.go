package triage

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/dispatch/internal/alert"
	"github.com/linnemanlabs/dispatch/internal/classify"
	"github.com/linnemanlabs/dispatch/internal/route"
)

var tracer = otel.Tracer("github.com/linnemanlabs/dispatch/internal/triage")

// SubmitResult is the outcome of submitting an alert for triage.
type SubmitResult struct {
	ID      string
	Skipped bool
	Reason  string
}

// Classifier produces the routing verdict for an alert record.
type Classifier interface {
	Classify(ctx context.Context, rec *alert.Record) (*classify.Verdict, *classify.Usage, error)
}

// Dispatcher fans a verdict out to the ticketing adapters.
type Dispatcher interface {
	Dispatch(ctx context.Context, rec *alert.Record, v *classify.Verdict) []route.Result
}

// Notifier is told about finished triage runs (Slack in production).
type Notifier interface {
	Send(ctx context.Context, result *Result) error
}

// Service is the business boundary for triage operations.
type Service struct {
	store      Store
	classifier Classifier
	router     Dispatcher
	logger     log.Logger
	metrics    *Metrics
	notifier   Notifier
}

// NewService creates a new triage service. metrics and notifier may be nil.
func NewService(store Store, classifier Classifier, router Dispatcher, logger log.Logger, metrics *Metrics, notifier Notifier) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{
		store:      store,
		classifier: classifier,
		router:     router,
		logger:     logger,
		metrics:    metrics,
		notifier:   notifier,
	}
}

// Submit accepts an alert record for triage, handling dedup and lifecycle.
func (s *Service) Submit(ctx context.Context, rec *alert.Record) (*SubmitResult, error) {
	// dedup: skip if this fingerprint is already pending or in progress
	if existing, ok, err := s.store.GetByFingerprint(ctx, rec.Fingerprint); err != nil {
		s.countSubmit("error")
		return nil, err
	} else if ok && (existing.Status == StatusPending || existing.Status == StatusInProgress) {
		s.countSubmit("duplicate")
		return &SubmitResult{Skipped: true, Reason: "duplicate"}, nil
	}

	id := ulid.Make().String()
	result := &Result{
		ID:          id,
		Fingerprint: rec.Fingerprint,
		Status:      StatusPending,
		Alert:       rec.Name,
		Severity:    rec.Severity,
		Resource:    rec.ResourceID,
		Summary:     rec.Summary,
		CreatedAt:   time.Now(),
	}

	if err := s.store.Put(ctx, result); err != nil {
		s.countSubmit("error")
		return nil, err
	}

	s.countSubmit("accepted")

	// run async - pass only the ID to avoid sharing the Result pointer.
	go s.run(context.WithoutCancel(ctx), id, rec)

	return &SubmitResult{ID: id}, nil
}

// Get retrieves a triage result by ID.
func (s *Service) Get(ctx context.Context, id string) (*Result, bool, error) {
	return s.store.Get(ctx, id)
}

// run is the sequential classify-then-route pipeline for one alert.
func (s *Service) run(ctx context.Context, id string, rec *alert.Record) {
	ctx, span := tracer.Start(ctx, "triage.run", trace.WithAttributes(
		attribute.String("dispatch.triage.id", id),
		attribute.String("dispatch.alert.name", rec.Name),
	))
	defer span.End()

	L := s.logger.With("triage_id", id, "alert", rec.Name)
	start := time.Now()

	result, ok, err := s.store.Get(ctx, id)
	if err != nil || !ok {
		L.Error(ctx, err, "failed to fetch result for triage")
		return
	}

	// A panic anywhere in classify or routing fails this alert only; it
	// must never take down the process.
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			L.Error(ctx, err, "triage run panicked", "stack", string(debug.Stack()))
			result.Status = StatusFailed
			result.Error = err.Error()
			s.finish(ctx, L, result, start, "panic")
		}
	}()

	result.Status = StatusInProgress
	if err := s.store.Put(ctx, result); err != nil {
		L.Error(ctx, err, "failed to update status to in_progress")
		return
	}

	verdict, usage, err := s.classifier.Classify(ctx, rec)
	if usage != nil {
		result.TokensUsed = usage.InputTokens + usage.OutputTokens
		result.Model = usage.Model
	}
	if err != nil {
		// Upstream and parse failures abort the whole alert: no partial
		// verdict, no routing.
		result.Status = StatusFailed
		result.Error = err.Error()
		s.finish(ctx, L, result, start, classifyOutcome(err))
		return
	}
	result.Verdict = verdict

	result.Routing = s.router.Dispatch(ctx, rec, verdict)

	result.Status = StatusComplete
	s.finish(ctx, L, result, start, "")
}

func (s *Service) finish(ctx context.Context, L log.Logger, result *Result, start time.Time, failure string) {
	result.CompletedAt = time.Now()
	result.Duration = time.Since(start).Seconds()

	if err := s.store.Put(ctx, result); err != nil {
		L.Error(ctx, err, "failed to persist triage result")
	}

	if s.metrics != nil {
		s.metrics.ObserveTriage(result, failure)
	}

	if s.notifier != nil {
		if err := s.notifier.Send(ctx, result); err != nil {
			L.Error(ctx, err, "notification failed")
		}
	}

	L.Info(ctx, "triage finished",
		"status", result.Status,
		"duration", result.Duration,
		"tokens", result.TokensUsed,
		"routing_results", len(result.Routing),
	)
}

func (s *Service) countSubmit(outcome string) {
	if s.metrics != nil {
		s.metrics.SubmitsTotal.WithLabelValues(outcome).Inc()
	}
}

func classifyOutcome(err error) string {
	var pe *classify.ParseError
	if errors.As(err, &pe) {
		return "parse_error"
	}
	var ue *classify.UpstreamError
	if errors.As(err, &ue) {
		return "upstream_error"
	}
	return "error"
}
