// Package route dispatches a verdict to its target ticketing systems,
// collecting one result per target. A failing adapter never aborts the
// remaining targets; that isolation is the contract of this package.
package route

import (
	"context"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/dispatch/internal/alert"
	"github.com/linnemanlabs/dispatch/internal/classify"
	"github.com/linnemanlabs/dispatch/internal/ticket"
)

// Status is the per-target outcome of a routing batch.
type Status string

const (
	StatusSuccess       Status = "success"
	StatusError         Status = "error"
	StatusUnknownTarget Status = "unknown_target"
)

// Result records the outcome of one adapter call.
type Result struct {
	Target   string `json:"target"`
	Status   Status `json:"status"`
	TicketID string `json:"ticket_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Hooks receives routing telemetry (wired to Prometheus by main).
type Hooks struct {
	// OnAdapterCall fires once per adapter invocation.
	OnAdapterCall func(target string, duration float64, status Status)
}

// Router fans a verdict out to the registered adapters.
type Router struct {
	registry    *ticket.Registry
	remediation *ticket.Remediation
	callTimeout time.Duration
	batchBudget time.Duration
	logger      log.Logger
	hooks       Hooks
}

// New creates a Router. remediation may be nil, in which case verdicts
// asking for auto-remediation get an error result for it. batchBudget of
// zero disables the whole-batch deadline.
func New(registry *ticket.Registry, remediation *ticket.Remediation, callTimeout, batchBudget time.Duration, logger log.Logger, hooks Hooks) *Router {
	if logger == nil {
		logger = log.Nop()
	}
	if callTimeout <= 0 {
		callTimeout = ticket.DefaultTimeout
	}
	return &Router{
		registry:    registry,
		remediation: remediation,
		callTimeout: callTimeout,
		batchBudget: batchBudget,
		logger:      logger,
		hooks:       hooks,
	}
}

// Dispatch invokes the adapter for each verdict target in order, then the
// remediation trigger when the verdict asks for it. Every target yields
// exactly one Result; unknown targets pass through as unknown_target.
func (r *Router) Dispatch(ctx context.Context, rec *alert.Record, v *classify.Verdict) []Result {
	if r.batchBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.batchBudget)
		defer cancel()
	}

	results := make([]Result, 0, len(v.Targets)+1)

	for _, target := range v.Targets {
		ad, ok := r.registry.Get(target)
		if !ok {
			r.logger.Warn(ctx, "unknown routing target", "target", target, "alert", rec.Name)
			results = append(results, Result{Target: target, Status: StatusUnknownTarget})
			continue
		}
		results = append(results, r.call(ctx, rec, v, target, func(cctx context.Context) (string, error) {
			return ad.Create(cctx, rec, v)
		}))
	}

	if v.AutoRemediate {
		if r.remediation == nil {
			results = append(results, Result{
				Target: "auto-remediation",
				Status: StatusError,
				Error:  "remediation endpoint not configured",
			})
		} else {
			results = append(results, r.call(ctx, rec, v, r.remediation.Target(), func(cctx context.Context) (string, error) {
				return r.remediation.Trigger(cctx, rec, v)
			}))
		}
	}

	return results
}

// call runs one adapter with its own timeout and downgrades any failure
// to an error Result so the rest of the batch keeps going.
func (r *Router) call(ctx context.Context, rec *alert.Record, v *classify.Verdict, target string, fn func(context.Context) (string, error)) Result {
	cctx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	start := time.Now()
	id, err := fn(cctx)
	dur := time.Since(start).Seconds()

	res := Result{Target: target}
	if err != nil {
		res.Status = StatusError
		res.Error = err.Error()
		r.logger.Error(ctx, err, "adapter call failed", "target", target, "alert", rec.Name)
	} else {
		res.Status = StatusSuccess
		res.TicketID = id
		r.logger.Info(ctx, "adapter call succeeded",
			"target", target,
			"alert", rec.Name,
			"ticket_id", id,
			"severity", v.Severity,
		)
	}

	if r.hooks.OnAdapterCall != nil {
		r.hooks.OnAdapterCall(target, dur, res.Status)
	}
	return res
}
