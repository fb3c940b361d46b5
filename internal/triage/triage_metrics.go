package triage

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/linnemanlabs/dispatch/internal/classify"
	"github.com/linnemanlabs/dispatch/internal/route"
)

// Metrics holds Prometheus metrics for the triage pipeline.
type Metrics struct {
	TriagesTotal        *prometheus.CounterVec
	TriageDuration      *prometheus.HistogramVec
	TriageFailuresTotal *prometheus.CounterVec
	SubmitsTotal        *prometheus.CounterVec

	LLMCallsTotal *prometheus.CounterVec
	LLMTokensIn   prometheus.Counter
	LLMTokensOut  prometheus.Counter
	LLMDuration   prometheus.Histogram

	AdapterCallsTotal   *prometheus.CounterVec
	AdapterDuration     *prometheus.HistogramVec
	RoutingResultsTotal *prometheus.CounterVec
}

// NewMetrics registers and returns triage metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TriagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_triages_total",
			Help: "Total triage runs by final status.",
		}, []string{"status"}),
		TriageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dispatch_triage_duration_seconds",
			Help:    "Duration of triage runs in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s .. ~256s
		}, []string{"status"}),
		TriageFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_triage_failures_total",
			Help: "Failed triage runs by failure class.",
		}, []string{"reason"}),
		SubmitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_submits_total",
			Help: "Total alert submissions by result.",
		}, []string{"result"}),
		LLMCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_llm_calls_total",
			Help: "Total LLM provider calls by outcome.",
		}, []string{"outcome"}),
		LLMTokensIn: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_llm_tokens_input_total",
			Help: "Total LLM input tokens consumed.",
		}),
		LLMTokensOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_llm_tokens_output_total",
			Help: "Total LLM output tokens consumed.",
		}),
		LLMDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dispatch_llm_call_duration_seconds",
			Help:    "Duration of individual LLM calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8), // 0.5s .. ~64s
		}),
		AdapterCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_adapter_calls_total",
			Help: "Total ticketing adapter calls by target and status.",
		}, []string{"target", "status"}),
		AdapterDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dispatch_adapter_duration_seconds",
			Help:    "Duration of ticketing adapter calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms .. ~25s
		}, []string{"target"}),
		RoutingResultsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_routing_results_total",
			Help: "Routing results recorded per batch, by status.",
		}, []string{"status"}),
	}

	reg.MustRegister(
		m.TriagesTotal,
		m.TriageDuration,
		m.TriageFailuresTotal,
		m.SubmitsTotal,
		m.LLMCallsTotal,
		m.LLMTokensIn,
		m.LLMTokensOut,
		m.LLMDuration,
		m.AdapterCallsTotal,
		m.AdapterDuration,
		m.RoutingResultsTotal,
	)

	return m
}

// ClassifyHooks returns hooks that feed the LLM call metrics.
func (m *Metrics) ClassifyHooks() classify.Hooks {
	return classify.Hooks{
		OnCall: func(inputTokens, outputTokens int, duration float64, outcome string) {
			m.LLMCallsTotal.WithLabelValues(outcome).Inc()
			m.LLMTokensIn.Add(float64(inputTokens))
			m.LLMTokensOut.Add(float64(outputTokens))
			m.LLMDuration.Observe(duration)
		},
	}
}

// RouteHooks returns hooks that feed the adapter call metrics.
func (m *Metrics) RouteHooks() route.Hooks {
	return route.Hooks{
		OnAdapterCall: func(target string, duration float64, status route.Status) {
			m.AdapterCallsTotal.WithLabelValues(target, string(status)).Inc()
			m.AdapterDuration.WithLabelValues(target).Observe(duration)
		},
	}
}

// ObserveTriage records the terminal metrics for one finished run.
func (m *Metrics) ObserveTriage(result *Result, failure string) {
	m.TriagesTotal.WithLabelValues(string(result.Status)).Inc()
	m.TriageDuration.WithLabelValues(string(result.Status)).Observe(result.Duration)
	if failure != "" {
		m.TriageFailuresTotal.WithLabelValues(failure).Inc()
	}
	for _, rr := range result.Routing {
		m.RoutingResultsTotal.WithLabelValues(string(rr.Status)).Inc()
	}
}
