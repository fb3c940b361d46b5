// Package compliance tracks configuration-compliance events and computes
// the weighted compliance score exposed over metrics and the API.
package compliance

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"
)

// Rule pairs a compliance rule with the severity its violations carry.
type Rule struct {
	Name     string `yaml:"rule_name"`
	Severity string `yaml:"severity"`
}

// Config is the on-disk rule catalog and severity weighting.
type Config struct {
	Rules   []Rule         `yaml:"compliance_rules"`
	Scoring map[string]int `yaml:"scoring"`
}

// LoadConfig reads and parses the YAML rule configuration.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // G304: path is from trusted config
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	for i, r := range cfg.Rules {
		if r.Name == "" {
			return nil, fmt.Errorf("rule %d: missing rule_name", i)
		}
	}
	return &cfg, nil
}

// ruleCounts accumulates evaluation results for one rule.
type ruleCounts struct {
	compliant    int
	nonCompliant int
}

// Monitor holds the live rule catalog and event counts. Safe for
// concurrent use.
type Monitor struct {
	mu         sync.RWMutex
	severities map[string]string // rule name -> severity
	weights    map[string]int    // severity -> weight
	counts     map[string]*ruleCounts

	scoreGauge prometheus.Gauge
	resources  *prometheus.CounterVec
	violations *prometheus.CounterVec
}

// NewMonitor creates a Monitor from cfg and registers its metrics.
// reg may be nil to skip metric registration (tests).
func NewMonitor(cfg *Config, reg prometheus.Registerer) *Monitor {
	m := &Monitor{
		counts: make(map[string]*ruleCounts),
		scoreGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dispatch_compliance_score",
			Help: "Weighted compliance score, 0-100.",
		}),
		resources: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_compliance_resources_total",
			Help: "Compliance evaluation results by state.",
		}, []string{"state"}),
		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_compliance_violations_total",
			Help: "Compliance violations by rule severity.",
		}, []string{"severity"}),
	}
	m.SetConfig(cfg)
	m.scoreGauge.Set(100)

	if reg != nil {
		reg.MustRegister(m.scoreGauge, m.resources, m.violations)
	}
	return m
}

// SetConfig swaps in a new rule catalog. Existing event counts are kept;
// only severities and weights change.
func (m *Monitor) SetConfig(cfg *Config) {
	severities := make(map[string]string, len(cfg.Rules))
	for _, r := range cfg.Rules {
		severities[r.Name] = r.Severity
	}

	m.mu.Lock()
	m.severities = severities
	m.weights = cfg.Scoring
	m.recomputeLocked()
	m.mu.Unlock()
}

// RecordEvent records one compliance evaluation result and refreshes the
// score gauge. complianceType is COMPLIANT or NON_COMPLIANT; anything else
// is ignored.
func (m *Monitor) RecordEvent(rule, resourceID, complianceType string) {
	_ = resourceID // identity is not tracked, only counts

	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.counts[rule]
	if c == nil {
		c = &ruleCounts{}
		m.counts[rule] = c
	}

	switch complianceType {
	case "COMPLIANT":
		c.compliant++
		m.resources.WithLabelValues("compliant").Inc()
	case "NON_COMPLIANT":
		c.nonCompliant++
		m.resources.WithLabelValues("non_compliant").Inc()
		m.violations.WithLabelValues(m.severityLocked(rule)).Inc()
	default:
		return
	}

	m.recomputeLocked()
}

// Score returns the current weighted compliance score, 0-100.
func (m *Monitor) Score() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.scoreLocked()
}

// RuleSummary is the per-rule slice of the compliance summary.
type RuleSummary struct {
	Rule         string `json:"rule"`
	Severity     string `json:"severity"`
	Compliant    int    `json:"compliant"`
	NonCompliant int    `json:"non_compliant"`
}

// Summary is the payload served by the compliance API endpoint.
type Summary struct {
	Score int           `json:"score"`
	Rules []RuleSummary `json:"rules"`
}

// Summarize returns the current score with per-rule counts, sorted by rule.
func (m *Monitor) Summarize() *Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := &Summary{Score: m.scoreLocked()}
	for rule, c := range m.counts {
		out.Rules = append(out.Rules, RuleSummary{
			Rule:         rule,
			Severity:     m.severityLocked(rule),
			Compliant:    c.compliant,
			NonCompliant: c.nonCompliant,
		})
	}
	sort.Slice(out.Rules, func(i, j int) bool { return out.Rules[i].Rule < out.Rules[j].Rule })
	return out
}

// severityLocked returns the configured severity for a rule, defaulting to
// medium for rules outside the catalog (alert-driven events use the alert
// name as the rule).
func (m *Monitor) severityLocked(rule string) string {
	if sev, ok := m.severities[rule]; ok && sev != "" {
		return sev
	}
	return "medium"
}

func (m *Monitor) weightLocked(severity string) int {
	if w, ok := m.weights[severity+"_weight"]; ok {
		return w
	}
	return 1
}

// scoreLocked computes the weighted score: per rule, the compliance ratio
// times the severity weight times the resource count, normalized by the
// maximum attainable score. No data means a perfect 100.
func (m *Monitor) scoreLocked() int {
	var total, max float64

	for rule, c := range m.counts {
		resources := c.compliant + c.nonCompliant
		if resources == 0 {
			continue
		}
		weight := float64(m.weightLocked(m.severityLocked(rule)))
		ratio := float64(c.compliant) / float64(resources)
		total += ratio * weight * float64(resources)
		max += weight * float64(resources)
	}

	if max == 0 {
		return 100
	}
	return int(total / max * 100)
}

func (m *Monitor) recomputeLocked() {
	m.scoreGauge.Set(float64(m.scoreLocked()))
}
