package classify

// Severity levels a verdict may carry. Values outside this set are kept
// as-is; the per-target severity maps fall back to their medium code.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// Verdict is the structured classification output steering alert routing.
// It is produced exactly once per alert record and never mutated afterwards.
type Verdict struct {
	RootCause         string   `json:"root_cause"`
	Severity          string   `json:"severity"`
	Targets           []string `json:"targets"`
	AutoRemediate     bool     `json:"auto_remediate"`
	RemediationSteps  []string `json:"remediation_steps"`
	TicketSummary     string   `json:"ticket_summary"`
	TicketDescription string   `json:"ticket_description"`
}

// Usage reports the token cost of producing a verdict.
type Usage struct {
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	Model        string `json:"model,omitempty"`
}
