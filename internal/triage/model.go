package triage

import (
	"time"

	"github.com/linnemanlabs/dispatch/internal/classify"
	"github.com/linnemanlabs/dispatch/internal/route"
)

// Status tracks where a triage is in its lifecycle.
type Status string

const (
	// StatusPending means created, not yet started
	StatusPending Status = "pending"

	// StatusInProgress means currently being processed
	StatusInProgress Status = "in_progress"

	// StatusComplete means classified and routed
	StatusComplete Status = "complete"

	// StatusFailed means the alert could not be classified
	StatusFailed Status = "failed"
)

// Result is the persisted outcome of one alert's classification and
// routing run.
type Result struct {
	ID          string `json:"id"`
	Fingerprint string `json:"fingerprint"`
	Status      Status `json:"status"`

	Alert    string `json:"alert_name"`
	Severity string `json:"severity"`
	Resource string `json:"resource_id,omitempty"`
	Summary  string `json:"summary,omitempty"`

	Verdict *classify.Verdict `json:"verdict,omitempty"`
	Routing []route.Result    `json:"routing,omitempty"`
	Error   string            `json:"error,omitempty"`

	CreatedAt   time.Time `json:"created_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
	Duration    float64   `json:"duration_seconds,omitempty"`
	TokensUsed  int       `json:"tokens_used,omitempty"`
	Model       string    `json:"model,omitempty"`
}
