package ticket

import (
	"context"
	"net/http"

	"github.com/linnemanlabs/dispatch/internal/alert"
	"github.com/linnemanlabs/dispatch/internal/classify"
)

// AWSSupport files support cases through the local aws-support plugin.
type AWSSupport struct {
	endpoint string
	client   *http.Client
}

func NewAWSSupport(endpoint string, client *http.Client) *AWSSupport {
	return &AWSSupport{endpoint: endpoint, client: client}
}

func (a *AWSSupport) Target() string { return "aws-support" }

func (a *AWSSupport) Create(ctx context.Context, rec *alert.Record, v *classify.Verdict) (string, error) {
	req := struct {
		Subject     string        `json:"subject"`
		Description string        `json:"description"`
		Severity    string        `json:"severity"`
		Category    string        `json:"category"`
		AlertData   *alert.Record `json:"alert_data"`
	}{
		Subject:     v.TicketSummary,
		Description: v.TicketDescription,
		Severity:    v.Severity,
		Category:    "technical",
		AlertData:   rec,
	}
	var resp struct {
		CaseID string `json:"case_id"`
	}
	if err := postJSON(ctx, a.client, a.endpoint+"/api/create-case", req, &resp); err != nil {
		return "", err
	}
	return resp.CaseID, nil
}

// ServiceNow files incidents; severity is translated to the urgency code.
type ServiceNow struct {
	endpoint string
	client   *http.Client
}

func NewServiceNow(endpoint string, client *http.Client) *ServiceNow {
	return &ServiceNow{endpoint: endpoint, client: client}
}

func (s *ServiceNow) Target() string { return "servicenow" }

func (s *ServiceNow) Create(ctx context.Context, rec *alert.Record, v *classify.Verdict) (string, error) {
	req := struct {
		ShortDescription string        `json:"short_description"`
		Description      string        `json:"description"`
		Urgency          string        `json:"urgency"`
		AlertData        *alert.Record `json:"alert_data"`
	}{
		ShortDescription: v.TicketSummary,
		Description:      v.TicketDescription,
		Urgency:          UrgencyCode(v.Severity),
		AlertData:        rec,
	}
	var resp struct {
		IncidentNumber string `json:"incident_number"`
	}
	if err := postJSON(ctx, s.client, s.endpoint+"/api/create-incident", req, &resp); err != nil {
		return "", err
	}
	return resp.IncidentNumber, nil
}

// BMCHelix files incidents with the raw severity as priority.
type BMCHelix struct {
	endpoint string
	client   *http.Client
}

func NewBMCHelix(endpoint string, client *http.Client) *BMCHelix {
	return &BMCHelix{endpoint: endpoint, client: client}
}

func (b *BMCHelix) Target() string { return "bmc-helix" }

func (b *BMCHelix) Create(ctx context.Context, rec *alert.Record, v *classify.Verdict) (string, error) {
	req := struct {
		Summary   string        `json:"summary"`
		Details   string        `json:"details"`
		Priority  string        `json:"priority"`
		AlertData *alert.Record `json:"alert_data"`
	}{
		Summary:   v.TicketSummary,
		Details:   v.TicketDescription,
		Priority:  v.Severity,
		AlertData: rec,
	}
	var resp struct {
		IncidentID string `json:"incident_id"`
	}
	if err := postJSON(ctx, b.client, b.endpoint+"/api/create-incident", req, &resp); err != nil {
		return "", err
	}
	return resp.IncidentID, nil
}

// Jira files Jira Service Management issues.
type Jira struct {
	endpoint string
	client   *http.Client
}

func NewJira(endpoint string, client *http.Client) *Jira {
	return &Jira{endpoint: endpoint, client: client}
}

func (j *Jira) Target() string { return "jira-service-mgmt" }

func (j *Jira) Create(ctx context.Context, rec *alert.Record, v *classify.Verdict) (string, error) {
	req := struct {
		Summary     string        `json:"summary"`
		Description string        `json:"description"`
		Priority    string        `json:"priority"`
		AlertData   *alert.Record `json:"alert_data"`
	}{
		Summary:     v.TicketSummary,
		Description: v.TicketDescription,
		Priority:    v.Severity,
		AlertData:   rec,
	}
	var resp struct {
		IssueKey string `json:"issue_key"`
	}
	if err := postJSON(ctx, j.client, j.endpoint+"/api/create-issue", req, &resp); err != nil {
		return "", err
	}
	return resp.IssueKey, nil
}

// Zendesk files customer-support tickets.
type Zendesk struct {
	endpoint string
	client   *http.Client
}

func NewZendesk(endpoint string, client *http.Client) *Zendesk {
	return &Zendesk{endpoint: endpoint, client: client}
}

func (z *Zendesk) Target() string { return "zendesk" }

func (z *Zendesk) Create(ctx context.Context, rec *alert.Record, v *classify.Verdict) (string, error) {
	req := struct {
		Subject     string        `json:"subject"`
		Description string        `json:"description"`
		Priority    string        `json:"priority"`
		AlertData   *alert.Record `json:"alert_data"`
	}{
		Subject:     v.TicketSummary,
		Description: v.TicketDescription,
		Priority:    v.Severity,
		AlertData:   rec,
	}
	var resp struct {
		TicketID string `json:"ticket_id"`
	}
	if err := postJSON(ctx, z.client, z.endpoint+"/api/create-ticket", req, &resp); err != nil {
		return "", err
	}
	return resp.TicketID, nil
}

// Freshworks files tickets with the numeric priority code.
type Freshworks struct {
	endpoint string
	client   *http.Client
}

func NewFreshworks(endpoint string, client *http.Client) *Freshworks {
	return &Freshworks{endpoint: endpoint, client: client}
}

func (f *Freshworks) Target() string { return "freshworks" }

func (f *Freshworks) Create(ctx context.Context, rec *alert.Record, v *classify.Verdict) (string, error) {
	req := struct {
		Subject     string        `json:"subject"`
		Description string        `json:"description"`
		Priority    int           `json:"priority"`
		AlertData   *alert.Record `json:"alert_data"`
	}{
		Subject:     v.TicketSummary,
		Description: v.TicketDescription,
		Priority:    PriorityCode(v.Severity),
		AlertData:   rec,
	}
	var resp struct {
		TicketID string `json:"ticket_id"`
	}
	if err := postJSON(ctx, f.client, f.endpoint+"/api/create-ticket", req, &resp); err != nil {
		return "", err
	}
	return resp.TicketID, nil
}

// Linear files engineering issues with the numeric priority code.
type Linear struct {
	endpoint string
	client   *http.Client
}

func NewLinear(endpoint string, client *http.Client) *Linear {
	return &Linear{endpoint: endpoint, client: client}
}

func (l *Linear) Target() string { return "linear" }

func (l *Linear) Create(ctx context.Context, rec *alert.Record, v *classify.Verdict) (string, error) {
	req := struct {
		Title       string        `json:"title"`
		Description string        `json:"description"`
		Priority    int           `json:"priority"`
		AlertData   *alert.Record `json:"alert_data"`
	}{
		Title:       v.TicketSummary,
		Description: v.TicketDescription,
		Priority:    PriorityCode(v.Severity),
		AlertData:   rec,
	}
	var resp struct {
		IssueID string `json:"issue_id"`
	}
	if err := postJSON(ctx, l.client, l.endpoint+"/api/create-issue", req, &resp); err != nil {
		return "", err
	}
	return resp.IssueID, nil
}

// ComplianceRecorder receives a local copy of every compliance event the
// aws-config adapter logs, so the in-process score stays current.
type ComplianceRecorder interface {
	RecordEvent(rule, resourceID, complianceType string)
}

// AWSConfig logs non-compliance events to the aws-config plugin.
type AWSConfig struct {
	endpoint string
	client   *http.Client
	recorder ComplianceRecorder
}

// NewAWSConfig creates the aws-config adapter. recorder may be nil.
func NewAWSConfig(endpoint string, client *http.Client, recorder ComplianceRecorder) *AWSConfig {
	return &AWSConfig{endpoint: endpoint, client: client, recorder: recorder}
}

func (a *AWSConfig) Target() string { return "aws-config" }

func (a *AWSConfig) Create(ctx context.Context, rec *alert.Record, v *classify.Verdict) (string, error) {
	req := struct {
		ResourceID     string        `json:"resource_id"`
		ComplianceType string        `json:"compliance_type"`
		Annotation     string        `json:"annotation"`
		AlertData      *alert.Record `json:"alert_data"`
	}{
		ResourceID:     rec.ResourceID,
		ComplianceType: "NON_COMPLIANT",
		Annotation:     v.TicketDescription,
		AlertData:      rec,
	}
	var resp struct {
		EventID string `json:"event_id"`
	}
	if err := postJSON(ctx, a.client, a.endpoint+"/api/log-compliance-event", req, &resp); err != nil {
		return "", err
	}
	if a.recorder != nil {
		a.recorder.RecordEvent(rec.Name, rec.ResourceID, "NON_COMPLIANT")
	}
	return resp.EventID, nil
}

// Remediation triggers the auto-remediation plugin with the verdict's
// suggested steps. It is not a registry adapter: the router invokes it
// once, after all targets, when the verdict asks for it.
type Remediation struct {
	endpoint string
	client   *http.Client
}

func NewRemediation(endpoint string, client *http.Client) *Remediation {
	return &Remediation{endpoint: endpoint, client: client}
}

// Target is the name remediation outcomes are reported under.
func (r *Remediation) Target() string { return "auto-remediation" }

// Trigger starts remediation and returns the external remediation id.
func (r *Remediation) Trigger(ctx context.Context, rec *alert.Record, v *classify.Verdict) (string, error) {
	req := struct {
		AlertName        string        `json:"alert_name"`
		ResourceID       string        `json:"resource_id"`
		RemediationSteps []string      `json:"remediation_steps"`
		AlertData        *alert.Record `json:"alert_data"`
	}{
		AlertName:        rec.Name,
		ResourceID:       rec.ResourceID,
		RemediationSteps: v.RemediationSteps,
		AlertData:        rec,
	}
	var resp struct {
		RemediationID string `json:"remediation_id"`
	}
	if err := postJSON(ctx, r.client, r.endpoint+"/api/remediate", req, &resp); err != nil {
		return "", err
	}
	return resp.RemediationID, nil
}
