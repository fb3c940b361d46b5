package classify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/linnemanlabs/dispatch/internal/alert"
)

// buildSystemPrompt returns the fixed instruction preamble. The catalog of
// routable systems is part of the template: the model must only emit target
// names the router knows how to resolve.
func buildSystemPrompt() string {
	return `You are an expert SRE analyzing a monitoring alert. Based on the alert details, determine:
1. Root cause analysis
2. Severity assessment
3. Which ticketing systems to notify (can be multiple)
4. Whether auto-remediation should be attempted
5. Suggested remediation steps

Available ticketing systems:
- aws-support (for AWS resource issues, critical severity)
- servicenow (enterprise ITSM)
- bmc-helix (enterprise ITSM)
- jira-service-mgmt (agile teams)
- zendesk (customer support)
- freshworks (customer support)
- linear (engineering teams)
- aws-config (compliance/configuration issues)

Respond with a single JSON object and nothing else:
{
  "root_cause": "brief explanation",
  "severity": "critical|high|medium|low",
  "targets": ["system1", "system2"],
  "auto_remediate": true|false,
  "remediation_steps": ["step1", "step2"],
  "ticket_summary": "concise summary for ticket",
  "ticket_description": "detailed description with context"
}`
}

// buildUserPrompt renders the alert record into the fixed request template.
func buildUserPrompt(rec *alert.Record) string {
	details, _ := json.MarshalIndent(rec, "", "  ")

	return fmt.Sprintf(`Alert: %s
Severity label: %s
Instance: %s
Resource: %s
Received: %s

Alert Details:
%s`,
		rec.Name,
		rec.Severity,
		rec.Instance,
		rec.ResourceID,
		rec.ReceivedAt.Format(time.RFC3339),
		string(details),
	)
}
