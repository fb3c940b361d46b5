// Package cfg holds dispatch-specific configuration, registered and
// validated the same way as the shared go-core config packages.
package cfg

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
)

// Config carries the application-level settings for the dispatch server.
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int

	ClaudeAPIKey    string
	ClaudeModel     string
	ClassifyRetries int

	DatabaseURL     string
	SlackWebhookURL string
	APIKey          string

	AdapterTimeoutSeconds int
	RouteBatchSeconds     int

	ComplianceRulesPath string

	AWSSupportEndpoint  string
	ServiceNowEndpoint  string
	BMCHelixEndpoint    string
	JiraEndpoint        string
	ZendeskEndpoint     string
	FreshworksEndpoint  string
	LinearEndpoint      string
	AWSConfigEndpoint   string
	RemediationEndpoint string
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.ClaudeAPIKey, "claude-api-key", "", "API key for accessing the Claude LLM provider")
	fs.StringVar(&c.ClaudeModel, "claude-model", "claude-sonnet-4-20250514", "Claude model to use")
	fs.IntVar(&c.ClassifyRetries, "classify-retries", 2, "extra classification attempts after an upstream failure (0..5)")
	fs.StringVar(&c.DatabaseURL, "database-url", "", "PostgreSQL connection URL (empty = in-memory store)")
	fs.StringVar(&c.SlackWebhookURL, "slack-webhook-url", "", "Slack webhook URL for triage notifications")
	fs.StringVar(&c.APIKey, "api-key", "", "require this X-API-Key header on the alert API (empty = no auth)")
	fs.IntVar(&c.AdapterTimeoutSeconds, "adapter-timeout-seconds", 5, "per-adapter call timeout in seconds (1..60)")
	fs.IntVar(&c.RouteBatchSeconds, "route-batch-seconds", 0, "overall deadline for one routing batch in seconds (0 = off)")
	fs.StringVar(&c.ComplianceRulesPath, "compliance-rules", "", "YAML compliance rule catalog (empty = scoring disabled)")
	fs.StringVar(&c.AWSSupportEndpoint, "aws-support-endpoint", "http://localhost:9217", "aws-support plugin base URL (empty = disabled)")
	fs.StringVar(&c.ServiceNowEndpoint, "servicenow-endpoint", "http://localhost:9218", "ServiceNow plugin base URL (empty = disabled)")
	fs.StringVar(&c.BMCHelixEndpoint, "bmc-helix-endpoint", "http://localhost:9219", "BMC Helix plugin base URL (empty = disabled)")
	fs.StringVar(&c.JiraEndpoint, "jira-endpoint", "http://localhost:9220", "Jira Service Management plugin base URL (empty = disabled)")
	fs.StringVar(&c.ZendeskEndpoint, "zendesk-endpoint", "http://localhost:9221", "Zendesk plugin base URL (empty = disabled)")
	fs.StringVar(&c.FreshworksEndpoint, "freshworks-endpoint", "http://localhost:9222", "Freshworks plugin base URL (empty = disabled)")
	fs.StringVar(&c.LinearEndpoint, "linear-endpoint", "http://localhost:9223", "Linear plugin base URL (empty = disabled)")
	fs.StringVar(&c.AWSConfigEndpoint, "aws-config-endpoint", "http://localhost:9224", "AWS Config plugin base URL (empty = disabled)")
	fs.StringVar(&c.RemediationEndpoint, "remediation-endpoint", "http://localhost:9225", "auto-remediation plugin base URL (empty = disabled)")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}

	// Shutdown budget must be greater than drain time
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	// API port must be valid TCP port number
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	// Claude API key and model are required for classification
	if c.ClaudeAPIKey == "" {
		errs = append(errs, errors.New("CLAUDE_API_KEY is required"))
	}
	if c.ClaudeModel == "" {
		errs = append(errs, errors.New("CLAUDE_MODEL is required"))
	}

	if c.ClassifyRetries < 0 || c.ClassifyRetries > 5 {
		errs = append(errs, fmt.Errorf("invalid CLASSIFY_RETRIES %d (must be 0..5)", c.ClassifyRetries))
	}

	if c.AdapterTimeoutSeconds <= 0 || c.AdapterTimeoutSeconds > 60 {
		errs = append(errs, fmt.Errorf("invalid ADAPTER_TIMEOUT_SECONDS %d (must be 1..60)", c.AdapterTimeoutSeconds))
	}
	if c.RouteBatchSeconds < 0 || c.RouteBatchSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid ROUTE_BATCH_SECONDS %d (must be 0..300)", c.RouteBatchSeconds))
	}

	for name, endpoint := range c.endpoints() {
		if endpoint == "" {
			continue
		}
		if _, err := url.ParseRequestURI(endpoint); err != nil {
			errs = append(errs, fmt.Errorf("invalid %s endpoint %q: %w", name, endpoint, err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (c *Config) endpoints() map[string]string {
	return map[string]string{
		"aws-support":       c.AWSSupportEndpoint,
		"servicenow":        c.ServiceNowEndpoint,
		"bmc-helix":         c.BMCHelixEndpoint,
		"jira-service-mgmt": c.JiraEndpoint,
		"zendesk":           c.ZendeskEndpoint,
		"freshworks":        c.FreshworksEndpoint,
		"linear":            c.LinearEndpoint,
		"aws-config":        c.AWSConfigEndpoint,
		"auto-remediation":  c.RemediationEndpoint,
	}
}
