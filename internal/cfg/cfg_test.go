package cfg

import (
	"flag"
	"strings"
	"testing"
)

func validConfig() Config {
	var c Config
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)
	c.ClaudeAPIKey = "sk-test"
	return c
}

func TestRegisterFlags_Defaults(t *testing.T) {
	t.Parallel()

	c := validConfig()
	if c.DrainSeconds != 60 || c.ShutdownBudgetSeconds != 90 {
		t.Errorf("drain/budget = %d/%d, want 60/90", c.DrainSeconds, c.ShutdownBudgetSeconds)
	}
	if c.APIPort != 8080 {
		t.Errorf("port = %d, want 8080", c.APIPort)
	}
	if c.ClaudeModel == "" {
		t.Error("claude model default is empty")
	}
	if c.ClassifyRetries != 2 {
		t.Errorf("retries = %d, want 2", c.ClassifyRetries)
	}
	if c.AdapterTimeoutSeconds != 5 || c.RouteBatchSeconds != 0 {
		t.Errorf("adapter/batch = %d/%d, want 5/0", c.AdapterTimeoutSeconds, c.RouteBatchSeconds)
	}
	if c.AWSSupportEndpoint != "http://localhost:9217" {
		t.Errorf("aws-support endpoint = %q", c.AWSSupportEndpoint)
	}
	if c.RemediationEndpoint != "http://localhost:9225" {
		t.Errorf("remediation endpoint = %q", c.RemediationEndpoint)
	}
}

func TestValidate_Defaults(t *testing.T) {
	t.Parallel()

	c := validConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate on defaults: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{"drain too high", func(c *Config) { c.DrainSeconds = 301 }, "DRAIN_SECONDS"},
		{"zero drain", func(c *Config) { c.DrainSeconds = 0 }, "DRAIN_SECONDS"},
		{"budget not above drain", func(c *Config) { c.ShutdownBudgetSeconds = 60 }, "SHUTDOWN_BUDGET_SECONDS"},
		{"bad port", func(c *Config) { c.APIPort = 70000 }, "HTTP_PORT"},
		{"missing api key", func(c *Config) { c.ClaudeAPIKey = "" }, "CLAUDE_API_KEY"},
		{"missing model", func(c *Config) { c.ClaudeModel = "" }, "CLAUDE_MODEL"},
		{"too many retries", func(c *Config) { c.ClassifyRetries = 6 }, "CLASSIFY_RETRIES"},
		{"negative retries", func(c *Config) { c.ClassifyRetries = -1 }, "CLASSIFY_RETRIES"},
		{"adapter timeout too high", func(c *Config) { c.AdapterTimeoutSeconds = 61 }, "ADAPTER_TIMEOUT_SECONDS"},
		{"negative batch budget", func(c *Config) { c.RouteBatchSeconds = -1 }, "ROUTE_BATCH_SECONDS"},
		{"bad endpoint", func(c *Config) { c.ZendeskEndpoint = "not a url" }, "zendesk"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := validConfig()
			tt.mutate(&c)

			err := c.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestValidate_EmptyEndpointAllowed(t *testing.T) {
	t.Parallel()

	c := validConfig()
	c.LinearEndpoint = ""
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate with disabled adapter: %v", err)
	}
}
