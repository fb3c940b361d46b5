package ticket

import "testing"

func TestUrgencyCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		severity string
		want     string
	}{
		{"critical", "1"},
		{"high", "2"},
		{"medium", "3"},
		{"low", "4"},
	}
	for _, tt := range tests {
		if got := UrgencyCode(tt.severity); got != tt.want {
			t.Errorf("UrgencyCode(%q) = %q, want %q", tt.severity, got, tt.want)
		}
	}
}

func TestUrgencyCode_UnknownDefaultsToMedium(t *testing.T) {
	t.Parallel()

	for _, severity := range []string{"", "urgent", "CRITICAL", "sev1"} {
		if got := UrgencyCode(severity); got != "3" {
			t.Errorf("UrgencyCode(%q) = %q, want %q", severity, got, "3")
		}
	}
}

func TestPriorityCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		severity string
		want     int
	}{
		{"critical", 1},
		{"high", 2},
		{"medium", 3},
		{"low", 4},
	}
	for _, tt := range tests {
		if got := PriorityCode(tt.severity); got != tt.want {
			t.Errorf("PriorityCode(%q) = %d, want %d", tt.severity, got, tt.want)
		}
	}
}

func TestPriorityCode_UnknownDefaultsToMedium(t *testing.T) {
	t.Parallel()

	for _, severity := range []string{"", "urgent", "High"} {
		if got := PriorityCode(severity); got != 3 {
			t.Errorf("PriorityCode(%q) = %d, want 3", severity, got)
		}
	}
}
