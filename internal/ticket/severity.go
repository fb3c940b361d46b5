package ticket

// UrgencyCode maps a verdict severity to the urgency string used by
// ServiceNow-style systems. Unknown severities fall back to "3" (medium);
// the upstream classifier is trusted but not validated here.
func UrgencyCode(severity string) string {
	switch severity {
	case "critical":
		return "1"
	case "high":
		return "2"
	case "medium":
		return "3"
	case "low":
		return "4"
	default:
		return "3"
	}
}

// PriorityCode maps a verdict severity to the numeric priority used by
// Freshworks and Linear. Unknown severities fall back to 3 (medium).
func PriorityCode(severity string) int {
	switch severity {
	case "critical":
		return 1
	case "high":
		return 2
	case "medium":
		return 3
	case "low":
		return 4
	default:
		return 3
	}
}
