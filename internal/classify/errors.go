package classify

import "fmt"

// UpstreamError wraps a failed or timed-out inference call. These are the
// only classification failures considered transient and worth retrying.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string { return fmt.Sprintf("classify: upstream: %v", e.Err) }
func (e *UpstreamError) Unwrap() error { return e.Err }

// ParseError wraps model output that is not valid JSON or is missing
// required verdict fields. Never retried: the same prompt produced it.
type ParseError struct {
	Reason string
	Output string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("classify: parse: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("classify: parse: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }
