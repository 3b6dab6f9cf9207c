package decision

import "fmt"

// ParseError reports model output that could not be turned into a valid decision.
type ParseError struct {
	Reason string
	// Raw is the model text that failed to parse, kept for audit.
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decision: %s: %v", e.Reason, e.Err)
	}
	return "decision: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }
