package sdk

import "fmt"

// AuthenticationError reports a failed token exchange. It is never retried
type AuthenticationError struct {
	Status  int    // Envelope or HTTP status, 0 when no response was received
	Message string // Server-provided detail or local reason
	Err     error  // Underlying transport or decode error, if any
}

func (e *AuthenticationError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("authentication failed: %s: %v", e.Message, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("authentication failed (status %d): %s", e.Status, e.Message)
	default:
		return fmt.Sprintf("authentication failed: %s", e.Message)
	}
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// StatusError reports a non-success status from the query endpoint
type StatusError struct {
	Status int    // Envelope status, or HTTP status when the envelope is unreadable
	Body   string // Raw response body
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("query failed with status %d: %s", e.Status, e.Body)
}
