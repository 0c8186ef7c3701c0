package client

import "fmt"

// TransportError means the request did not produce a usable response: the
// network failed, the server answered with an error status, or the body was
// not an envelope.
type TransportError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s failed (status %d): %v", e.Method, e.Path, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError is a domain-level rejection carried in the envelope code
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request rejected (code %s)", e.Code)
	}
	return fmt.Sprintf("%s (code %s)", e.Message, e.Code)
}
