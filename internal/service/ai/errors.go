package ai

import (
	"errors"
	"fmt"
)

// ErrMissingCredential is returned before any request is made when no API
// key has been configured.
var ErrMissingCredential = errors.New("completion api key not configured")

// TransportError reports a failure to reach the completion service.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("completion request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServiceError reports a non-success status from the completion service.
// Message holds the server-supplied error message when one was present.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("completion service returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("completion service returned %d", e.Status)
}

// MalformedResponseError reports a success status whose body carried no
// usable completion.
type MalformedResponseError struct {
	Status int
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed completion response (status %d): %s", e.Status, e.Reason)
}
