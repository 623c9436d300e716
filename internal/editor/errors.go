package editor

import (
	"errors"
	"fmt"
)

var (
	// ErrNotSubmittable is returned by Submit when the eligibility gate denies submission.
	ErrNotSubmittable = errors.New("not submittable")

	// ErrSubmissionInFlight is returned when Submit is called while another submission
	// for the same session has not completed.
	ErrSubmissionInFlight = errors.New("submission already in flight")

	// ErrDetached is returned by operations on a controller after Detach.
	ErrDetached = errors.New("editor detached")
)

// ParseError is a content-level grammar failure. Message is shown to the user verbatim.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string {
	return e.Message
}

// TransportError is a backend or network failure during submission. The session is
// left untouched so the user can retry without retyping.
type TransportError struct {
	Status  int // HTTP status when the transport is HTTP, 0 otherwise
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "transport failure"
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ConfigurationError reports that a required collaborator never became available.
// It puts the widget in degraded mode; it is never fatal to the host.
type ConfigurationError struct {
	Component string
	Err       error
}

func (e *ConfigurationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s unavailable", e.Component)
	}
	return fmt.Sprintf("%s unavailable: %v", e.Component, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// NotSubmittableError carries the gate's blocking reason. It matches ErrNotSubmittable
// with errors.Is and unwraps to the underlying cause (e.g. a ConfigurationError).
type NotSubmittableError struct {
	Block  BlockReason
	Reason string
	Err    error
}

func (e *NotSubmittableError) Error() string {
	return fmt.Sprintf("not submittable: %s", e.Reason)
}

func (e *NotSubmittableError) Is(target error) bool {
	return target == ErrNotSubmittable
}

func (e *NotSubmittableError) Unwrap() error {
	return e.Err
}

// asTransportError normalizes any transport failure into a *TransportError.
func asTransportError(err error) *TransportError {
	var te *TransportError
	if errors.As(err, &te) {
		return te
	}
	return &TransportError{Message: err.Error(), Err: err}
}
