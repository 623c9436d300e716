package editor

import (
	"context"
	"time"
)

// Event names, as seen by hosts.
const (
	EventValidationChanged  = "validation-changed"
	EventSubmitted          = "submitted"
	EventSubmissionFailed   = "submission-failed"
	EventStateChanged       = "state-changed"
	EventDestinationChanged = "destination-changed"
)

// Event is a notification emitted to the host.
type Event interface {
	EventName() string
}

// ValidationChanged is emitted exactly once per completed validation.
type ValidationChanged struct {
	Valid       bool   `json:"valid"`
	TripleCount int    `json:"tripleCount,omitempty"`
	Error       string `json:"error,omitempty"`
}

func (ValidationChanged) EventName() string { return EventValidationChanged }

// Submitted is emitted after the transport accepted a document.
type Submitted struct {
	ID           string    `json:"id"`
	Content      string    `json:"content"`
	Destination  string    `json:"destination"`
	At           time.Time `json:"at"`
	Author       string    `json:"author"`
	TripleCount  int       `json:"tripleCount"`
	WasAutomated bool      `json:"wasAutomated"`
	WasModified  bool      `json:"wasModified"`
}

func (Submitted) EventName() string { return EventSubmitted }

// SubmissionFailed carries the transport failure. The session is unchanged.
type SubmissionFailed struct {
	Err *TransportError `json:"-"`
}

func (SubmissionFailed) EventName() string { return EventSubmissionFailed }

// StateChange causes.
const (
	CauseAttached    = "attached"
	CauseEdit        = "edit"
	CauseLoad        = "load"
	CauseValidation  = "validation"
	CauseAttribution = "attribution"
	CauseIdentity    = "identity"
	CauseDestination = "destination"
	CauseSubmitting  = "submitting"
	CauseSubmitted   = "submitted"
	CauseFailed      = "failed"
	CauseClear       = "clear"
)

// StateChanged re-broadcasts derived state after any relevant transition.
type StateChanged struct {
	Cause    string
	Snapshot Snapshot
}

func (StateChanged) EventName() string { return EventStateChanged }

// DestinationChanged relays the picker's change notification.
type DestinationChanged struct {
	Destination string `json:"destination"`
}

func (DestinationChanged) EventName() string { return EventDestinationChanged }

// EventSink receives notifications in the order the controller produced them.
// Emit is called without controller locks held, but must not synchronously call
// mutating controller methods.
type EventSink interface {
	Emit(ev Event)
}

// SinkFunc adapts a plain function to EventSink.
type SinkFunc func(ev Event)

// Emit calls f(ev).
func (f SinkFunc) Emit(ev Event) {
	f(ev)
}

type nopSink struct{}

func (nopSink) Emit(Event) {}

// Document is what a transport receives.
type Document struct {
	Content     string
	Destination string
	Author      string
}

// Receipt is what a transport reports on success. Both fields are optional.
type Receipt struct {
	ID          string
	TripleCount int
}

// Transport hands a document to the ingestion backend. It is called once per submit;
// retrying is the user's decision.
type Transport interface {
	Submit(ctx context.Context, doc Document) (Receipt, error)
}

// TransportFunc adapts a plain function to Transport.
type TransportFunc func(ctx context.Context, doc Document) (Receipt, error)

// Submit calls f(ctx, doc).
func (f TransportFunc) Submit(ctx context.Context, doc Document) (Receipt, error) {
	return f(ctx, doc)
}
