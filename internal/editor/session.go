package editor

// State is the controller's position in the editing state machine.
// Submission is an operation, not a state.
type State int

const (
	StateEmpty State = iota
	StateValidating
	StateValid
	StateInvalid
)

func (s State) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateValid:
		return "valid"
	case StateInvalid:
		return "invalid"
	default:
		return "empty"
	}
}

// session is the mutable editing state owned by one Controller. The zero value is
// the initial state; clearing assigns a fresh zero value, so no partial reset is
// ever observable.
type session struct {
	rawContent string

	validity    Validity
	tripleCount int
	lastError   string

	// automatedOrigin is empty when the content was not loaded by a generator.
	automatedOrigin string
	originSnapshot  string
	userModified    bool

	// resolvedIdentity caches the discovered human identity; empty means unresolved.
	resolvedIdentity string
}

// recomputeModified re-derives userModified from the origin snapshot and reports
// whether it flipped.
func (s *session) recomputeModified() bool {
	prev := s.userModified
	s.userModified = s.automatedOrigin != "" && s.rawContent != s.originSnapshot
	return prev != s.userModified
}

// setOrigin tags the current content as generator-supplied.
func (s *session) setOrigin(tag string) {
	s.automatedOrigin = tag
	s.originSnapshot = s.rawContent
	s.userModified = false
}

func (s *session) apply(r Result) {
	s.validity = r.Validity
	switch r.Validity {
	case ValidityValid:
		s.tripleCount = r.TripleCount
		s.lastError = ""
	case ValidityInvalid:
		s.tripleCount = 0
		s.lastError = r.Error
	default:
		s.tripleCount = 0
		s.lastError = ""
	}
}

// Snapshot is a read-only view of a controller, safe to hand to renderers.
type Snapshot struct {
	State           State
	Content         string
	Validity        Validity
	TripleCount     int
	LastError       string
	AutomatedOrigin string
	UserModified    bool
	Attribution     Attribution
	Destination     string
	Picker          Capability
	Eligibility     Eligibility
	Submitting      bool
}
