// Package editor implements the attribution-and-validation state machine behind the
// Turtle authoring widget: debounced grammar validation, automated-origin
// attribution, the submit-eligibility gate, and the editing session lifecycle.
//
// A Controller owns exactly one editing session. Hosts feed it user edits and
// programmatic loads, read Snapshots, and receive Events through an EventSink.
package editor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options configures a Controller. Only Parser is required.
type Options struct {
	Parser       Parser
	Transport    Transport
	Identity     IdentityResolver
	PickerLoader PickerLoader
	Sink         EventSink
	Logger       *zap.Logger

	// Debounce is the quiet period before an edit is validated (DefaultDebounce if zero).
	Debounce  time.Duration
	Scheduler Scheduler

	Now   func() time.Time
	NewID func() string
}

// Controller is the editing session controller for one widget instance.
type Controller struct {
	mu sync.Mutex
	// emitMu keeps event delivery in the order state was mutated.
	emitMu sync.Mutex

	parser    Parser
	transport Transport
	identity  IdentityResolver
	loader    PickerLoader
	sink      EventSink
	log       *zap.Logger
	now       func() time.Time
	newID     func() string

	debouncer *Debouncer

	s session
	// version increases on every content mutation and never resets, so stale
	// validations and submissions can always be recognized.
	version    uint64
	validating bool
	submitting bool

	hostIdentity string
	// loggedOut is set by an empty SetIdentity and suppresses discovery until
	// the host pushes a new identity.
	loggedOut bool

	capability  Capability
	picker      DestinationPicker
	pickerErr   error
	unsubscribe func()
	attached    bool
	detached    bool

	pending []Event
}

// New creates a controller with an empty session. Call Attach before use.
func New(opts Options) (*Controller, error) {
	if opts.Parser == nil {
		return nil, &ConfigurationError{Component: "parser", Err: errors.New("no parser configured")}
	}

	c := &Controller{
		parser:    opts.Parser,
		transport: opts.Transport,
		identity:  opts.Identity,
		loader:    opts.PickerLoader,
		sink:      opts.Sink,
		log:       opts.Logger,
		now:       opts.Now,
		newID:     opts.NewID,
	}
	if c.sink == nil {
		c.sink = nopSink{}
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.newID == nil {
		c.newID = func() string { return uuid.New().String() }
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	c.debouncer = NewDebouncer(debounce, opts.Scheduler)

	return c, nil
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Attach probes the destination picker once and subscribes to its changes.
// A returned *ConfigurationError is not fatal: the controller stays usable in
// degraded mode and reports the problem as the submit-blocking reason.
func (c *Controller) Attach(ctx context.Context) error {
	c.mu.Lock()
	if c.detached {
		c.mu.Unlock()
		return ErrDetached
	}
	if c.attached {
		c.mu.Unlock()
		return c.pickerErr
	}
	c.capability = CapabilityLoading
	loader := c.loader
	c.mu.Unlock()

	var (
		picker DestinationPicker
		err    error
	)
	if loader == nil {
		err = errors.New("no picker loader configured")
	} else {
		picker, err = loader(ctx)
		if err == nil && picker == nil {
			err = errors.New("picker loader returned nothing")
		}
	}

	c.mu.Lock()
	if c.detached {
		c.mu.Unlock()
		return ErrDetached
	}
	c.attached = true
	if err != nil {
		var ce *ConfigurationError
		if !errors.As(err, &ce) {
			ce = &ConfigurationError{Component: "destination picker", Err: err}
		}
		c.capability = CapabilityUnavailable
		c.pickerErr = ce
		c.log.Warn("destination picker unavailable, running degraded", zap.Error(err))
	} else {
		c.capability = CapabilityReady
		c.picker = picker
		c.log.Debug("destination picker ready", zap.String("destination", picker.GetValue()))
	}
	c.broadcast(CauseAttached)
	pickerErr := c.pickerErr
	c.unlockAndEmit()

	if picker != nil && err == nil {
		unsubscribe := picker.OnChange(c.onDestinationChanged)
		c.mu.Lock()
		if c.detached {
			c.mu.Unlock()
			unsubscribe()
			return ErrDetached
		}
		c.unsubscribe = unsubscribe
		c.mu.Unlock()
	}

	return pickerErr
}

// Detach cancels pending validation and drops the picker subscription. The session
// is gone afterwards; every mutating call becomes a no-op or returns ErrDetached.
func (c *Controller) Detach() {
	c.mu.Lock()
	if c.detached {
		c.mu.Unlock()
		return
	}
	c.detached = true
	c.debouncer.Cancel()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	c.log.Debug("editor detached")
}

// =============================================================================
// CONTENT
// =============================================================================

// OnUserEdit records typed content and schedules a debounced validation.
func (c *Controller) OnUserEdit(text string) {
	c.mu.Lock()
	if c.detached {
		c.mu.Unlock()
		return
	}

	c.s.rawContent = text
	c.version++
	version := c.version
	wasValidating := c.validating
	c.validating = true

	if c.s.recomputeModified() {
		c.log.Debug("attribution changed", zap.Bool("modified", c.s.userModified))
		c.broadcast(CauseAttribution)
	} else if !wasValidating {
		c.broadcast(CauseEdit)
	}

	c.debouncer.Debounce(func() { c.runValidation(version) })
	c.unlockAndEmit()
}

// LoadContent replaces the buffer programmatically and validates immediately.
// A non-empty originTag marks the content as generator-supplied.
func (c *Controller) LoadContent(text, originTag string) Result {
	c.mu.Lock()
	if c.detached {
		c.mu.Unlock()
		return Result{}
	}

	// The pending edit is cancelled and superseded while c.mu is held so an
	// edit arriving after unlock keeps its own debounced validation.
	var version uint64
	c.debouncer.Immediate(func() {
		c.s.rawContent = text
		c.version++
		version = c.version
		if originTag != "" {
			c.s.setOrigin(originTag)
		} else {
			c.s.recomputeModified()
		}
		c.validating = true
	})
	c.log.Debug("content loaded",
		zap.Int("bytes", len(text)),
		zap.String("origin", c.s.automatedOrigin))
	c.broadcast(CauseLoad)
	c.unlockAndEmit()

	res := Validate(c.parser, text)
	c.applyValidation(version, res)
	return res
}

// runValidation is the debounced path. The parse runs without the lock held.
func (c *Controller) runValidation(version uint64) {
	c.mu.Lock()
	if c.detached || version != c.version {
		c.mu.Unlock()
		return
	}
	text := c.s.rawContent
	c.mu.Unlock()

	c.applyValidation(version, Validate(c.parser, text))
}

// applyValidation commits a result if no newer content arrived meanwhile; a
// superseded result is dropped silently because a newer validation is pending.
func (c *Controller) applyValidation(version uint64, res Result) {
	c.mu.Lock()
	if c.detached || version != c.version {
		c.mu.Unlock()
		return
	}

	c.s.apply(res)
	c.validating = false

	switch res.Validity {
	case ValidityInvalid:
		c.log.Debug("validation failed", zap.String("error", res.Error))
	case ValidityValid:
		c.log.Debug("validation passed", zap.Int("triples", res.TripleCount))
	}

	c.pending = append(c.pending, res.Event())
	c.broadcast(CauseValidation)
	c.unlockAndEmit()
}

// Clear resets every session field to its initial value in one step.
func (c *Controller) Clear() {
	c.mu.Lock()
	if c.detached {
		c.mu.Unlock()
		return
	}
	c.resetLocked()
	c.log.Debug("session cleared")
	c.broadcast(CauseClear)
	c.unlockAndEmit()
}

func (c *Controller) resetLocked() {
	c.debouncer.Cancel()
	c.s = session{}
	c.version++
	c.validating = false
}

// =============================================================================
// COLLABORATOR NOTIFICATIONS
// =============================================================================

// SetIdentity records the identity pushed by the host. An empty id logs out:
// no human author is discovered until a non-empty id is pushed. Generator
// origins are still credited while logged out.
func (c *Controller) SetIdentity(id string) {
	c.mu.Lock()
	if c.detached {
		c.mu.Unlock()
		return
	}
	c.hostIdentity = id
	c.loggedOut = strings.TrimSpace(id) == ""
	c.s.resolvedIdentity = ""
	c.broadcast(CauseIdentity)
	c.unlockAndEmit()
}

func (c *Controller) attributionLocked() Attribution {
	var ids IdentityResolver
	if !c.loggedOut {
		ids = c.identity
	}
	return resolveAttribution(&c.s, c.hostIdentity, ids)
}

func (c *Controller) onDestinationChanged(value string) {
	c.mu.Lock()
	if c.detached {
		c.mu.Unlock()
		return
	}
	c.pending = append(c.pending, DestinationChanged{Destination: value})
	c.broadcast(CauseDestination)
	c.unlockAndEmit()
}

// =============================================================================
// SUBMISSION
// =============================================================================

// Submit hands the current document to the transport. It fails fast when the gate
// denies submission. On success the session is reset; on failure it is left as is
// and a SubmissionFailed event is emitted.
func (c *Controller) Submit(ctx context.Context) (Submitted, error) {
	c.mu.Lock()
	if c.detached {
		c.mu.Unlock()
		return Submitted{}, ErrDetached
	}
	if c.submitting {
		c.mu.Unlock()
		return Submitted{}, ErrSubmissionInFlight
	}

	elig := c.eligibilityLocked()
	if !elig.CanSubmit {
		c.mu.Unlock()
		return Submitted{}, &NotSubmittableError{Block: elig.Block, Reason: elig.Reason, Err: c.blockCause(elig.Block)}
	}
	if c.transport == nil {
		c.mu.Unlock()
		return Submitted{}, &ConfigurationError{Component: "transport", Err: errors.New("no transport configured")}
	}

	attr := c.attributionLocked()
	doc := Document{
		Content:     c.s.rawContent,
		Destination: c.picker.GetValue(),
		Author:      attr.Author,
	}
	version := c.version
	tripleCount := c.s.tripleCount
	wasAutomated := c.s.automatedOrigin != ""
	wasModified := c.s.userModified

	c.submitting = true
	c.log.Info("submitting document",
		zap.String("destination", doc.Destination),
		zap.String("author", doc.Author),
		zap.Int("triples", tripleCount))
	c.broadcast(CauseSubmitting)
	c.unlockAndEmit()

	receipt, err := c.transport.Submit(ctx, doc)

	c.mu.Lock()
	c.submitting = false

	if err != nil {
		te := asTransportError(err)
		c.log.Warn("submission failed", zap.Error(te))
		c.pending = append(c.pending, SubmissionFailed{Err: te})
		if !c.detached {
			c.broadcast(CauseFailed)
		}
		c.unlockAndEmit()
		return Submitted{}, te
	}

	ev := Submitted{
		ID:           receipt.ID,
		Content:      doc.Content,
		Destination:  doc.Destination,
		At:           c.now(),
		Author:       doc.Author,
		TripleCount:  tripleCount,
		WasAutomated: wasAutomated,
		WasModified:  wasModified,
	}
	if ev.ID == "" {
		ev.ID = c.newID()
	}
	c.pending = append(c.pending, ev)
	c.log.Info("submission accepted", zap.String("id", ev.ID))

	if !c.detached {
		if c.version == version {
			c.resetLocked()
		} else {
			c.reseedLocked()
		}
		c.broadcast(CauseSubmitted)
	}
	c.unlockAndEmit()
	return ev, nil
}

// reseedLocked resets the session after a successful submission but keeps content
// typed while the transport was in flight, as a fresh manual edit.
func (c *Controller) reseedLocked() {
	text := c.s.rawContent
	c.resetLocked()
	if strings.TrimSpace(text) == "" {
		return
	}
	c.s.rawContent = text
	version := c.version
	c.validating = true
	c.log.Debug("kept edits made during submission", zap.Int("bytes", len(text)))
	c.debouncer.Debounce(func() { c.runValidation(version) })
}

func (c *Controller) blockCause(b BlockReason) error {
	if b == BlockPickerUnavailable {
		return c.pickerErr
	}
	return nil
}

// =============================================================================
// DERIVED STATE
// =============================================================================

// State returns the current state machine position.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	if c.validating {
		return StateValidating
	}
	switch c.s.validity {
	case ValidityValid:
		return StateValid
	case ValidityInvalid:
		return StateInvalid
	default:
		return StateEmpty
	}
}

// Content returns the current buffer.
func (c *Controller) Content() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s.rawContent
}

// EffectiveAuthor returns the identity a submission would be recorded under.
func (c *Controller) EffectiveAuthor() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a := c.attributionLocked()
	return a.Author, a.Author != ""
}

// Attribution returns the full attribution view.
func (c *Controller) Attribution() Attribution {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attributionLocked()
}

// Eligibility evaluates the submit gate against the current state.
func (c *Controller) Eligibility() Eligibility {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eligibilityLocked()
}

func (c *Controller) eligibilityLocked() Eligibility {
	switch c.capability {
	case CapabilityLoading:
		return Eligibility{Block: BlockPickerUnavailable, Reason: ReasonPickerLoading}
	case CapabilityUnavailable:
		return Eligibility{Block: BlockPickerUnavailable, Reason: ReasonPickerUnavailable}
	}

	attr := c.attributionLocked()
	elig := Evaluate(GateInput{
		Validity:    c.s.validity,
		TripleCount: c.s.tripleCount,
		Destination: c.picker.GetValue(),
		Author:      attr.Author,
	})
	if elig.CanSubmit && c.validating {
		return Eligibility{Block: BlockValidationPending, Reason: ReasonValidationPending}
	}
	return elig
}

// Snapshot returns a consistent read-only view of the session.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:           c.stateLocked(),
		Content:         c.s.rawContent,
		Validity:        c.s.validity,
		TripleCount:     c.s.tripleCount,
		LastError:       c.s.lastError,
		AutomatedOrigin: c.s.automatedOrigin,
		UserModified:    c.s.userModified,
		Attribution:     c.attributionLocked(),
		Picker:          c.capability,
		Eligibility:     c.eligibilityLocked(),
		Submitting:      c.submitting,
	}
	if c.picker != nil {
		snap.Destination = c.picker.GetValue()
	}
	return snap
}

// =============================================================================
// EVENT DELIVERY
// =============================================================================

func (c *Controller) broadcast(cause string) {
	c.pending = append(c.pending, StateChanged{Cause: cause, Snapshot: c.snapshotLocked()})
}

// unlockAndEmit releases c.mu and delivers queued events in mutation order.
func (c *Controller) unlockAndEmit() {
	events := c.pending
	c.pending = nil
	if len(events) == 0 {
		c.mu.Unlock()
		return
	}

	c.emitMu.Lock()
	c.mu.Unlock()
	defer c.emitMu.Unlock()

	for _, ev := range events {
		c.sink.Emit(ev)
	}
}
