package editor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	testIdentity    = "https://alice.example/profile/card#me"
	testDestination = "mntl:publ/imported"
	oneTriple       = "@prefix ex: <http://x/> .\nex:a ex:b ex:c ."
)

// manualScheduler fires timers only when the test advances its clock.
type manualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	s       *manualScheduler
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{s: s, at: s.now + d, fn: f}
	s.timers = append(s.timers, t)
	return t
}

// Advance moves the clock forward and runs every due timer outside the lock.
func (s *manualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due, keep []*manualTimer
	for _, t := range s.timers {
		switch {
		case t.stopped:
		case t.at <= s.now:
			t.fired = true
			due = append(due, t)
		default:
			keep = append(keep, t)
		}
	}
	s.timers = keep
	s.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

// recorder is an EventSink that keeps everything it receives.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Emit(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func (r *recorder) validations() []ValidationChanged {
	var out []ValidationChanged
	for _, ev := range r.all() {
		if v, ok := ev.(ValidationChanged); ok {
			out = append(out, v)
		}
	}
	return out
}

func (r *recorder) causes() []string {
	var out []string
	for _, ev := range r.all() {
		if sc, ok := ev.(StateChanged); ok {
			out = append(out, sc.Cause)
		}
	}
	return out
}

func (r *recorder) count(name string) int {
	n := 0
	for _, ev := range r.all() {
		if ev.EventName() == name {
			n++
		}
	}
	return n
}

// countingParser counts " ." terminators outside prefix lines and rejects "{{{".
type countingParser struct {
	calls  atomic.Int32
	onCall func(text string)
}

func (p *countingParser) Parse(text string) (ParseResult, error) {
	p.calls.Add(1)
	if p.onCall != nil {
		p.onCall(text)
	}
	if strings.Contains(text, "{{{") {
		return ParseResult{}, &ParseError{Message: "Unexpected token '{' at line 1"}
	}
	n := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "@prefix") {
			continue
		}
		n += strings.Count(line, " .")
	}
	return ParseResult{TripleCount: n}, nil
}

type fakePicker struct {
	mu        sync.Mutex
	value     string
	next      int
	listeners map[int]func(string)
}

func newFakePicker(value string) *fakePicker {
	return &fakePicker{value: value, listeners: make(map[int]func(string))}
}

func (p *fakePicker) GetValue() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

func (p *fakePicker) OnChange(fn func(string)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.next
	p.next++
	p.listeners[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, id)
	}
}

func (p *fakePicker) Set(value string) {
	p.mu.Lock()
	p.value = value
	fns := make([]func(string), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(value)
	}
}

func (p *fakePicker) subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.listeners)
}

// fakeTransport records documents and replies with whatever reply returns.
type fakeTransport struct {
	mu    sync.Mutex
	docs  []Document
	reply func(ctx context.Context, doc Document) (Receipt, error)
}

func (t *fakeTransport) Submit(ctx context.Context, doc Document) (Receipt, error) {
	t.mu.Lock()
	t.docs = append(t.docs, doc)
	reply := t.reply
	t.mu.Unlock()

	if reply == nil {
		return Receipt{ID: "sub-1"}, nil
	}
	return reply(ctx, doc)
}

func (t *fakeTransport) documents() []Document {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Document(nil), t.docs...)
}

// fixture is an attached controller wired to fakes.
type fixture struct {
	c         *Controller
	sink      *recorder
	clock     *manualScheduler
	picker    *fakePicker
	transport *fakeTransport
	parser    *countingParser
	identity  atomic.Pointer[string]
	resolves  atomic.Int32
}

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func newFixture(t *testing.T, mutate ...func(*Options)) *fixture {
	t.Helper()

	f := &fixture{
		sink:      &recorder{},
		clock:     &manualScheduler{},
		picker:    newFakePicker(testDestination),
		transport: &fakeTransport{},
		parser:    &countingParser{},
	}
	id := testIdentity
	f.identity.Store(&id)

	opts := Options{
		Parser:    f.parser,
		Transport: f.transport,
		Identity: IdentityFunc(func() (string, bool) {
			f.resolves.Add(1)
			id := f.identity.Load()
			if id == nil || *id == "" {
				return "", false
			}
			return *id, true
		}),
		PickerLoader: func(context.Context) (DestinationPicker, error) {
			return f.picker, nil
		},
		Sink:      f.sink,
		Scheduler: f.clock,
		Now:       func() time.Time { return fixedNow },
		NewID:     func() string { return "generated-id" },
	}
	for _, m := range mutate {
		m(&opts)
	}

	c, err := New(opts)
	require.NoError(t, err)
	f.c = c
	t.Cleanup(c.Detach)

	err = c.Attach(context.Background())
	var ce *ConfigurationError
	if err != nil && !errors.As(err, &ce) {
		t.Fatalf("attach: %v", err)
	}
	return f
}

func (f *fixture) setIdentity(id string) {
	f.identity.Store(&id)
}

// settle lets the debounce window elapse.
func (f *fixture) settle() {
	f.clock.Advance(DefaultDebounce)
}
