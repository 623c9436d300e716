package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"ttlform/internal/editor"
)

// Controller is the part of the editing session the page drives.
type Controller interface {
	OnUserEdit(text string)
	Clear()
	Submit(ctx context.Context) (editor.Submitted, error)
	Snapshot() editor.Snapshot
}

// Destination is the picker the target-graph field writes to.
type Destination interface {
	Value() string
	SetValue(value string)
}

// Config wires a Model.
type Config struct {
	Controller  Controller
	Destination Destination
	Pump        *EventPump
	Styles      Styles
	// Refresh is the "at:" clock interval (one second if zero).
	Refresh time.Duration
	Now     func() time.Time
	Logger  *zap.Logger
}

type focusArea int

const (
	focusContent focusArea = iota
	focusDestination
)

type tickMsg time.Time

type submitDoneMsg struct {
	err error
}

// Model is the editor page.
type Model struct {
	ctx   context.Context
	ctrl  Controller
	dest  Destination
	pump  *EventPump
	log   *zap.Logger
	now   func() time.Time
	every time.Duration

	styles   Styles
	keys     keyMap
	help     help.Model
	markdown markdownRenderer
	layout   LayoutConfig

	content textarea.Model
	target  textinput.Model
	focus   focusArea

	snap     editor.Snapshot
	asOf     time.Time
	notice   string
	receipt  string
	showHelp bool
}

// NewModel builds the page around an attached controller.
func NewModel(ctx context.Context, cfg Config) Model {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Refresh <= 0 {
		cfg.Refresh = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Pump == nil {
		cfg.Pump = NewEventPump()
	}

	ta := textarea.New()
	ta.Placeholder = "@prefix ex: <http://example.org/> .\n\nex:Alice ex:knows ex:Bob ."
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.ShowLineNumbers = true
	ta.Focus()

	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "mntl:publ/..."

	m := Model{
		ctx:     ctx,
		ctrl:    cfg.Controller,
		dest:    cfg.Destination,
		pump:    cfg.Pump,
		log:     cfg.Logger,
		now:     cfg.Now,
		every:   cfg.Refresh,
		styles:  cfg.Styles,
		keys:    defaultKeyMap(),
		help:    help.New(),
		content: ta,
		target:  ti,
		asOf:    cfg.Now(),
	}

	m.snap = m.ctrl.Snapshot()
	m.content.SetValue(m.snap.Content)
	if m.dest != nil {
		m.target.SetValue(m.dest.Value())
	}
	m.resize(CompactModeWidth, MinimumTerminalHeight+DefaultEditorHeight)
	return m
}

// Init starts the clock and the event pump.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.pump.Wait(), m.tick())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.every, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case eventsMsg:
		for _, ev := range msg {
			m.apply(ev)
		}
		return m, m.pump.Wait()

	case tickMsg:
		m.asOf = time.Time(msg)
		return m, m.tick()

	case submitDoneMsg:
		m.notice = submitNotice(msg.err)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.forward(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.pump.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case m.showHelp:
		m.showHelp = false
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m, m.submit()

	case key.Matches(msg, m.keys.Clear):
		m.ctrl.Clear()
		m.content.Reset()
		m.notice = ""
		m.receipt = ""
		return m, nil

	case key.Matches(msg, m.keys.NextField):
		m.toggleFocus()
		return m, nil
	}

	return m.forward(msg)
}

// forward hands msg to the focused field and reports edits to the session.
func (m Model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusContent:
		before := m.content.Value()
		m.content, cmd = m.content.Update(msg)
		if after := m.content.Value(); after != before {
			m.receipt = ""
			m.ctrl.OnUserEdit(after)
		}
	case focusDestination:
		before := m.target.Value()
		m.target, cmd = m.target.Update(msg)
		if after := m.target.Value(); after != before && m.dest != nil {
			m.dest.SetValue(after)
		}
	}
	return m, cmd
}

// submit runs the transport off the update loop. The controller re-checks the
// gate, so a stale snapshot can at worst produce a rejection notice.
func (m Model) submit() tea.Cmd {
	ctx, ctrl, log := m.ctx, m.ctrl, m.log
	return func() tea.Msg {
		sub, err := ctrl.Submit(ctx)
		if err == nil {
			log.Info("submitted", zap.String("id", sub.ID), zap.Int("triples", sub.TripleCount))
		}
		return submitDoneMsg{err: err}
	}
}

func submitNotice(err error) string {
	var ns *editor.NotSubmittableError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ns):
		return ns.Reason
	case errors.Is(err, editor.ErrSubmissionInFlight):
		return "Submission already in progress"
	case errors.Is(err, editor.ErrDetached):
		return "Editor closed"
	default:
		return "Submission failed: " + err.Error()
	}
}

func (m *Model) apply(ev editor.Event) {
	switch ev := ev.(type) {
	case editor.StateChanged:
		m.snap = ev.Snapshot
		switch ev.Cause {
		case editor.CauseLoad, editor.CauseClear, editor.CauseSubmitted, editor.CauseAttached:
			if m.content.Value() != ev.Snapshot.Content {
				m.content.SetValue(ev.Snapshot.Content)
			}
		}
		m.syncTarget(ev.Snapshot.Destination)

	case editor.DestinationChanged:
		m.syncTarget(ev.Destination)

	case editor.Submitted:
		m.receipt = m.markdown.render(receiptMarkdown(ev))
		m.notice = ""

	case editor.SubmissionFailed:
		if ev.Err != nil {
			m.notice = "Submission failed: " + ev.Err.Error()
		}
	}
}

// syncTarget mirrors picker changes into the field unless the user is typing there.
func (m *Model) syncTarget(value string) {
	if m.focus == focusDestination || m.target.Value() == value {
		return
	}
	m.target.SetValue(value)
}

func (m *Model) toggleFocus() {
	if m.focus == focusContent {
		m.focus = focusDestination
		m.content.Blur()
		m.target.Focus()
		return
	}
	m.focus = focusContent
	m.target.Blur()
	m.content.Focus()
}

func (m *Model) resize(width, height int) {
	m.layout = NewLayoutConfig(width, height)
	inner := m.layout.PanelContentWidth()
	m.content.SetWidth(inner)
	m.content.SetHeight(m.layout.EditorHeight())
	m.target.Width = inner
	m.help.Width = width
	m.markdown = newMarkdownRenderer(m.styles.Theme, inner)
}

// View renders the page.
func (m Model) View() string {
	width := m.layout.TerminalWidth
	if m.showHelp {
		return m.markdown.render(helpMarkdown) + "\n\n" + m.help.View(m.keys)
	}

	var sb strings.Builder

	sb.WriteString(m.header(width))
	sb.WriteString("\n")

	contentPanel, targetPanel := m.styles.Section, m.styles.Section
	if m.focus == focusContent {
		contentPanel = m.styles.Focused
	} else {
		targetPanel = m.styles.Focused
	}

	sb.WriteString(m.styles.Label.Render("Turtle (TTL) Content"))
	sb.WriteString("\n")
	sb.WriteString(contentPanel.Width(width - PanelBorderWidth*2).Render(m.content.View()))
	sb.WriteString("\n")
	sb.WriteString(m.status())
	sb.WriteString("\n\n")

	sb.WriteString(m.styles.Label.Render("Target Graph"))
	sb.WriteString("\n")
	sb.WriteString(m.targetView(targetPanel, width))
	sb.WriteString("\n")

	sb.WriteString(m.submitLine())
	sb.WriteString("\n")

	if m.receipt != "" {
		sb.WriteString(m.receipt)
		sb.WriteString("\n")
	}

	sb.WriteString(m.styles.RenderDivider(width))
	sb.WriteString("\n")
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

func (m Model) header(width int) string {
	title := m.styles.Header.Render("Ͳ Turtle Editor")

	by, ok := byLine(m.snap.Attribution)
	byStyle := m.styles.Success
	if !ok {
		byStyle = m.styles.Error
	}
	attr := m.styles.Label.Render("at: ") + m.styles.Value.Render(atLine(m.asOf)) +
		"  " + m.styles.Label.Render("by: ") + byStyle.Render(by)

	if m.layout.IsCompact {
		return title + "\n" + attr
	}
	gap := width - lipgloss.Width(title) - lipgloss.Width(attr)
	if gap < 1 {
		gap = 1
	}
	return title + strings.Repeat(" ", gap) + attr
}

func (m Model) status() string {
	kind, text := statusLine(m.snap)
	switch kind {
	case statusValid:
		return m.styles.Success.Render(text)
	case statusInvalid:
		return m.styles.Error.Render(text)
	case statusPending:
		return m.styles.Info.Render(text)
	default:
		return m.styles.Warning.Render(text)
	}
}

func (m Model) targetView(panel lipgloss.Style, width int) string {
	switch m.snap.Picker {
	case editor.CapabilityLoading:
		return m.styles.Muted.Render("Loading destination picker…")
	case editor.CapabilityUnavailable:
		return m.styles.Error.Render("✗ Destination picker not available")
	default:
		return panel.Width(width - PanelBorderWidth*2).Render(m.target.View())
	}
}

func (m Model) submitLine() string {
	elig := m.snap.Eligibility
	button := m.styles.ButtonDisabled.Render("Submit Turtle")
	if elig.CanSubmit && !m.snap.Submitting {
		button = m.styles.Button.Render("Submit Turtle")
	}

	reason := elig.Reason
	if m.snap.Submitting {
		reason = "Submitting…"
	}
	line := button + " " + m.styles.Muted.Render(reason)
	if m.notice != "" {
		line += "\n" + m.styles.Error.Render(m.notice)
	}
	return line
}

// Run starts the page on the terminal and blocks until the user quits.
func Run(ctx context.Context, m Model) error {
	defer m.pump.Close()
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
