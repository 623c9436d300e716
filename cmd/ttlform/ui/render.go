package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"ttlform/internal/editor"
)

// isoMillis matches the browser-style timestamp shown next to "at:".
const isoMillis = "2006-01-02T15:04:05.000Z"

// statusKind selects the style of the validation line.
type statusKind int

const (
	statusEmpty statusKind = iota
	statusPending
	statusValid
	statusInvalid
)

// statusLine describes the validation state of a snapshot.
func statusLine(s editor.Snapshot) (statusKind, string) {
	switch s.State {
	case editor.StateValidating:
		return statusPending, "… Validating"
	case editor.StateValid:
		return statusValid, fmt.Sprintf("✓ Valid Turtle - %s", triples(s.TripleCount))
	case editor.StateInvalid:
		return statusInvalid, "✗ Invalid Turtle: " + s.LastError
	default:
		return statusEmpty, "⚠ Enter some Turtle content to begin"
	}
}

// byLine is the attribution shown next to "by:"; ok is false when nobody would
// be credited.
func byLine(a editor.Attribution) (text string, ok bool) {
	switch {
	case a.Author == "":
		return "not logged in", false
	case a.Source == editor.AuthorAutomated:
		return a.Author + " (automated)", true
	case a.Origin != "" && a.Modified:
		return a.Author + " (edited from " + a.Origin + ")", true
	default:
		return a.Author, true
	}
}

func atLine(now time.Time) string {
	if now.IsZero() {
		return "--"
	}
	return now.UTC().Format(isoMillis)
}

func triples(n int) string {
	if n == 1 {
		return "1 triple"
	}
	return fmt.Sprintf("%d triples", n)
}

func receiptMarkdown(ev editor.Submitted) string {
	var sb strings.Builder
	sb.WriteString("### Submitted\n\n")
	sb.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&sb, "| ID | `%s` |\n", ev.ID)
	fmt.Fprintf(&sb, "| Triples | %d |\n", ev.TripleCount)
	fmt.Fprintf(&sb, "| Destination | `%s` |\n", ev.Destination)
	fmt.Fprintf(&sb, "| Author | %s |\n", ev.Author)
	fmt.Fprintf(&sb, "| At | %s |\n", ev.At.UTC().Format(isoMillis))
	if ev.WasAutomated && !ev.WasModified {
		sb.WriteString("\nSubmitted unmodified, credited to the automated origin.\n")
	}
	return sb.String()
}

const helpMarkdown = `## Turtle Editor

Type or paste Turtle into the content panel. It is validated once you stop
typing for a moment.

| Key | Action |
|---|---|
| ctrl+s | submit to the target graph |
| ctrl+l | clear the form |
| tab | switch between content and target graph |
| f1 | toggle this help |
| esc | quit |

Submitting needs three things: a logged-in author (or untouched generated
content), valid Turtle, and a target graph. The button line names whichever
is missing first.
`

// markdownRenderer wraps glamour with a plain-text fallback.
type markdownRenderer struct {
	r *glamour.TermRenderer
}

func newMarkdownRenderer(theme Theme, width int) markdownRenderer {
	style := "light"
	if theme.IsDark {
		style = "dark"
	}
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return markdownRenderer{}
	}
	return markdownRenderer{r: r}
}

func (m markdownRenderer) render(md string) string {
	if m.r == nil {
		return md
	}
	out, err := m.r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
