package editor

import (
	"errors"
	"strings"
)

// Validity is the tri-state outcome of the last completed validation.
type Validity int

const (
	ValidityEmpty Validity = iota
	ValidityValid
	ValidityInvalid
)

func (v Validity) String() string {
	switch v {
	case ValidityValid:
		return "valid"
	case ValidityInvalid:
		return "invalid"
	default:
		return "empty"
	}
}

// emptyContentMessage is reported in validation-changed notifications for blank input.
const emptyContentMessage = "Empty content"

// ParseResult is what the grammar collaborator reports for a well-formed document.
type ParseResult struct {
	TripleCount int
}

// Parser is the grammar collaborator. Malformed input returns a *ParseError.
type Parser interface {
	Parse(text string) (ParseResult, error)
}

// ParserFunc adapts a plain function to the Parser interface.
type ParserFunc func(text string) (ParseResult, error)

// Parse calls f(text).
func (f ParserFunc) Parse(text string) (ParseResult, error) {
	return f(text)
}

// Result is a completed validation.
// TripleCount is meaningful only for ValidityValid, Error only for ValidityInvalid.
type Result struct {
	Validity    Validity
	TripleCount int
	Error       string
}

// Validate runs one validation pass. Blank text never reaches the parser.
func Validate(p Parser, text string) Result {
	if strings.TrimSpace(text) == "" {
		return Result{Validity: ValidityEmpty}
	}

	parsed, err := p.Parse(text)
	if err != nil {
		msg := err.Error()
		var pe *ParseError
		if errors.As(err, &pe) {
			msg = pe.Message
		}
		if msg == "" {
			msg = "parse error"
		}
		return Result{Validity: ValidityInvalid, Error: msg}
	}

	return Result{Validity: ValidityValid, TripleCount: parsed.TripleCount}
}

// Event converts the result into its validation-changed notification.
func (r Result) Event() ValidationChanged {
	switch r.Validity {
	case ValidityValid:
		return ValidationChanged{Valid: true, TripleCount: r.TripleCount}
	case ValidityInvalid:
		return ValidationChanged{Valid: false, Error: r.Error}
	default:
		return ValidationChanged{Valid: false, Error: emptyContentMessage}
	}
}
