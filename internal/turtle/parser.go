// Package turtle adapts the knakk/rdf Turtle decoder to the editor's grammar
// collaborator.
package turtle

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/knakk/rdf"

	"ttlform/internal/editor"
)

// Triple is a decoded statement with each term in N-Triples form.
type Triple struct {
	Subject   string
	Predicate string
	Object    string
}

// Parser implements editor.Parser.
type Parser struct{}

// NewParser returns a Turtle parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse reports the number of triples in text or a *editor.ParseError.
func (p *Parser) Parse(text string) (editor.ParseResult, error) {
	triples, err := decode(text)
	if err != nil {
		return editor.ParseResult{}, err
	}
	return editor.ParseResult{TripleCount: len(triples)}, nil
}

// Triples decodes text into serialized triples.
func (p *Parser) Triples(text string) ([]Triple, error) {
	decoded, err := decode(text)
	if err != nil {
		return nil, err
	}

	out := make([]Triple, 0, len(decoded))
	for _, tr := range decoded {
		out = append(out, Triple{
			Subject:   tr.Subj.Serialize(rdf.NTriples),
			Predicate: tr.Pred.Serialize(rdf.NTriples),
			Object:    tr.Obj.Serialize(rdf.NTriples),
		})
	}
	return out, nil
}

func decode(text string) (triples []rdf.Triple, err error) {
	// The decoder panics on some truncated input.
	defer func() {
		if r := recover(); r != nil {
			triples = nil
			err = &editor.ParseError{Message: fmt.Sprintf("malformed turtle: %v", r)}
		}
	}()

	dec := rdf.NewTripleDecoder(strings.NewReader(text), rdf.Turtle)
	triples, err = dec.DecodeAll()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, &editor.ParseError{Message: err.Error()}
	}
	return triples, nil
}
