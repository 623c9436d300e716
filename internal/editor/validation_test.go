package editor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  Result
		calls int32
	}{
		{"empty", "", Result{Validity: ValidityEmpty}, 0},
		{"whitespace only", " \n\t ", Result{Validity: ValidityEmpty}, 0},
		{"single triple", oneTriple, Result{Validity: ValidityValid, TripleCount: 1}, 1},
		{"two triples", "ex:a ex:b ex:c .\nex:d ex:e ex:f .", Result{Validity: ValidityValid, TripleCount: 2}, 1},
		{"prefix only", "@prefix ex: <http://x/> .", Result{Validity: ValidityValid}, 1},
		{"malformed", "not turtle {{{", Result{Validity: ValidityInvalid, Error: "Unexpected token '{' at line 1"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &countingParser{}
			got := Validate(p, tt.text)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.calls, p.calls.Load())
		})
	}
}

func TestValidate_NonParseErrorUsesErrorText(t *testing.T) {
	p := ParserFunc(func(string) (ParseResult, error) {
		return ParseResult{}, errors.New("grammar engine crashed")
	})
	got := Validate(p, "ex:a ex:b ex:c .")
	assert.Equal(t, Result{Validity: ValidityInvalid, Error: "grammar engine crashed"}, got)
}

func TestValidate_EmptyParseErrorMessage(t *testing.T) {
	p := ParserFunc(func(string) (ParseResult, error) {
		return ParseResult{}, &ParseError{}
	})
	got := Validate(p, "x")
	assert.Equal(t, "parse error", got.Error)
}

func TestResult_Event(t *testing.T) {
	assert.Equal(t, ValidationChanged{Valid: true, TripleCount: 3},
		Result{Validity: ValidityValid, TripleCount: 3}.Event())
	assert.Equal(t, ValidationChanged{Error: "bad"},
		Result{Validity: ValidityInvalid, Error: "bad"}.Event())
	assert.Equal(t, ValidationChanged{Error: "Empty content"},
		Result{Validity: ValidityEmpty}.Event())
}
