package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ttlform/internal/editor"
	"ttlform/internal/turtle"
)

// errInvalidDocument makes the process exit non-zero after the report is printed.
var errInvalidDocument = errors.New("document is not valid Turtle")

// validateCmd runs one validation pass
var validateCmd = &cobra.Command{
	Use:   "validate <file|->",
	Short: "Validate a Turtle document",
	Long: `Parses the document once, the same way the editor does, and reports the
triple count or the parser's error. Exits 1 when the document is invalid or empty.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	text, err := readDocument(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}

	res := editor.Validate(turtle.NewParser(), text)
	out := cmd.OutOrStdout()
	switch res.Validity {
	case editor.ValidityValid:
		fmt.Fprintf(out, "valid: %d triple(s)\n", res.TripleCount)
		return nil
	case editor.ValidityInvalid:
		fmt.Fprintf(out, "invalid: %s\n", res.Error)
	default:
		fmt.Fprintln(out, "empty: enter some Turtle content")
	}
	return errInvalidDocument
}
