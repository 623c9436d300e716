package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ttlform/internal/generator"
	"ttlform/internal/logging"
)

var (
	generateModel string
	generatePrint bool
)

// generateCmd drafts a document with Gemini and opens it as automated content
var generateCmd = &cobra.Command{
	Use:   "generate <prompt>",
	Short: "Draft Turtle with Gemini and open it in the editor",
	Long: `Asks Gemini for a Turtle document describing the prompt. The draft opens
in the editor credited to agent:<model>; once you change it, it is credited to you.

Needs generator.api_key or GEMINI_API_KEY.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&generateModel, "model", "", "Gemini model (default from config)")
	generateCmd.Flags().BoolVar(&generatePrint, "print", false, "Print the draft instead of opening the editor")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if cfg.Generator.APIKey == "" {
		return errors.New("no Gemini API key: set generator.api_key or GEMINI_API_KEY")
	}
	model := generateModel
	if model == "" {
		model = cfg.Generator.Model
	}

	ctx := cmd.Context()
	gemini, err := generator.NewGemini(ctx, cfg.Generator.APIKey, model)
	if err != nil {
		return err
	}

	gen := generator.New(gemini, model, cfg.GetGeneratorTimeout(), logs.Get(logging.CategoryGenerator))
	draft, err := gen.Generate(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}

	if generatePrint {
		fmt.Fprintf(cmd.OutOrStdout(), "# origin: %s\n%s\n", draft.Origin, draft.Content)
		return nil
	}
	return openEditor(ctx, draft.Content, draft.Origin)
}
