// Package generator drafts Turtle documents with a language model. Drafts carry an
// automated-origin tag so the editor attributes them to the model until a human
// changes them.
package generator

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const systemPrompt = `You write RDF in Turtle syntax. Reply with a single Turtle document and nothing else.
Declare every prefix you use. Prefer well-known vocabularies (schema.org, FOAF, Dublin Core).`

// Model produces raw text for a prompt.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Gemini is a Model backed by the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini client.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required (set GEMINI_API_KEY)")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Name returns the model identifier.
func (g *Gemini) Name() string {
	return g.model
}

// Generate implements Model.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.2),
	})
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	return resp.Text(), nil
}

// Draft is a generated document ready for LoadContent.
type Draft struct {
	Content string
	Origin  string
}

// Generator turns prompts into drafts.
type Generator struct {
	model   Model
	name    string
	timeout time.Duration
	log     *zap.Logger
}

// New creates a generator. name is used in the origin tag "agent:<name>".
func New(m Model, name string, timeout time.Duration, log *zap.Logger) *Generator {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{model: m, name: name, timeout: timeout, log: log}
}

// Origin returns the automated-origin tag for this generator's drafts.
func (g *Generator) Origin() string {
	return "agent:" + g.name
}

// Generate asks the model for a document and strips any markdown around it.
func (g *Generator) Generate(ctx context.Context, prompt string) (Draft, error) {
	if strings.TrimSpace(prompt) == "" {
		return Draft{}, errors.New("prompt is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	raw, err := g.model.Generate(ctx, prompt)
	if err != nil {
		return Draft{}, err
	}

	content := ExtractTurtle(raw)
	if content == "" {
		return Draft{}, errors.New("model returned no content")
	}

	g.log.Info("draft generated",
		zap.String("origin", g.Origin()),
		zap.Int("bytes", len(content)),
		zap.Duration("elapsed", time.Since(start)))
	return Draft{Content: content, Origin: g.Origin()}, nil
}

var fenceRe = regexp.MustCompile("(?s)```[a-zA-Z]*[ \t]*\n(.*?)```")

// ExtractTurtle returns the body of the first fenced code block, or the trimmed
// text when there is none.
func ExtractTurtle(text string) string {
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}
