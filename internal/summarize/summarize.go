// Package summarize wraps a language model behind the Summarizer contract
// and cleans up what the model produces.
//
// Generation is sampling based: the same text may yield a different summary
// on every call.
package summarize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"text/template"

	"github.com/tmc/langchaingo/llms"

	"github.com/rahul/papersum/internal/observability"
)

// DefaultPromptTemplate asks for a single paragraph and ends with the
// "Summary:" cue that Sanitize splits on.
const DefaultPromptTemplate = `You are an academic paper summarizer. Provide a concise, single-paragraph summary of the following abstract.

Abstract:
{{.Text}}

Summary:`

// ErrEmptyResponse is returned when the model produced no choices.
var ErrEmptyResponse = errors.New("model returned no content")

// Options are the sampling parameters passed on every call.
type Options struct {
	MaxNewTokens  int
	Temperature   float64
	TopP          float64
	MaxInputChars int
}

func DefaultOptions() Options {
	return Options{
		MaxNewTokens:  250,
		Temperature:   0.7,
		TopP:          0.9,
		MaxInputChars: 2000,
	}
}

// LLMSummarizer produces summaries with a langchaingo model. Calls are
// serialised: the model handle is shared by every run in the process.
type LLMSummarizer struct {
	mu        sync.Mutex
	model     llms.Model
	modelName string
	opts      Options
	tmpl      *template.Template
	logger    *observability.Logger
}

// New builds a summarizer. An empty promptTemplate selects
// DefaultPromptTemplate; the template receives {{.Text}}.
func New(model llms.Model, modelName string, opts Options, promptTemplate string, logger *observability.Logger) (*LLMSummarizer, error) {
	if model == nil {
		return nil, errors.New("summarizer: nil model")
	}
	if promptTemplate == "" {
		promptTemplate = DefaultPromptTemplate
	}
	tmpl, err := template.New("summarizer").Parse(promptTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse summarizer prompt: %w", err)
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	def := DefaultOptions()
	if opts.MaxNewTokens <= 0 {
		opts.MaxNewTokens = def.MaxNewTokens
	}
	if opts.MaxInputChars <= 0 {
		opts.MaxInputChars = def.MaxInputChars
	}
	return &LLMSummarizer{
		model:     model,
		modelName: modelName,
		opts:      opts,
		tmpl:      tmpl,
		logger:    logger,
	}, nil
}

// Prompt renders the prompt for text, cut to MaxInputChars runes.
func (s *LLMSummarizer) Prompt(text string) (string, error) {
	if r := []rune(text); len(r) > s.opts.MaxInputChars {
		text = string(r[:s.opts.MaxInputChars])
	}
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, struct{ Text string }{text}); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}

// Generate sends prompt to the model and returns its raw output.
func (s *LLMSummarizer) Generate(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp, err := s.model.GenerateContent(ctx,
		[]llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)},
		llms.WithMaxTokens(s.opts.MaxNewTokens),
		llms.WithTemperature(s.opts.Temperature),
		llms.WithTopP(s.opts.TopP),
	)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Content, nil
}

// Summarize renders the prompt for text, generates and sanitizes the result.
// The run ID, when present on ctx, tags the LLM log entry.
func (s *LLMSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	prompt, err := s.Prompt(text)
	if err != nil {
		return "", err
	}
	raw, err := s.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("model %s: %w", s.modelName, err)
	}
	s.logger.LogLLM(observability.RunID(ctx), s.modelName, prompt, raw)
	return Sanitize(raw, prompt), nil
}
