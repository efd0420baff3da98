package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/mikeboe/research-assistant/pkg/language"
)

// Summarizer writes a one-paragraph summary of a single source.
type Summarizer struct {
	gen generator
}

func NewSummarizer(model Model, opts Options) *Summarizer {
	return &Summarizer{gen: generator{model: model, opts: opts.withDefaults()}}
}

// Summarize returns the summary of text, written in language.
func (s *Summarizer) Summarize(ctx context.Context, title, text, lang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("summarize %q: no content", title)
	}

	messages, err := render(summarizePrompt, map[string]any{
		"language_instruction": language.Instruction(lang),
		"title":                title,
		"content":              text,
	})
	if err != nil {
		return "", err
	}

	out, err := s.gen.generateWithRetry(ctx, messages, nonEmpty,
		llms.WithTemperature(*s.gen.opts.Temperature),
		llms.WithMaxTokens(s.gen.opts.MaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("summarize %q: %w", title, err)
	}
	return strings.TrimSpace(out), nil
}
