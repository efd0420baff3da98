// Package llm implements the language-model backed Summarizer and Synthesizer.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
)

// Model is the part of llms.Model the pipeline uses. Every langchaingo
// provider satisfies it.
type Model interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Options tune generation. Zero values select the defaults.
type Options struct {
	// Temperature defaults to 0.3 when nil. An explicit zero is kept.
	Temperature *float64
	MaxTokens   int
	// MaxRetries is the number of attempts per generation.
	MaxRetries int
	// Backoff is multiplied by the attempt number between attempts. Zero
	// retries immediately.
	Backoff time.Duration
	Logger  *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Temperature == nil {
		t := 0.3
		o.Temperature = &t
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = 500
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

var errNoChoices = errors.New("llm returned no choices")

type generator struct {
	model Model
	opts  Options
}

// generateWithRetry calls the model until validate accepts the output or the
// attempts are used up. The context is checked between attempts.
func (g generator) generateWithRetry(ctx context.Context, messages []llms.MessageContent, validate func(string) error, callOpts ...llms.CallOption) (string, error) {
	var lastErr error

	for i := 0; i < g.opts.MaxRetries; i++ {
		if i > 0 {
			g.opts.Logger.Warn("Retrying LLM generation", "attempt", i+1, "last_error", lastErr)
			if err := sleep(ctx, g.opts.Backoff*time.Duration(i)); err != nil {
				return "", err
			}
		}

		resp, err := g.model.GenerateContent(ctx, messages, callOpts...)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = fmt.Errorf("llm generation failed: %w", err)
			continue
		}
		if resp == nil || len(resp.Choices) == 0 {
			lastErr = errNoChoices
			continue
		}

		content := resp.Choices[0].Content
		if err := validate(content); err != nil {
			lastErr = fmt.Errorf("validation failed: %w", err)
			continue
		}
		return content, nil
	}

	return "", fmt.Errorf("operation failed after %d retries: %w", g.opts.MaxRetries, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func nonEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("empty response")
	}
	return nil
}
