package clients

import (
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms/anthropic"
)

// AnthropicAI returns a Claude model served through langchaingo.
func AnthropicAI(apiKey, model string) (*anthropic.LLM, error) {
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY is not set")
	}
	llm, err := anthropic.New(anthropic.WithToken(apiKey), anthropic.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("failed to create Anthropic client: %w", err)
	}
	return llm, nil
}
