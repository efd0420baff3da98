package clients

import (
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAI returns an OpenAI chat model served through langchaingo.
func OpenAI(apiKey, model string) (*openai.LLM, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	llm, err := openai.New(openai.WithToken(apiKey), openai.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}
	return llm, nil
}
