package clients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"google.golang.org/genai"
)

// GenAI adapts the native Gemini SDK to the langchaingo message interface
// the summarizer and synthesizer are written against.
type GenAI struct {
	client *genai.Client
	model  string
}

func NewGenAI(ctx context.Context, apiKey, model string) (*GenAI, error) {
	if apiKey == "" {
		return nil, errors.New("GOOGLE_API_KEY is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini API client: %w", err)
	}
	return &GenAI{client: client, model: model}, nil
}

// unsetTemperature marks a call without WithTemperature, so the model default
// applies and an explicit zero is still sent.
const unsetTemperature = -1

func (g *GenAI) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{Temperature: unsetTemperature}
	for _, opt := range options {
		opt(&opts)
	}
	model := g.model
	if opts.Model != "" {
		model = opts.Model
	}

	contents, config := toGenAIRequest(messages, opts)
	if len(contents) == 0 {
		return nil, errors.New("genai: no user content")
	}
	resp, err := g.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("genai generate: %w", err)
	}
	return fromGenAIResponse(resp), nil
}

// toGenAIRequest moves system messages into the system instruction and maps
// the remaining turns onto user and model roles.
func toGenAIRequest(messages []llms.MessageContent, opts llms.CallOptions) ([]*genai.Content, *genai.GenerateContentConfig) {
	config := &genai.GenerateContentConfig{}
	var system []*genai.Part
	var contents []*genai.Content

	for _, m := range messages {
		var parts []*genai.Part
		for _, p := range m.Parts {
			if text, ok := p.(llms.TextContent); ok && text.Text != "" {
				parts = append(parts, &genai.Part{Text: text.Text})
			}
		}
		if len(parts) == 0 {
			continue
		}
		switch m.Role {
		case llms.ChatMessageTypeSystem:
			system = append(system, parts...)
		case llms.ChatMessageTypeAI:
			contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: parts})
		default:
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: parts})
		}
	}

	if len(system) > 0 {
		config.SystemInstruction = &genai.Content{Parts: system}
	}
	if opts.Temperature >= 0 {
		temp := float32(opts.Temperature)
		config.Temperature = &temp
	}
	if opts.MaxTokens > 0 {
		config.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if opts.JSONMode {
		config.ResponseMIMEType = "application/json"
	}
	return contents, config
}

func fromGenAIResponse(resp *genai.GenerateContentResponse) *llms.ContentResponse {
	out := &llms.ContentResponse{}
	if resp == nil {
		return out
	}
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, part := range candidate.Content.Parts {
			if part != nil && !part.Thought {
				sb.WriteString(part.Text)
			}
		}
		out.Choices = append(out.Choices, &llms.ContentChoice{
			Content:    sb.String(),
			StopReason: string(candidate.FinishReason),
		})
	}
	return out
}
