package clients

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mikeboe/research-assistant/pkg/config"
	"github.com/mikeboe/research-assistant/pkg/language"
	"github.com/mikeboe/research-assistant/pkg/llm"
	"github.com/mikeboe/research-assistant/pkg/metrics"
	"github.com/mikeboe/research-assistant/pkg/report"
	"github.com/mikeboe/research-assistant/pkg/research"
	"github.com/mikeboe/research-assistant/pkg/research/tools"
	"github.com/mikeboe/research-assistant/pkg/truncate"
)

// Models returns the fast model used for per-source summaries and the
// reasoning model used for synthesis.
func Models(ctx context.Context, cfg config.Config) (fast, reasoning llm.Model, err error) {
	build := func(name string) (llm.Model, error) {
		switch cfg.LLMProvider {
		case config.ProviderGoogle:
			return GoogleAI(ctx, cfg.GoogleApiKey, name)
		case config.ProviderAnthropic:
			return AnthropicAI(cfg.AnthropicApiKey, name)
		case config.ProviderOpenAI:
			return OpenAI(cfg.OpenAIApiKey, name)
		case config.ProviderGenAI:
			return NewGenAI(ctx, cfg.GoogleApiKey, name)
		default:
			return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
		}
	}

	if fast, err = build(cfg.FastModel); err != nil {
		return nil, nil, err
	}
	if cfg.ReasoningModel == cfg.FastModel {
		return fast, fast, nil
	}
	if reasoning, err = build(cfg.ReasoningModel); err != nil {
		return nil, nil, err
	}
	return fast, reasoning, nil
}

// Dependencies assembles the production collaborators of the research engine.
func Dependencies(ctx context.Context, cfg config.Config, logger *slog.Logger) (research.Dependencies, error) {
	fast, reasoning, err := Models(ctx, cfg)
	if err != nil {
		return research.Dependencies{}, err
	}

	client := &http.Client{}
	search, err := tools.NewSearchProvider(cfg.SearchProvider, cfg.BraveApiKey, client, logger)
	if err != nil {
		return research.Dependencies{}, err
	}

	var pdf tools.PDFReader
	if cfg.MistralApiKey != "" {
		pdf = tools.NewMistralOCR(cfg.MistralApiKey, client)
	}

	temperature := cfg.Temperature
	opts := llm.Options{
		Temperature: &temperature,
		MaxTokens:   cfg.SummaryMaxTokens,
		MaxRetries:  cfg.MaxRetries,
		Backoff:     cfg.RetryBackoff,
		Logger:      logger,
	}

	return research.Dependencies{
		Search:      search,
		Extractor:   tools.NewFetcher(client, pdf, logger),
		Truncator:   truncate.New(cfg.TruncateHeadFraction),
		Summarizer:  llm.NewSummarizer(fast, opts),
		Synthesizer: llm.NewSynthesizer(reasoning, opts),
		Builder:     report.NewBuilder(),
		Language:    language.NewDetector(cfg.LanguageMinConfidence),
		Logger:      logger,
		Recorder:    metrics.Recorder{},
	}, nil
}

// NewEngine builds a research engine from cfg.
func NewEngine(ctx context.Context, cfg config.Config, logger *slog.Logger) (*research.Engine, error) {
	deps, err := Dependencies(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return research.NewEngine(cfg.EngineSettings(), deps)
}
