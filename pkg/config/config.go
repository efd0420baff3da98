package config

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mikeboe/research-assistant/pkg/research"
)

const (
	ProviderGoogle    = "google"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGenAI     = "genai"
)

type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string
	LogFormat      string

	LLMProvider      string
	GoogleApiKey     string
	AnthropicApiKey  string
	OpenAIApiKey     string
	FastModel        string
	ReasoningModel   string
	Temperature      float64
	SummaryMaxTokens int
	MaxRetries       int
	RetryBackoff     time.Duration

	SearchProvider string
	BraveApiKey    string
	MistralApiKey  string

	FetchTimeout          time.Duration
	MaxContentChars       int
	TruncateHeadFraction  float64
	MaxWorkers            int
	MinSuccessfulSources  int
	EventBuffer           int
	LanguageMinConfidence float64
}

// Load reads the configuration from the environment, after merging a .env
// file from the working directory if there is one.
func Load() Config {
	_ = godotenv.Load()

	provider := strings.ToLower(getEnv("LLM_PROVIDER", ProviderGoogle))
	fast, reasoning := defaultModels(provider)

	return Config{
		Port:           getEnv("PORT", "8081"),
		AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),

		LLMProvider:      provider,
		GoogleApiKey:     getEnv("GOOGLE_API_KEY", ""),
		AnthropicApiKey:  getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIApiKey:     getEnv("OPENAI_API_KEY", ""),
		FastModel:        getEnv("FAST_MODEL", fast),
		ReasoningModel:   getEnv("REASONING_MODEL", reasoning),
		Temperature:      clampFloat(getEnvAsFloat("LLM_TEMPERATURE", 0.3), 0, 2),
		SummaryMaxTokens: positive(getEnvAsInt("SUMMARY_MAX_TOKENS", 500), 500),
		MaxRetries:       clampInt(getEnvAsInt("LLM_MAX_RETRIES", 3), 1, 10),
		RetryBackoff:     getEnvAsDuration("LLM_RETRY_BACKOFF", time.Second),

		SearchProvider: strings.ToLower(getEnv("SEARCH_PROVIDER", "duckduckgo")),
		BraveApiKey:    getEnv("BRAVE_API_KEY", ""),
		MistralApiKey:  getEnv("MISTRAL_API_KEY", ""),

		FetchTimeout:          getEnvAsDuration("FETCH_TIMEOUT", 30*time.Second),
		MaxContentChars:       positive(getEnvAsInt("MAX_CONTENT_CHARS", 8000), 8000),
		TruncateHeadFraction:  fraction(getEnvAsFloat("TRUNCATE_HEAD_FRACTION", 0.5), 0.5),
		MaxWorkers:            clampInt(getEnvAsInt("MAX_WORKERS", research.MaxSources), 1, research.MaxSources),
		MinSuccessfulSources:  clampInt(getEnvAsInt("MIN_SUCCESSFUL_SOURCES", 1), 1, research.MaxSources),
		EventBuffer:           clampInt(getEnvAsInt("EVENT_BUFFER", 16), 0, 1024),
		LanguageMinConfidence: clampFloat(getEnvAsFloat("LANGUAGE_MIN_CONFIDENCE", 0), 0, 1),
	}
}

func defaultModels(provider string) (fast, reasoning string) {
	switch provider {
	case ProviderAnthropic:
		return "claude-3-5-haiku-20241022", "claude-sonnet-4-20250514"
	case ProviderOpenAI:
		return "gpt-4o-mini", "gpt-4o"
	default:
		return "gemini-2.5-flash", "gemini-2.5-pro"
	}
}

// EngineSettings returns the pipeline settings derived from c.
func (c Config) EngineSettings() research.Settings {
	return research.Settings{
		FetchTimeout:    c.FetchTimeout,
		MaxContentChars: c.MaxContentChars,
		MaxWorkers:      c.MaxWorkers,
		MinSuccessful:   c.MinSuccessfulSources,
		EventBuffer:     c.EventBuffer,
	}
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(c.LogLevel)}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go durations ("45s") or a plain number of seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(valueStr); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.ParseFloat(valueStr, 64); err == nil && secs > 0 {
		return time.Duration(secs * float64(time.Second))
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

func clampFloat(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}

func positive(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

func fraction(v, fallback float64) float64 {
	if v <= 0 || v >= 1 {
		return fallback
	}
	return v
}
