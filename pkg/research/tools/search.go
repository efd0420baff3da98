// Package tools holds the network-facing collaborators of the research
// engine: search providers, the page fetcher and PDF OCR.
package tools

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mikeboe/research-assistant/pkg/research"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

const (
	ProviderDuckDuckGo = "duckduckgo"
	ProviderBrave      = "brave"
	ProviderArxiv      = "arxiv"
)

// NewSearchProvider returns the provider registered under name.
func NewSearchProvider(name, braveAPIKey string, client *http.Client, logger *slog.Logger) (research.SearchProvider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ProviderDuckDuckGo:
		return NewDuckDuckGo(client, logger), nil
	case ProviderBrave:
		if braveAPIKey == "" {
			return nil, fmt.Errorf("search provider %q requires BRAVE_API_KEY", name)
		}
		return NewBrave(braveAPIKey, client, logger), nil
	case ProviderArxiv:
		return NewArxiv(client, logger), nil
	default:
		return nil, fmt.Errorf("unknown search provider %q", name)
	}
}

func httpClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return http.DefaultClient
}

func userAgentOr(ua string) string {
	if ua != "" {
		return ua
	}
	return defaultUserAgent
}

func loggerOr(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}
