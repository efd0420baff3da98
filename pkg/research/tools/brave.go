package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mikeboe/research-assistant/pkg/research"
)

const braveURL = "https://api.search.brave.com/res/v1/web/search"

// Brave searches the web through the Brave Search API.
type Brave struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
	Logger  *slog.Logger
}

func NewBrave(apiKey string, client *http.Client, logger *slog.Logger) *Brave {
	return &Brave{APIKey: apiKey, BaseURL: braveURL, Client: client, Logger: logger}
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

func (b *Brave) Search(ctx context.Context, topic string, count int) ([]research.SourceCandidate, error) {
	if b.APIKey == "" {
		return nil, errors.New("BRAVE_API_KEY is not set")
	}
	base := b.BaseURL
	if base == "" {
		base = braveURL
	}
	params := url.Values{}
	params.Set("q", topic)
	if count > 0 {
		params.Set("count", strconv.Itoa(count))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.APIKey)

	resp, err := httpClient(b.Client).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var raw braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	var out []research.SourceCandidate
	for _, r := range raw.Web.Results {
		if count > 0 && len(out) >= count {
			break
		}
		if r.URL == "" {
			continue
		}
		out = append(out, research.SourceCandidate{
			URL:     r.URL,
			Title:   collapseSpace(r.Title),
			Snippet: collapseSpace(r.Description),
			Rank:    len(out) + 1,
		})
	}
	loggerOr(b.Logger).Info("Brave search complete", "query", topic, "results", len(out))
	return out, nil
}
