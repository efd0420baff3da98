package tools

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mikeboe/research-assistant/pkg/research"
)

const arxivURL = "https://export.arxiv.org/api/query"

// ArxivEntry struct to hold arXiv entry data
type ArxivEntry struct {
	ID        string      `xml:"id"`
	Title     string      `xml:"title"`
	Summary   string      `xml:"summary"`
	Published string      `xml:"published"`
	Link      []ArxivLink `xml:"link"`
}

// ArxivLink struct to hold arXiv link data
type ArxivLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

// ArxivFeed struct to hold the entire arXiv feed
type ArxivFeed struct {
	XMLName xml.Name     `xml:"feed"`
	Entry   []ArxivEntry `xml:"entry"`
}

// AbstractURL returns the entry's abstract page.
func (e ArxivEntry) AbstractURL() string {
	for _, link := range e.Link {
		if link.Rel == "alternate" && link.Href != "" {
			return link.Href
		}
	}
	return e.ID
}

// Arxiv searches arXiv papers. Each hit points at the paper's abstract page,
// which the fetcher extracts like any other article.
type Arxiv struct {
	BaseURL string
	Client  *http.Client
	Logger  *slog.Logger
}

func NewArxiv(client *http.Client, logger *slog.Logger) *Arxiv {
	return &Arxiv{BaseURL: arxivURL, Client: client, Logger: logger}
}

func (a *Arxiv) Search(ctx context.Context, topic string, count int) ([]research.SourceCandidate, error) {
	if count <= 0 {
		count = research.DefaultSources
	}
	base := a.BaseURL
	if base == "" {
		base = arxivURL
	}
	logger := loggerOr(a.Logger)

	params := url.Values{}
	params.Add("search_query", "all:"+topic)
	params.Add("max_results", strconv.Itoa(count))
	params.Add("start", "0")
	apiURL := base + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := httpClient(a.Client).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logger.Error("API returned non-200 status code", "status", resp.StatusCode, "body", string(bodyBytes))
		return nil, fmt.Errorf("API returned non-200 status code: %d", resp.StatusCode)
	}

	var feed ArxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal XML: %w", err)
	}

	var out []research.SourceCandidate
	for _, entry := range feed.Entry {
		link := entry.AbstractURL()
		if link == "" {
			continue
		}
		out = append(out, research.SourceCandidate{
			URL:     link,
			Title:   collapseSpace(entry.Title),
			Snippet: collapseSpace(entry.Summary),
			Rank:    len(out) + 1,
		})
		if len(out) == count {
			break
		}
	}
	logger.Info("arXiv search complete", "query", topic, "results", len(out))
	return out, nil
}
