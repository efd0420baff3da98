package tools

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mikeboe/research-assistant/pkg/research"
)

const duckDuckGoURL = "https://html.duckduckgo.com/html/"

// DuckDuckGo searches the web through the DuckDuckGo HTML endpoint. It needs
// no API key.
type DuckDuckGo struct {
	BaseURL   string
	Client    *http.Client
	UserAgent string
	Logger    *slog.Logger
}

func NewDuckDuckGo(client *http.Client, logger *slog.Logger) *DuckDuckGo {
	return &DuckDuckGo{BaseURL: duckDuckGoURL, Client: client, UserAgent: defaultUserAgent, Logger: logger}
}

// Search returns up to count organic results in page order.
func (d *DuckDuckGo) Search(ctx context.Context, topic string, count int) ([]research.SourceCandidate, error) {
	base := d.BaseURL
	if base == "" {
		base = duckDuckGoURL
	}
	params := url.Values{}
	params.Set("q", topic)
	apiURL := base + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgentOr(d.UserAgent))
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := httpClient(d.Client).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search returned status %d: %s", resp.StatusCode, string(body))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}

	results := parseDuckDuckGo(doc, count)
	loggerOr(d.Logger).Info("DuckDuckGo search complete", "query", topic, "results", len(results))
	return results, nil
}

func parseDuckDuckGo(doc *goquery.Document, count int) []research.SourceCandidate {
	var out []research.SourceCandidate
	seen := make(map[string]bool)

	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.HasClass("result--ad") {
			return true
		}
		a := s.Find("a.result__a").First()
		href, ok := a.Attr("href")
		if !ok {
			return true
		}
		link := unwrapDuckDuckGoLink(href)
		if link == "" || seen[link] {
			return true
		}
		seen[link] = true

		out = append(out, research.SourceCandidate{
			URL:     link,
			Title:   collapseSpace(a.Text()),
			Snippet: collapseSpace(s.Find(".result__snippet").First().Text()),
			Rank:    len(out) + 1,
		})
		return count <= 0 || len(out) < count
	})
	return out
}

// unwrapDuckDuckGoLink resolves "/l/?uddg=" redirect links to their target.
// Ad redirects and non-http links yield "".
func unwrapDuckDuckGoLink(href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if strings.HasSuffix(u.Host, "duckduckgo.com") || u.Host == "" {
		if u.Path == "/y.js" {
			return ""
		}
		target := u.Query().Get("uddg")
		if target == "" {
			return ""
		}
		if u, err = url.Parse(target); err != nil {
			return ""
		}
		if strings.HasSuffix(u.Host, "duckduckgo.com") && u.Path == "/y.js" {
			return ""
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
