package tools

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"github.com/mikeboe/research-assistant/pkg/research"
)

// DefaultMaxBodyBytes caps how much of a page is read.
const DefaultMaxBodyBytes = 5 << 20

// PDFReader extracts text from a PDF document by URL.
type PDFReader interface {
	ReadPDF(ctx context.Context, documentURL string) (string, error)
}

// Fetcher downloads pages and extracts their main content.
type Fetcher struct {
	Client       *http.Client
	UserAgent    string
	MaxBodyBytes int64
	// PDF is optional. Without it PDF documents fail extraction.
	PDF    PDFReader
	Logger *slog.Logger
}

func NewFetcher(client *http.Client, pdf PDFReader, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		Client:       client,
		UserAgent:    defaultUserAgent,
		MaxBodyBytes: DefaultMaxBodyBytes,
		PDF:          pdf,
		Logger:       logger,
	}
}

// Extract fetches rawURL and returns its readable text and title. Transport
// failures and non-2xx responses are fetch errors; pages without readable
// text are extraction errors.
func (f *Fetcher) Extract(ctx context.Context, rawURL string) (research.ExtractedContent, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return research.ExtractedContent{}, research.Errorf(research.KindFetch, "invalid url %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return research.ExtractedContent{}, research.NewError(research.KindFetch, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("User-Agent", userAgentOr(f.UserAgent))
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := httpClient(f.Client).Do(req)
	if err != nil {
		return research.ExtractedContent{}, research.NewError(research.KindFetch, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return research.ExtractedContent{}, research.Errorf(research.KindFetch, "%s returned status %d", u, resp.StatusCode)
	}

	if isPDF(resp.Header.Get("Content-Type"), u) {
		return f.extractPDF(ctx, u)
	}

	limit := f.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return research.ExtractedContent{}, research.NewError(research.KindFetch, fmt.Errorf("failed to read body: %w", err))
	}

	content, err := extractHTML(body, u)
	if err != nil {
		return research.ExtractedContent{}, err
	}
	loggerOr(f.Logger).Debug("Extracted page", "url", u.String(), "title", content.Title, "chars", len(content.Text))
	return content, nil
}

func (f *Fetcher) extractPDF(ctx context.Context, u *url.URL) (research.ExtractedContent, error) {
	if f.PDF == nil {
		return research.ExtractedContent{}, research.Errorf(research.KindExtraction, "pdf document %s and no pdf reader configured", u)
	}
	text, err := f.PDF.ReadPDF(ctx, u.String())
	if err != nil {
		return research.ExtractedContent{}, research.NewError(research.KindExtraction, fmt.Errorf("read pdf: %w", err))
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return research.ExtractedContent{}, research.Errorf(research.KindExtraction, "no text in pdf %s", u)
	}
	return research.ExtractedContent{URL: u.String(), Text: text}, nil
}

// extractHTML runs readability over body and falls back to goquery for the
// title.
func extractHTML(body []byte, u *url.URL) (research.ExtractedContent, error) {
	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return research.ExtractedContent{}, research.NewError(research.KindExtraction, fmt.Errorf("readability: %w", err))
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return research.ExtractedContent{}, research.Errorf(research.KindExtraction, "no readable text at %s", u)
	}

	title := collapseSpace(article.Title)
	if title == "" {
		if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
			title = extractTitle(doc)
		}
	}
	return research.ExtractedContent{URL: u.String(), Title: title, Text: text}, nil
}

// extractTitle extracts a title from HTML using goquery.
func extractTitle(doc *goquery.Document) string {
	if title := collapseSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if h1 := collapseSpace(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	if og, ok := doc.Find("meta[property='og:title']").First().Attr("content"); ok {
		return collapseSpace(og)
	}
	return ""
}

func isPDF(contentType string, u *url.URL) bool {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil && mt == "application/pdf" {
		return true
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".pdf")
}
