package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const mistralOCRURL = "https://api.mistral.ai/v1/ocr"

type PdfScrapeResponsePage struct {
	Index    int    `json:"index"`
	Markdown string `json:"markdown"`
}

type OcrResponse struct {
	Pages []PdfScrapeResponsePage `json:"pages"`
}

// MistralOCR reads PDF documents through the Mistral OCR API.
type MistralOCR struct {
	APIKey  string
	BaseURL string
	Model   string
	Client  *http.Client
}

func NewMistralOCR(apiKey string, client *http.Client) *MistralOCR {
	return &MistralOCR{APIKey: apiKey, BaseURL: mistralOCRURL, Model: "mistral-ocr-latest", Client: client}
}

// ReadPDF returns the text of the PDF at documentURL, one block per page.
func (m *MistralOCR) ReadPDF(ctx context.Context, documentURL string) (string, error) {
	if m.APIKey == "" {
		return "", errors.New("MISTRAL_API_KEY is not set")
	}
	documentURL = strings.Replace(documentURL, "http://", "https://", 1)
	base := m.BaseURL
	if base == "" {
		base = mistralOCRURL
	}

	reqBody := map[string]any{
		"model": m.Model,
		"document": map[string]string{
			"type":         "document_url",
			"document_url": documentURL,
		},
		"include_image_base64": false,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.APIKey)

	resp, err := httpClient(m.Client).Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status: %s", resp.Status)
	}

	var ocrResponse OcrResponse
	if err := json.Unmarshal(body, &ocrResponse); err != nil {
		return "", fmt.Errorf("failed to unmarshal OCR response: %w", err)
	}

	var sb strings.Builder
	for _, page := range ocrResponse.Pages {
		text := strings.TrimSpace(page.Markdown)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}
