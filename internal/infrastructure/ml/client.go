package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"PersonIntel/internal/domain"
	"PersonIntel/internal/ports"
)

// Client asks an external inference service to tag news articles.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.NewsEnricher = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(endpoint, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		apiKey:   apiKey,
		http:     httpClient,
	}
}

type enrichResponse struct {
	Sentiment string   `json:"sentiment"`
	Compound  *float64 `json:"compound"`
	Entities  []string `json:"entities"`
	Keywords  []string `json:"keywords"`
	Summary   string   `json:"summary"`
}

// Enrich sends the article text to /enrich and copies the tags back.
func (c *Client) Enrich(ctx context.Context, article domain.NewsArticle) (domain.NewsArticle, error) {
	payload := map[string]any{
		"title":   article.Title,
		"content": article.Content,
	}

	var resp enrichResponse
	if err := c.post(ctx, "/enrich", payload, &resp); err != nil {
		return article, err
	}

	switch {
	case resp.Compound != nil:
		article.Sentiment = domain.SentimentFromCompound(*resp.Compound)
	case resp.Sentiment != "":
		article.Sentiment = domain.Sentiment(strings.ToLower(resp.Sentiment))
	}
	article.Entities = resp.Entities
	article.Keywords = resp.Keywords
	if article.Summary == "" {
		article.Summary = resp.Summary
	}
	return article, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.FetchError{URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &domain.FetchError{URL: req.URL.String(), StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Fallback tries the primary enricher and uses the secondary when it fails.
type Fallback struct {
	Primary   ports.NewsEnricher
	Secondary ports.NewsEnricher
}

var _ ports.NewsEnricher = Fallback{}

// Enrich implements ports.NewsEnricher.
func (f Fallback) Enrich(ctx context.Context, article domain.NewsArticle) (domain.NewsArticle, error) {
	if f.Primary != nil {
		enriched, err := f.Primary.Enrich(ctx, article)
		if err == nil || f.Secondary == nil {
			return enriched, err
		}
	}
	if f.Secondary == nil {
		return article, nil
	}
	return f.Secondary.Enrich(ctx, article)
}
