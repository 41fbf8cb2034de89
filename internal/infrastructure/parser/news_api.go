package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"PersonIntel/internal/domain"
	"PersonIntel/internal/scanner"
)

// NewsAPIScanner queries JSON news search APIs (Bing News, LexisNexis, Factiva
// and similar). Field names vary by vendor; the common spellings are accepted.
type NewsAPIScanner struct {
	fetcher
}

var _ scanner.Scanner[domain.NewsArticle] = (*NewsAPIScanner)(nil)

// NewNewsAPIScanner wires an HTTP client.
func NewNewsAPIScanner(client *http.Client, userAgent string) *NewsAPIScanner {
	return &NewsAPIScanner{fetcher: newFetcher(client, userAgent)}
}

// Name identifies the strategy inside the registry.
func (n *NewsAPIScanner) Name() string {
	return "json_api"
}

type apiArticle struct {
	Title         string   `json:"title"`
	Name          string   `json:"name"`
	URL           string   `json:"url"`
	PublishedAt   string   `json:"publishedAt"`
	DatePublished string   `json:"datePublished"`
	PublishedDate string   `json:"publishedDate"`
	Author        string   `json:"author"`
	Authors       []string `json:"authors"`
	Content       string   `json:"content"`
	Description   string   `json:"description"`
	Snippet       string   `json:"snippet"`
}

// Scan issues one search request and maps the result list to articles.
func (n *NewsAPIScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.NewsArticle, error) {
	if req.Endpoint == "" {
		return nil, fmt.Errorf("source %s has no api url", req.Source)
	}
	ctx, cancel := withTimeout(ctx, req.Timeout)
	defer cancel()

	params := url.Values{}
	params.Set("q", req.Query)
	if !req.Since.IsZero() {
		params.Set("from", req.Since.Format("2006-01-02"))
	}
	if !req.Until.IsZero() {
		params.Set("to", req.Until.Format("2006-01-02"))
	}
	if req.Limit > 0 {
		params.Set(req.Option("limitParam", "limit"), strconv.Itoa(req.Limit))
	}

	headers := map[string]string{}
	if req.APIKey != "" {
		if header := req.Option("authHeader", ""); header != "" {
			headers[header] = req.APIKey
		} else {
			headers["Authorization"] = "Bearer " + req.APIKey
		}
	}

	var envelope map[string]json.RawMessage
	if err := n.getJSON(ctx, req.Endpoint, params, headers, &envelope); err != nil {
		return nil, fmt.Errorf("search %s: %w", req.Source, err)
	}

	var items []apiArticle
	if raw, ok := envelope[req.Option("results", "articles")]; ok {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode %s results: %w", req.Source, err)
		}
	}

	articles := make([]domain.NewsArticle, 0, len(items))
	for _, item := range items {
		articles = append(articles, item.toArticle(req.Source))
	}
	return articles, nil
}

func (a apiArticle) toArticle(source string) domain.NewsArticle {
	article := domain.NewsArticle{
		Source:  source,
		Title:   firstNonEmpty(a.Title, a.Name),
		URL:     a.URL,
		Content: firstNonEmpty(a.Content, a.Description),
		Summary: a.Snippet,
		Authors: a.Authors,
	}
	if a.Author != "" && len(article.Authors) == 0 {
		article.Authors = []string{a.Author}
	}
	if t, ok := parseDate(firstNonEmpty(a.PublishedAt, a.DatePublished, a.PublishedDate)); ok {
		article.PublishedAt = &t
	}
	return article
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
