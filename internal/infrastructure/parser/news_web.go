package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"PersonIntel/internal/domain"
	"PersonIntel/internal/scanner"
)

const defaultResultLink = "a.DY5T1d, article a[href], h3 a[href], a.article-link"

var (
	dateExpr    = regexp.MustCompile(`\d{1,2} [A-Za-z]{3,9} \d{4}`)
	dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02", "2 Jan 2006", "2 January 2006", "January 2, 2006", "Jan 2, 2006"}
)

// NewsSearchScanner follows the result links of a news search page and parses
// each article page.
type NewsSearchScanner struct {
	fetcher
	logger *slog.Logger
}

var _ scanner.Scanner[domain.NewsArticle] = (*NewsSearchScanner)(nil)

// NewNewsSearchScanner wires an HTTP client.
func NewNewsSearchScanner(client *http.Client, userAgent string, logger *slog.Logger) *NewsSearchScanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &NewsSearchScanner{fetcher: newFetcher(client, userAgent), logger: logger}
}

// Name identifies the strategy inside the registry.
func (n *NewsSearchScanner) Name() string {
	return "web_search"
}

// Scan collects articles linked from the search page. Articles that fail to
// load are skipped; a failing search page fails the scan.
func (n *NewsSearchScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.NewsArticle, error) {
	if req.SearchURLTemplate == "" {
		return nil, fmt.Errorf("source %s has no search url template", req.Source)
	}
	ctx, cancel := withTimeout(ctx, req.Timeout)
	defer cancel()

	searchURL := expandTemplate(req.SearchURLTemplate, map[string]string{"query": req.Query})
	doc, err := n.fetchDocument(ctx, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", req.Source, err)
	}

	links := extractLinks(doc, searchURL, req.Option("link", defaultResultLink), req.Limit)
	articles := make([]domain.NewsArticle, 0, len(links))
	for _, link := range links {
		page, err := n.fetchDocument(ctx, link.url, nil)
		if err != nil {
			n.logger.Debug("skip article", "source", req.Source, "url", link.url, "error", err)
			continue
		}

		article := parseArticle(page, req.Source, link)
		if article.PublishedAt != nil && !req.Since.IsZero() && article.PublishedAt.Before(req.Since) {
			continue
		}
		articles = append(articles, article)
	}
	return articles, nil
}

type resultLink struct {
	url   string
	title string
}

func extractLinks(doc *goquery.Document, base, selector string, limit int) []resultLink {
	var (
		links []resultLink
		seen  = map[string]struct{}{}
	)
	doc.Find(selector).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := resolveURL(base, a.AttrOr("href", ""))
		if href == "" {
			return true
		}
		if _, ok := seen[href]; ok {
			return true
		}
		seen[href] = struct{}{}
		links = append(links, resultLink{url: href, title: cleanText(a.Text())})
		return limit <= 0 || len(links) < limit
	})
	return links
}

func parseArticle(doc *goquery.Document, source string, link resultLink) domain.NewsArticle {
	title := cleanText(doc.Find("h1").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find(`meta[property="og:title"]`).AttrOr("content", ""))
	}
	if title == "" {
		title = cleanText(doc.Find("title").First().Text())
	}
	if title == "" {
		title = link.title
	}

	return domain.NewsArticle{
		Source:      source,
		Title:       title,
		URL:         link.url,
		PublishedAt: extractPublished(doc),
		Authors:     extractAuthors(doc),
		Content:     extractContent(doc),
	}
}

func extractContent(doc *goquery.Document) string {
	for _, container := range []string{"article", ".article-body", ".story-body", ".content-body"} {
		if text := joinParagraphs(doc.Find(container).First().Find("p")); text != "" {
			return text
		}
	}
	return joinParagraphs(doc.Find("p"))
}

func joinParagraphs(sel *goquery.Selection) string {
	var parts []string
	sel.Each(func(_ int, p *goquery.Selection) {
		if text := cleanText(p.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, " ")
}

func extractPublished(doc *goquery.Document) *time.Time {
	candidates := []string{
		doc.Find(`meta[property="article:published_time"]`).AttrOr("content", ""),
		doc.Find("time[datetime]").First().AttrOr("datetime", ""),
		cleanText(doc.Find(".date, .published, .list-date").First().Text()),
	}
	for _, raw := range candidates {
		if t, ok := parseDate(raw); ok {
			return &t
		}
	}
	return nil
}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	if match := dateExpr.FindString(raw); match != "" {
		for _, layout := range []string{"2 Jan 2006", "2 January 2006"} {
			if t, err := time.Parse(layout, match); err == nil {
				return t.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

func extractAuthors(doc *goquery.Document) []string {
	var (
		authors []string
		seen    = map[string]bool{}
	)
	add := func(name string) {
		name = cleanText(name)
		if name != "" && !seen[name] {
			seen[name] = true
			authors = append(authors, name)
		}
	}

	doc.Find(`meta[name="author"]`).Each(func(_ int, s *goquery.Selection) { add(s.AttrOr("content", "")) })
	doc.Find(`.author, a[rel="author"]`).Each(func(_ int, s *goquery.Selection) { add(s.Text()) })
	return authors
}
