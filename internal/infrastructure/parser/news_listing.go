package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"PersonIntel/internal/domain"
	"PersonIntel/internal/scanner"
)

const (
	defaultListingItem    = "article, li.result, .search-result, dl > dt"
	defaultListingTitle   = "h2, h3, .title, .list-title"
	defaultListingSummary = ".summary, .snippet, p"
	defaultListingDate    = "time, .date, .list-date"
	defaultListingPage    = 50
	defaultListingPages   = 5
)

// ListingScanner walks a paginated, newest-first listing such as a regulator's
// enforcement releases and reads entries straight from the listing markup.
// Paging stops at the first entry older than the request window.
type ListingScanner struct {
	fetcher
}

var _ scanner.Scanner[domain.NewsArticle] = (*ListingScanner)(nil)

// NewListingScanner wires an HTTP client.
func NewListingScanner(client *http.Client, userAgent string) *ListingScanner {
	return &ListingScanner{fetcher: newFetcher(client, userAgent)}
}

// Name identifies the strategy inside the registry.
func (l *ListingScanner) Name() string {
	return "paged_listing"
}

// Scan reads pages until the window, the limit or the listing runs out.
func (l *ListingScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.NewsArticle, error) {
	if req.SearchURLTemplate == "" {
		return nil, fmt.Errorf("source %s has no search url template", req.Source)
	}
	ctx, cancel := withTimeout(ctx, req.Timeout)
	defer cancel()

	pageSize := optionInt(req, "pageSize", defaultListingPage)
	maxPages := optionInt(req, "maxPages", defaultListingPages)
	base := expandTemplate(req.SearchURLTemplate, map[string]string{"query": req.Query})

	var (
		results []domain.NewsArticle
		seen    = map[string]struct{}{}
	)
	for page := 0; page < maxPages; page++ {
		pageURL, err := buildPageURL(base, req.Option("offsetParam", "offset"), req.Option("sizeParam", "limit"), page*pageSize, pageSize)
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", req.Source, err)
		}
		doc, err := l.fetchDocument(ctx, pageURL, nil)
		if err != nil {
			if page > 0 {
				// Later pages are best effort.
				break
			}
			return nil, fmt.Errorf("listing %s: %w", req.Source, err)
		}

		entries, more := extractEntries(doc, pageURL, req, pageSize)
		for _, article := range entries {
			key := article.URL
			if key == "" {
				key = article.Title
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			results = append(results, article)
			if req.Limit > 0 && len(results) >= req.Limit {
				return results, nil
			}
		}
		if !more {
			break
		}
	}
	return results, nil
}

// extractEntries parses one page. more is false once an entry falls before the
// window or the page was not full.
func extractEntries(doc *goquery.Document, pageURL string, req scanner.Request, pageSize int) ([]domain.NewsArticle, bool) {
	var (
		collected []domain.NewsArticle
		more      = true
		processed int
	)

	doc.Find(req.Option("item", defaultListingItem)).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		processed++
		article, ok := parseEntry(item, pageURL, req)
		if !ok {
			return true
		}
		if article.PublishedAt != nil && !req.Since.IsZero() && article.PublishedAt.Before(req.Since) {
			more = false
			return false
		}
		if article.PublishedAt != nil && !req.Until.IsZero() && article.PublishedAt.After(req.Until) {
			return true
		}
		collected = append(collected, article)
		return true
	})

	if processed < pageSize {
		more = false
	}
	return collected, more
}

// parseEntry reads one listing item. Definition lists keep the body in the
// following dd element.
func parseEntry(item *goquery.Selection, pageURL string, req scanner.Request) (domain.NewsArticle, bool) {
	body := item
	if goquery.NodeName(item) == "dt" {
		body = item.AddSelection(item.NextFiltered("dd"))
	}

	link := body.Find(req.Option("link", "a[href]")).First()
	title := cleanText(body.Find(req.Option("title", defaultListingTitle)).First().Text())
	if title == "" {
		title = cleanText(link.Text())
	}
	if title == "" {
		return domain.NewsArticle{}, false
	}

	article := domain.NewsArticle{
		Source:  req.Source,
		Title:   title,
		URL:     resolveURL(pageURL, link.AttrOr("href", "")),
		Summary: cleanText(body.Find(req.Option("summary", defaultListingSummary)).First().Text()),
	}

	dateSel := body.Find(req.Option("date", defaultListingDate)).First()
	for _, raw := range []string{dateSel.AttrOr("datetime", ""), cleanText(dateSel.Text())} {
		if t, ok := parseDate(raw); ok {
			article.PublishedAt = &t
			break
		}
	}
	return article, true
}

func buildPageURL(base, offsetParam, sizeParam string, offset, pageSize int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid listing url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set(offsetParam, strconv.Itoa(offset))
	query.Set(sizeParam, strconv.Itoa(pageSize))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func optionInt(req scanner.Request, key string, fallback int) int {
	n, err := strconv.Atoi(req.Option(key, ""))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
