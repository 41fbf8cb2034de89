package parser

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"PersonIntel/internal/domain"
	"PersonIntel/internal/logging"
	"PersonIntel/internal/scanner"
)

func TestParseDate(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"2025-11-08T10:30:00Z":   "2025-11-08",
		"2025-11-08":             "2025-11-08",
		"Published 8 Nov 2025":   "2025-11-08",
		"November 8, 2025":       "2025-11-08",
		"Updated 12 March 2024.": "2024-03-12",
	}
	for in, want := range cases {
		got, ok := parseDate(in)
		if !ok {
			t.Fatalf("parseDate(%q) failed", in)
		}
		if got.Format("2006-01-02") != want {
			t.Fatalf("parseDate(%q) = %s, want %s", in, got.Format("2006-01-02"), want)
		}
	}

	if _, ok := parseDate("yesterday"); ok {
		t.Fatalf("expected relative date to be rejected")
	}
}

func TestParseArticle(t *testing.T) {
	t.Parallel()

	html := `
	<html><head>
	  <title>Site | Fallback</title>
	  <meta name="author" content="Jane Roe">
	  <meta property="article:published_time" content="2025-11-08T09:00:00Z">
	</head><body>
	  <h1>Alex Example under investigation</h1>
	  <nav><p>Menu</p></nav>
	  <article>
	    <p>Alex Example was questioned.</p>
	    <p>  Officials declined to comment. </p>
	  </article>
	  <span class="author">Jane Roe</span>
	  <a rel="author">John Doe</a>
	</body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}

	article := parseArticle(doc, "google_news", resultLink{url: "https://news.example/a", title: "link title"})

	if article.Title != "Alex Example under investigation" {
		t.Fatalf("unexpected title: %s", article.Title)
	}
	if article.Content != "Alex Example was questioned. Officials declined to comment." {
		t.Fatalf("unexpected content: %q", article.Content)
	}
	if article.PublishedAt == nil || article.PublishedAt.Format("2006-01-02") != "2025-11-08" {
		t.Fatalf("unexpected published date: %v", article.PublishedAt)
	}
	if len(article.Authors) != 2 || article.Authors[0] != "Jane Roe" || article.Authors[1] != "John Doe" {
		t.Fatalf("unexpected authors: %v", article.Authors)
	}
	if article.Source != "google_news" || article.URL != "https://news.example/a" {
		t.Fatalf("unexpected provenance: %+v", article)
	}
}

func TestNewsSearchScannerScan(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "Alex Example" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`
		<article><a href="/articles/fresh">Fresh</a></article>
		<article><a href="/articles/old">Old</a></article>
		<article><a href="/articles/missing">Missing</a></article>
		<article><a href="/articles/fresh">Duplicate</a></article>`))
	})
	mux.HandleFunc("/articles/fresh", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<h1>Fresh story</h1><time datetime="2025-11-08">8 Nov</time><article><p>Alex Example spoke.</p></article>`))
	})
	mux.HandleFunc("/articles/old", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<h1>Old story</h1><time datetime="2020-01-01">then</time><p>Alex Example, years ago.</p>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	sc := NewNewsSearchScanner(server.Client(), "", logging.Discard())
	articles, err := sc.Scan(context.Background(), scanner.Request{
		Query:             "Alex Example",
		Source:            "google_news",
		SearchURLTemplate: server.URL + "/search?q={query}",
		Since:             time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Limit:             10,
	})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d: %+v", len(articles), articles)
	}
	if articles[0].Title != "Fresh story" || articles[0].Content != "Alex Example spoke." {
		t.Fatalf("unexpected article: %+v", articles[0])
	}
	if !strings.HasSuffix(articles[0].URL, "/articles/fresh") {
		t.Fatalf("unexpected url: %s", articles[0].URL)
	}
}

func TestNewsSearchScannerSearchFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	sc := NewNewsSearchScanner(server.Client(), "", logging.Discard())
	_, err := sc.Scan(context.Background(), scanner.Request{
		Query:             "Alex Example",
		Source:            "google_news",
		SearchURLTemplate: server.URL + "/search?q={query}",
	})

	var fetchErr *domain.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fetchErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("unexpected status: %d", fetchErr.StatusCode)
	}
}
