package parser

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"PersonIntel/internal/domain"
	"PersonIntel/internal/scanner"
)

func TestNewsAPIScannerBingStyle(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Ocp-Apim-Subscription-Key") != "bing-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		q := r.URL.Query()
		if q.Get("q") != "Alex Example" || q.Get("count") != "5" || q.Get("from") != "2025-01-01" {
			t.Errorf("unexpected params %v", q)
		}
		_, _ = w.Write([]byte(`{"value":[{"name":"Alex Example fined","url":"https://n.example/1","description":"Alex Example was fined.","datePublished":"2025-03-01T08:00:00.0000000Z"}]}`))
	}))
	defer server.Close()

	sc := NewNewsAPIScanner(server.Client(), "")
	articles, err := sc.Scan(context.Background(), scanner.Request{
		Query:    "Alex Example",
		Source:   "bing_news",
		Endpoint: server.URL + "/news/search",
		APIKey:   "bing-key",
		Limit:    5,
		Since:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Options:  map[string]string{"authHeader": "Ocp-Apim-Subscription-Key", "results": "value", "limitParam": "count"},
	})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	a := articles[0]
	if a.Title != "Alex Example fined" || a.Content != "Alex Example was fined." || a.Source != "bing_news" {
		t.Fatalf("unexpected article: %+v", a)
	}
	if a.PublishedAt == nil || a.PublishedAt.Format("2006-01-02") != "2025-03-01" {
		t.Fatalf("unexpected date: %v", a.PublishedAt)
	}
}

func TestNewsAPIScannerBearerAuth(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer lx" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(`{"articles":[{"title":"T","url":"u","authors":["A"],"content":"c","snippet":"s","publishedDate":"2024-02-02"}]}`))
	}))
	defer server.Close()

	articles, err := NewNewsAPIScanner(server.Client(), "").Scan(context.Background(), scanner.Request{
		Query: "x", Source: "lexisnexis", Endpoint: server.URL, APIKey: "lx",
	})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(articles) != 1 || articles[0].Summary != "s" || articles[0].Authors[0] != "A" {
		t.Fatalf("unexpected articles: %+v", articles)
	}
}

func TestOpenSanctionsScanner(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "ApiKey os-key" {
			t.Errorf("unexpected auth %q", r.Header.Get("Authorization"))
		}
		if r.URL.Query().Get("limit") != "20" {
			t.Errorf("unexpected limit %q", r.URL.Query().Get("limit"))
		}
		_, _ = w.Write([]byte(`{"results":[
		  {"id":"Q1","name":"Alex Example","sanctions":["EU 2022/1"],"datasets":["eu_fsf"]},
		  {"id":"Q2","name":"Alex Example","position":"Minister","related":[{"name":"B Example","relationship":"spouse"}]},
		  {"id":"Q3","name":"Alex Examples","url":"https://os.example/Q3"}
		]}`))
	}))
	defer server.Close()

	records, err := NewOpenSanctionsScanner(server.Client(), "").Scan(context.Background(), scanner.Request{
		Query: "Alex Example", Source: "opensanctions", Endpoint: server.URL, APIKey: "os-key",
	})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].RiskLevel != domain.RiskHigh || records[0].URL != "https://opensanctions.org/entities/Q1" {
		t.Fatalf("unexpected sanctioned record: %+v", records[0])
	}
	if records[1].RiskLevel != domain.RiskMedium || records[1].RelatedEntities[0] != "B Example (spouse)" {
		t.Fatalf("unexpected pep record: %+v", records[1])
	}
	if records[2].RiskLevel != domain.RiskLow || records[2].URL != "https://os.example/Q3" {
		t.Fatalf("unexpected other record: %+v", records[2])
	}
}

func TestSanctionsListScanner(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("nameSearch") != "Alex Example" || q.Get("type") != "" {
			t.Errorf("unexpected params %v", q)
		}
		_, _ = w.Write([]byte(`{"results":[{"name":"Alex Example","nationality":"Freedonia","program":"SDN","listingDate":"2021-04-01"}]}`))
	}))
	defer server.Close()

	records, err := NewSanctionsListScanner(server.Client(), "").Scan(context.Background(), scanner.Request{
		Query: "Alex Example", Source: "un_sanctions", Endpoint: server.URL,
		Options: map[string]string{"nameParam": "nameSearch"},
	})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.RiskLevel != domain.RiskHigh || r.Country != "Freedonia" || r.Sanctions[0] != "SDN" || r.Watchlists[0] != "un_sanctions" {
		t.Fatalf("unexpected record: %+v", r)
	}
}

func TestScreeningScanner(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Authorization") != "Bearer wc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body["name"] != "Alex Example" {
			t.Errorf("unexpected body %v (%v)", body, err)
		}
		_, _ = w.Write([]byte(`{"hits":[
		  {"name":"Alex Example","categories":["PEP"],"country_names":["Freedonia"],"primary_category":"Government"},
		  {"name":"Alex Example","categories":["SANCTION","PEP"],"sanctions":[{"name":"OFAC","date":"2020"}]}
		]}`))
	}))
	defer server.Close()

	records, err := NewScreeningScanner(server.Client(), "").Scan(context.Background(), scanner.Request{
		Query: "Alex Example", Source: "worldcheck", Endpoint: server.URL, APIKey: "wc",
	})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].RiskLevel != domain.RiskMedium || records[0].Country != "Freedonia" {
		t.Fatalf("unexpected pep hit: %+v", records[0])
	}
	if records[1].RiskLevel != domain.RiskHigh || records[1].Sanctions[0] != "OFAC 2020" {
		t.Fatalf("unexpected sanction hit: %+v", records[1])
	}
}

func TestExpandTemplateEscapes(t *testing.T) {
	t.Parallel()

	got := expandTemplate("https://x.example/search?q={query}", map[string]string{"query": "Alex Example & Co"})
	if got != "https://x.example/search?q=Alex+Example+%26+Co" {
		t.Fatalf("unexpected url: %s", got)
	}
}
