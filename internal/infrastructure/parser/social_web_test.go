package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"PersonIntel/internal/scanner"
)

func TestParseCount(t *testing.T) {
	t.Parallel()

	cases := map[string]int{
		"1,234":        1234,
		"12.5K":        12500,
		"3M followers": 3000000,
		"":             0,
		"many":         0,
		" 42 ":         42,
	}
	for in, want := range cases {
		if got := parseCount(in); got != want {
			t.Fatalf("parseCount(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestProfileScannerScan(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "Alex Example" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`
		<div class="profile-card" data-username="alexexample" data-verified="true">
		  <a href="/alexexample"><img src="/a.png"></a>
		  <span class="display-name">Alex Example</span>
		  <p class="bio">Investor. Views my own.</p>
		  <span class="location">Lisbon</span>
		  <span class="followers">12.5K</span>
		</div>
		<div class="profile-card">
		  <span class="username">@other</span>
		</div>
		<div class="profile-card"><p class="bio">no identity</p></div>`))
	}))
	defer server.Close()

	sc := NewProfileScanner(server.Client(), "")
	profiles, err := sc.Scan(context.Background(), scanner.Request{
		Query:              "Alex Example",
		Source:             "twitter",
		SearchURLTemplate:  server.URL + "/search?q={query}&f=user",
		ProfileURLTemplate: "https://twitter.example/{username}",
	})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(profiles))
	}

	first := profiles[0]
	if first.Username != "alexexample" || first.DisplayName != "Alex Example" {
		t.Fatalf("unexpected identity: %+v", first)
	}
	if first.URL != server.URL+"/alexexample" {
		t.Fatalf("unexpected url: %s", first.URL)
	}
	if !first.Verified || first.Followers != 12500 || first.Location != "Lisbon" {
		t.Fatalf("unexpected details: %+v", first)
	}

	second := profiles[1]
	if second.Username != "other" || second.URL != "https://twitter.example/other" {
		t.Fatalf("unexpected fallback profile: %+v", second)
	}
}
