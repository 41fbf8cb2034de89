package parser

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"PersonIntel/internal/domain"
	"PersonIntel/internal/scanner"
)

const (
	defaultProfileItem     = "[data-profile], .profile-card, .user-card"
	defaultProfileName     = "[data-name], .display-name, .name"
	defaultProfileUsername = "[data-username], .username, .handle"
	defaultProfileBio      = ".bio, .description"
	defaultProfileLocation = ".location"
	defaultProfileCount    = ".followers, [data-followers]"
)

// ProfileScanner reads people-search result pages of social platforms.
// Selectors can be overridden per source through options.
type ProfileScanner struct {
	fetcher
}

var _ scanner.Scanner[domain.SocialProfile] = (*ProfileScanner)(nil)

// NewProfileScanner wires an HTTP client.
func NewProfileScanner(client *http.Client, userAgent string) *ProfileScanner {
	return &ProfileScanner{fetcher: newFetcher(client, userAgent)}
}

// Name identifies the strategy inside the registry.
func (p *ProfileScanner) Name() string {
	return "web_profiles"
}

// Scan loads the search page and extracts one profile per result card.
func (p *ProfileScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.SocialProfile, error) {
	if req.SearchURLTemplate == "" {
		return nil, fmt.Errorf("source %s has no search url template", req.Source)
	}
	ctx, cancel := withTimeout(ctx, req.Timeout)
	defer cancel()

	pageURL := expandTemplate(req.SearchURLTemplate, map[string]string{"query": req.Query})
	doc, err := p.fetchDocument(ctx, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", req.Source, err)
	}

	var profiles []domain.SocialProfile
	doc.Find(req.Option("item", defaultProfileItem)).EachWithBreak(func(_ int, card *goquery.Selection) bool {
		profile, ok := parseProfile(card, req, pageURL)
		if ok {
			profiles = append(profiles, profile)
		}
		return req.Limit <= 0 || len(profiles) < req.Limit
	})
	return profiles, nil
}

func parseProfile(card *goquery.Selection, req scanner.Request, pageURL string) (domain.SocialProfile, bool) {
	username := attrOrText(card, req.Option("username", defaultProfileUsername), "data-username")
	username = strings.TrimPrefix(username, "@")
	display := attrOrText(card, req.Option("name", defaultProfileName), "data-name")
	if username == "" && display == "" {
		return domain.SocialProfile{}, false
	}

	link := ""
	if href, ok := card.Find("a[href]").First().Attr("href"); ok {
		link = resolveURL(pageURL, href)
	}
	if link == "" && username != "" && req.ProfileURLTemplate != "" {
		link = strings.ReplaceAll(req.ProfileURLTemplate, "{username}", username)
	}

	verified := card.Find(".verified, [data-verified='true']").Length() > 0 ||
		card.AttrOr("data-verified", "") == "true"

	return domain.SocialProfile{
		Source:       req.Source,
		Username:     username,
		DisplayName:  display,
		URL:          link,
		Bio:          cleanText(card.Find(req.Option("bio", defaultProfileBio)).First().Text()),
		Location:     cleanText(card.Find(req.Option("location", defaultProfileLocation)).First().Text()),
		Followers:    parseCount(attrOrText(card, req.Option("followers", defaultProfileCount), "data-followers")),
		Verified:     verified,
		ProfileImage: card.Find("img").First().AttrOr("src", ""),
	}, true
}

// attrOrText prefers the data attribute on the card, then the matched element's
// attribute, then its text.
func attrOrText(card *goquery.Selection, selector, attr string) string {
	if v := strings.TrimSpace(card.AttrOr(attr, "")); v != "" {
		return v
	}
	el := card.Find(selector).First()
	if v := strings.TrimSpace(el.AttrOr(attr, "")); v != "" {
		return v
	}
	return cleanText(el.Text())
}

// parseCount understands "1,234", "12.5K" and "3M".
func parseCount(raw string) int {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	raw = strings.ReplaceAll(raw, ",", "")
	if fields := strings.Fields(raw); len(fields) > 0 {
		raw = fields[0]
	}
	if raw == "" {
		return 0
	}

	multiplier := 1.0
	switch {
	case strings.HasSuffix(raw, "K"):
		multiplier, raw = 1e3, strings.TrimSuffix(raw, "K")
	case strings.HasSuffix(raw, "M"):
		multiplier, raw = 1e6, strings.TrimSuffix(raw, "M")
	case strings.HasSuffix(raw, "B"):
		multiplier, raw = 1e9, strings.TrimSuffix(raw, "B")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return int(v * multiplier)
}
