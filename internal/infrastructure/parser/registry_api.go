package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"PersonIntel/internal/domain"
	"PersonIntel/internal/scanner"
)

// OpenSanctionsScanner searches the OpenSanctions person index.
type OpenSanctionsScanner struct {
	fetcher
}

// SanctionsListScanner searches government sanctions lists (OFAC, UN, EU).
type SanctionsListScanner struct {
	fetcher
}

// ScreeningScanner queries commercial screening services such as World-Check
// and Dow Jones Risk & Compliance.
type ScreeningScanner struct {
	fetcher
}

var (
	_ scanner.Scanner[domain.RegistryRecord] = (*OpenSanctionsScanner)(nil)
	_ scanner.Scanner[domain.RegistryRecord] = (*SanctionsListScanner)(nil)
	_ scanner.Scanner[domain.RegistryRecord] = (*ScreeningScanner)(nil)
)

// NewOpenSanctionsScanner wires an HTTP client.
func NewOpenSanctionsScanner(client *http.Client, userAgent string) *OpenSanctionsScanner {
	return &OpenSanctionsScanner{fetcher: newFetcher(client, userAgent)}
}

// NewSanctionsListScanner wires an HTTP client.
func NewSanctionsListScanner(client *http.Client, userAgent string) *SanctionsListScanner {
	return &SanctionsListScanner{fetcher: newFetcher(client, userAgent)}
}

// NewScreeningScanner wires an HTTP client.
func NewScreeningScanner(client *http.Client, userAgent string) *ScreeningScanner {
	return &ScreeningScanner{fetcher: newFetcher(client, userAgent)}
}

func (o *OpenSanctionsScanner) Name() string { return "opensanctions" }
func (s *SanctionsListScanner) Name() string { return "sanctions_list" }
func (s *ScreeningScanner) Name() string     { return "screening_api" }

type openSanctionsEntity struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	URL          string   `json:"url"`
	Position     string   `json:"position"`
	Organization string   `json:"organization"`
	Country      string   `json:"country"`
	Political    bool     `json:"political"`
	Sanctions    []string `json:"sanctions"`
	Datasets     []string `json:"datasets"`
	Related      []struct {
		Name         string `json:"name"`
		Relationship string `json:"relationship"`
	} `json:"related"`
}

// Scan queries the search endpoint and classifies each entity.
func (o *OpenSanctionsScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.RegistryRecord, error) {
	ctx, cancel := withTimeout(ctx, req.Timeout)
	defer cancel()

	params := url.Values{}
	params.Set("q", req.Query)
	params.Set("limit", strconv.Itoa(limitOr(req.Limit, 20)))

	headers := map[string]string{}
	if req.APIKey != "" {
		headers["Authorization"] = "ApiKey " + req.APIKey
	}

	var resp struct {
		Results []openSanctionsEntity `json:"results"`
	}
	if err := o.getJSON(ctx, req.Endpoint, params, headers, &resp); err != nil {
		return nil, fmt.Errorf("search %s: %w", req.Source, err)
	}

	records := make([]domain.RegistryRecord, 0, len(resp.Results))
	for _, e := range resp.Results {
		link := e.URL
		if link == "" && e.ID != "" {
			link = "https://opensanctions.org/entities/" + e.ID
		}
		record := domain.RegistryRecord{
			Source:       req.Source,
			Name:         e.Name,
			Position:     e.Position,
			Organization: e.Organization,
			Country:      e.Country,
			Sanctions:    e.Sanctions,
			Watchlists:   e.Datasets,
			URL:          link,
		}
		for _, r := range e.Related {
			record.RelatedEntities = append(record.RelatedEntities, relation(r.Name, r.Relationship))
		}
		switch {
		case len(e.Sanctions) > 0:
			record.Category, record.RiskLevel = "sanction", domain.RiskHigh
		case e.Position != "" || e.Political:
			record.Category, record.RiskLevel = "pep", domain.RiskMedium
		default:
			record.Category, record.RiskLevel = "other", domain.RiskLow
		}
		records = append(records, record)
	}
	return records, nil
}

type sanctionsEntry struct {
	Name         string `json:"name"`
	URL          string `json:"url"`
	Title        string `json:"title"`
	Organization string `json:"organization"`
	Nationality  string `json:"nationality"`
	Country      string `json:"country"`
	Program      string `json:"program"`
	ListingDate  string `json:"listingDate"`
}

// Scan queries a sanctions list. Every listed entry is high risk.
func (s *SanctionsListScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.RegistryRecord, error) {
	ctx, cancel := withTimeout(ctx, req.Timeout)
	defer cancel()

	params := url.Values{}
	params.Set(req.Option("nameParam", "name"), req.Query)
	if kind := req.Option("type", ""); kind != "" {
		params.Set("type", kind)
	}

	var resp struct {
		Results []sanctionsEntry `json:"results"`
	}
	if err := s.getJSON(ctx, req.Endpoint, params, nil, &resp); err != nil {
		return nil, fmt.Errorf("search %s: %w", req.Source, err)
	}

	records := make([]domain.RegistryRecord, 0, len(resp.Results))
	for _, e := range resp.Results {
		record := domain.RegistryRecord{
			Source:       req.Source,
			Name:         e.Name,
			Position:     e.Title,
			Organization: e.Organization,
			Country:      firstNonEmpty(e.Nationality, e.Country),
			Category:     "sanction",
			Watchlists:   []string{req.Source},
			RiskLevel:    domain.RiskHigh,
			URL:          e.URL,
			StartDate:    e.ListingDate,
		}
		if e.Program != "" {
			record.Sanctions = []string{e.Program}
		}
		records = append(records, record)
	}
	return records, nil
}

type screeningHit struct {
	Name            string   `json:"name"`
	Position        string   `json:"position"`
	PrimaryCategory string   `json:"primary_category"`
	CountryNames    []string `json:"country_names"`
	Categories      []string `json:"categories"`
	Watchlists      []string `json:"watchlists"`
	UpdateDate      string   `json:"update_date"`
	Sanctions       []struct {
		Name string `json:"name"`
		Date string `json:"date"`
	} `json:"sanctions"`
	Associates []struct {
		Name         string `json:"name"`
		Relationship string `json:"relationship"`
	} `json:"associates"`
}

// Scan posts a fuzzy name screening request.
func (s *ScreeningScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.RegistryRecord, error) {
	ctx, cancel := withTimeout(ctx, req.Timeout)
	defer cancel()

	payload := map[string]any{
		"name":       req.Query,
		"match_type": req.Option("matchType", "fuzzy"),
		"categories": []string{"PEP", "SANCTION", "ENFORCEMENT", "ADVERSE_MEDIA"},
		"date_type":  "current",
	}
	headers := map[string]string{}
	if req.APIKey != "" {
		headers["Authorization"] = "Bearer " + req.APIKey
	}

	var resp struct {
		Hits []screeningHit `json:"hits"`
	}
	if err := s.postJSON(ctx, req.Endpoint, payload, headers, &resp); err != nil {
		return nil, fmt.Errorf("screen %s: %w", req.Source, err)
	}

	records := make([]domain.RegistryRecord, 0, len(resp.Hits))
	for _, h := range resp.Hits {
		record := domain.RegistryRecord{
			Source:       req.Source,
			Name:         h.Name,
			Position:     h.Position,
			Organization: h.PrimaryCategory,
			Watchlists:   h.Watchlists,
			Category:     strings.ToLower(strings.Join(h.Categories, ",")),
		}
		if len(h.CountryNames) > 0 {
			record.Country = h.CountryNames[0]
		}
		if h.UpdateDate != "" {
			record.Details = map[string]string{"updated": h.UpdateDate}
		}
		for _, sn := range h.Sanctions {
			record.Sanctions = append(record.Sanctions, strings.TrimSpace(sn.Name+" "+sn.Date))
		}
		for _, a := range h.Associates {
			record.RelatedEntities = append(record.RelatedEntities, relation(a.Name, a.Relationship))
		}
		record.RiskLevel = screeningRisk(h.Categories)
		records = append(records, record)
	}
	return records, nil
}

func screeningRisk(categories []string) domain.RiskLevel {
	has := func(want string) bool {
		for _, c := range categories {
			if strings.EqualFold(c, want) {
				return true
			}
		}
		return false
	}
	switch {
	case has("SANCTION"):
		return domain.RiskHigh
	case has("PEP"), has("ADVERSE_MEDIA"):
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

func relation(name, relationship string) string {
	if relationship == "" {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, relationship)
}

func limitOr(limit, fallback int) int {
	if limit > 0 {
		return limit
	}
	return fallback
}
