package collector

import (
	"context"
	"math"
	"strings"

	"PersonIntel/internal/config"
	"PersonIntel/internal/domain"
	"PersonIntel/internal/matcher"
	"PersonIntel/internal/ports"
	"PersonIntel/internal/scanner"
)

// NewSocial builds the social profile collector.
func NewSocial(cfg config.FamilyConfig, registry *scanner.Registry[domain.SocialProfile], deps Deps) *Collector[domain.SocialProfile] {
	return newCollector(domain.FamilySocial, cfg, registry, rules[domain.SocialProfile]{
		score: scoreProfile,
		less:  byScore[domain.SocialProfile],
	}, deps)
}

// NewRegistry builds the sanctions and PEP registry collector.
func NewRegistry(cfg config.FamilyConfig, registry *scanner.Registry[domain.RegistryRecord], deps Deps) *Collector[domain.RegistryRecord] {
	return newCollector(domain.FamilyRegistry, cfg, registry, rules[domain.RegistryRecord]{
		score: scoreRegistryRecord,
		less:  byScore[domain.RegistryRecord],
	}, deps)
}

// NewNews builds the news collector. A nil enricher leaves articles untouched.
func NewNews(cfg config.FamilyConfig, registry *scanner.Registry[domain.NewsArticle], enricher ports.NewsEnricher, deps Deps) *Collector[domain.NewsArticle] {
	r := rules[domain.NewsArticle]{
		score:  scoreArticle,
		less:   newestFirst,
		window: true,
	}
	if enricher != nil {
		r.enrich = func(ctx context.Context, a domain.NewsArticle) (domain.NewsArticle, error) {
			enriched, err := enricher.Enrich(ctx, a)
			if err != nil {
				return a, err
			}
			enriched.RelevanceScore = a.RelevanceScore
			return enriched, nil
		}
	}
	return newCollector(domain.FamilyNews, cfg, registry, r, deps)
}

// scoreProfile takes the better of the name match and the relevance of the
// display name and bio.
func scoreProfile(name string, p domain.SocialProfile) domain.SocialProfile {
	label := p.DisplayName
	if label == "" {
		label = p.Username
	}
	text := strings.TrimSpace(p.DisplayName + " " + p.Bio)
	p.RelevanceScore = math.Max(matcher.NameSimilarity(label, name), matcher.ContentRelevance(text, name))
	return p
}

func scoreRegistryRecord(name string, r domain.RegistryRecord) domain.RegistryRecord {
	r.SimilarityScore = matcher.NameSimilarity(r.Name, name)
	return r
}

func scoreArticle(name string, a domain.NewsArticle) domain.NewsArticle {
	text := strings.TrimSpace(a.Title + " " + a.Content)
	if a.Content == "" {
		text = strings.TrimSpace(a.Title + " " + a.Summary)
	}
	a.RelevanceScore = matcher.ContentRelevance(text, name)
	return a
}

func byScore[R domain.SourceRecord](a, b R) bool {
	return a.Score() > b.Score()
}

// newestFirst orders dated articles by publication date, undated ones last.
func newestFirst(a, b domain.NewsArticle) bool {
	switch {
	case a.PublishedAt == nil:
		return false
	case b.PublishedAt == nil:
		return true
	default:
		return a.PublishedAt.After(*b.PublishedAt)
	}
}
