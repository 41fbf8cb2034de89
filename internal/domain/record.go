package domain

import "time"

// Family groups sources that produce the same record shape.
type Family string

const (
	FamilySocial   Family = "social"
	FamilyRegistry Family = "registry"
	FamilyNews     Family = "news"
)

// Families lists every family in presentation order.
func Families() []Family {
	return []Family{FamilySocial, FamilyRegistry, FamilyNews}
}

// SourceRecord is implemented only by SocialProfile, RegistryRecord and NewsArticle.
type SourceRecord interface {
	Family() Family
	SourceName() string
	CanonicalURL() string
	Score() float64
	sourceRecord()
}

// SocialProfile is a public profile found on a social platform.
type SocialProfile struct {
	Source         string  `json:"source"`
	Username       string  `json:"username"`
	DisplayName    string  `json:"display_name"`
	URL            string  `json:"url"`
	Bio            string  `json:"bio,omitempty"`
	Location       string  `json:"location,omitempty"`
	Followers      int     `json:"followers_count,omitempty"`
	Following      int     `json:"following_count,omitempty"`
	Verified       bool    `json:"verified"`
	ProfileImage   string  `json:"profile_image,omitempty"`
	RelevanceScore float64 `json:"relevance_score"`
}

func (SocialProfile) Family() Family         { return FamilySocial }
func (p SocialProfile) SourceName() string   { return p.Source }
func (p SocialProfile) CanonicalURL() string { return p.URL }
func (p SocialProfile) Score() float64       { return p.RelevanceScore }
func (SocialProfile) sourceRecord()          {}

// RegistryRecord is an entry from a sanctions or politically exposed persons list.
type RegistryRecord struct {
	Source          string            `json:"source"`
	Name            string            `json:"name"`
	Position        string            `json:"position,omitempty"`
	Organization    string            `json:"organization,omitempty"`
	Country         string            `json:"country,omitempty"`
	Category        string            `json:"category,omitempty"`
	StartDate       string            `json:"start_date,omitempty"`
	EndDate         string            `json:"end_date,omitempty"`
	Sanctions       []string          `json:"sanctions,omitempty"`
	Watchlists      []string          `json:"watchlists,omitempty"`
	RelatedEntities []string          `json:"related_entities,omitempty"`
	RiskLevel       RiskLevel         `json:"risk_level"`
	URL             string            `json:"url,omitempty"`
	SimilarityScore float64           `json:"similarity_score"`
	Details         map[string]string `json:"details,omitempty"`
}

func (RegistryRecord) Family() Family         { return FamilyRegistry }
func (r RegistryRecord) SourceName() string   { return r.Source }
func (r RegistryRecord) CanonicalURL() string { return r.URL }
func (r RegistryRecord) Score() float64       { return r.SimilarityScore }
func (RegistryRecord) sourceRecord()          {}

// NewsArticle is a media mention of the subject.
type NewsArticle struct {
	Source         string     `json:"source"`
	Title          string     `json:"title"`
	URL            string     `json:"url"`
	PublishedAt    *time.Time `json:"published_date,omitempty"`
	Authors        []string   `json:"authors,omitempty"`
	Content        string     `json:"content,omitempty"`
	Summary        string     `json:"summary,omitempty"`
	Sentiment      Sentiment  `json:"sentiment,omitempty"`
	Entities       []string   `json:"entities,omitempty"`
	Keywords       []string   `json:"keywords,omitempty"`
	RelevanceScore float64    `json:"relevance_score"`
}

func (NewsArticle) Family() Family         { return FamilyNews }
func (a NewsArticle) SourceName() string   { return a.Source }
func (a NewsArticle) CanonicalURL() string { return a.URL }
func (a NewsArticle) Score() float64       { return a.RelevanceScore }
func (NewsArticle) sourceRecord()          {}

// RecordSet holds the accepted records of every family.
type RecordSet struct {
	Social   []SocialProfile  `json:"social"`
	Registry []RegistryRecord `json:"registry"`
	News     []NewsArticle    `json:"news"`
}

// Of returns the records of one family as the common interface.
func (s RecordSet) Of(family Family) []SourceRecord {
	var out []SourceRecord
	switch family {
	case FamilySocial:
		for _, r := range s.Social {
			out = append(out, r)
		}
	case FamilyRegistry:
		for _, r := range s.Registry {
			out = append(out, r)
		}
	case FamilyNews:
		for _, r := range s.News {
			out = append(out, r)
		}
	}
	return out
}

// Count reports how many records a family holds.
func (s RecordSet) Count(family Family) int {
	switch family {
	case FamilySocial:
		return len(s.Social)
	case FamilyRegistry:
		return len(s.Registry)
	case FamilyNews:
		return len(s.News)
	default:
		return 0
	}
}

// Empty reports whether no family holds any record.
func (s RecordSet) Empty() bool {
	return len(s.Social) == 0 && len(s.Registry) == 0 && len(s.News) == 0
}
