package domain

import (
	"sort"
	"time"
)

// Stage is a milestone of one workflow run.
type Stage string

const (
	StageStarted           Stage = "started"
	StageStrategyGenerated Stage = "strategy_generated"
	StageCollected         Stage = "collected"
	StageAnalyzed          Stage = "analyzed"
	StageSynthesized       Stage = "synthesized"
	StageRiskAssessed      Stage = "risk_assessed"
	StageFinalized         Stage = "finalized"
)

// ErrorEntry records one degradation during a run.
type ErrorEntry struct {
	Step      string    `json:"step"`
	Source    string    `json:"source,omitempty"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// NewErrorEntry classifies err and stamps it.
func NewErrorEntry(step, source string, err error, at time.Time) ErrorEntry {
	return ErrorEntry{
		Step:      step,
		Source:    source,
		Kind:      Classify(err),
		Message:   err.Error(),
		Timestamp: at,
	}
}

// SearchStrategy describes where and how to look for the subject.
type SearchStrategy struct {
	Platforms      []string `json:"platforms"`
	SearchTerms    []string `json:"search_terms"`
	NameVariations []string `json:"name_variations,omitempty"`
	Regions        []string `json:"regions,omitempty"`
	TimePeriod     string   `json:"time_period"`
}

// DefaultStrategy is used whenever no strategy could be generated.
func DefaultStrategy(name string) SearchStrategy {
	return SearchStrategy{
		Platforms:   []string{"twitter", "linkedin", "facebook"},
		SearchTerms: []string{name},
		TimePeriod:  "1 year",
	}
}

// Intelligence is the aggregate produced by one workflow run.
type Intelligence struct {
	RunID             string            `json:"run_id"`
	Name              string            `json:"name"`
	QueryTime         time.Time         `json:"query_time"`
	Strategy          SearchStrategy    `json:"strategy"`
	Records           RecordSet         `json:"records"`
	Analyses          map[Family]string `json:"analyses"`
	Summary           string            `json:"summary"`
	RiskLevel         RiskLevel         `json:"risk_level"`
	ConfidenceScore   float64           `json:"confidence_score"`
	RiskJustification string            `json:"risk_justification,omitempty"`
	SourcesChecked    []string          `json:"sources_checked"`
	SourcesSuccessful []string          `json:"sources_successful"`
	Errors            []ErrorEntry      `json:"errors"`
	Stage             Stage             `json:"stage"`
	DurationSeconds   float64           `json:"duration_seconds"`
}

// Degraded reports whether anything went wrong during the run.
func (i Intelligence) Degraded() bool {
	return len(i.Errors) > 0
}

// SourceSet is an unordered set of source identifiers.
type SourceSet map[string]struct{}

// Add inserts ids into the set.
func (s SourceSet) Add(ids ...string) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

// Sorted returns the members in lexical order.
func (s SourceSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
