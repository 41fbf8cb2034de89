package ports

import (
	"context"
	"time"

	"PersonIntel/internal/domain"
)

// PromptID names one text generation task.
type PromptID string

const (
	PromptStrategy         PromptID = "strategy"
	PromptAnalysisSocial   PromptID = "analysis_social"
	PromptAnalysisRegistry PromptID = "analysis_registry"
	PromptAnalysisNews     PromptID = "analysis_news"
	PromptSummary          PromptID = "summary"
	PromptRisk             PromptID = "risk"
)

// Template variables understood by the prompts.
const (
	VarName     = "name"
	VarRecords  = "records"
	VarSocial   = "social"
	VarRegistry = "registry"
	VarNews     = "news"
)

// AnalysisPrompt returns the analysis prompt of a family.
func AnalysisPrompt(family domain.Family) PromptID {
	return PromptID("analysis_" + string(family))
}

// TextGenerator produces free text from a prompt template and variables.
type TextGenerator interface {
	Generate(ctx context.Context, prompt PromptID, vars map[string]string) (string, error)
}

// NewsEnricher adds sentiment, entities, keywords and a summary to an article.
type NewsEnricher interface {
	Enrich(ctx context.Context, article domain.NewsArticle) (domain.NewsArticle, error)
}

// ReportRepository persists finished intelligence records.
type ReportRepository interface {
	Save(ctx context.Context, report domain.Intelligence) error
	Latest(ctx context.Context, name string) (domain.Intelligence, bool, error)
}

// Notifier pushes alerts about risky subjects to Telegram or other channels.
type Notifier interface {
	PublishAlert(ctx context.Context, report domain.Intelligence) error
}

// Scheduler controls when maintenance jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
