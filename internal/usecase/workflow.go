package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"PersonIntel/internal/collector"
	"PersonIntel/internal/domain"
	"PersonIntel/internal/metrics"
	"PersonIntel/internal/ports"
)

// Step names recorded on error entries outside of source collection.
const (
	StepStrategy  = "strategy"
	StepSynthesis = "synthesis"
	StepRisk      = "risk_assessment"
	StepPersist   = "persist"
	StepNotify    = "notify"
)

var errNoGenerator = errors.New("text generator not configured")

// FamilyCollector gathers the records of one family.
type FamilyCollector[R domain.SourceRecord] interface {
	Collect(ctx context.Context, name string) collector.Outcome[R]
}

// OrchestratorDeps groups the collaborators of a run.
type OrchestratorDeps struct {
	Social    FamilyCollector[domain.SocialProfile]
	Registry  FamilyCollector[domain.RegistryRecord]
	News      FamilyCollector[domain.NewsArticle]
	Generator ports.TextGenerator

	Repository ports.ReportRepository
	Notifier   ports.Notifier
	// AlertLevel is the lowest risk that triggers the notifier. Empty disables alerts.
	AlertLevel domain.RiskLevel

	Timeout time.Duration
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	Clock   func() time.Time
	NewID   func() string
}

// Orchestrator sequences strategy, collection, analysis and synthesis and
// always produces a finalized record.
type Orchestrator struct {
	deps   OrchestratorDeps
	logger *slog.Logger
}

// NewOrchestrator fills defaults for clock, id generator and logger.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Orchestrator{deps: deps, logger: deps.Logger.With("component", "orchestrator")}
}

// runState is owned by one run. Concurrent branches write only their own
// slots; the orchestrator merges them after each join.
type runState struct {
	intel      domain.Intelligence
	checked    domain.SourceSet
	successful domain.SourceSet
	generated  map[domain.Family]bool
	started    time.Time
}

func (s *runState) record(entries ...domain.ErrorEntry) {
	s.intel.Errors = append(s.intel.Errors, entries...)
}

type stage struct {
	reached domain.Stage
	run     func(ctx context.Context, s *runState)
}

// Run executes one workflow with a fresh run id.
func (o *Orchestrator) Run(ctx context.Context, name string) domain.Intelligence {
	return o.RunTracked(ctx, o.deps.NewID(), name, nil)
}

// RunTracked executes one workflow and reports every reached stage to progress.
func (o *Orchestrator) RunTracked(ctx context.Context, runID, name string, progress func(domain.Stage)) domain.Intelligence {
	if progress == nil {
		progress = func(domain.Stage) {}
	}
	if o.deps.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.deps.Timeout)
		defer cancel()
	}

	now := o.deps.Clock()
	s := &runState{
		intel: domain.Intelligence{
			RunID:     runID,
			Name:      name,
			QueryTime: now,
			Strategy:  domain.DefaultStrategy(name),
			Analyses:  map[domain.Family]string{},
			RiskLevel: domain.RiskUnknown,
			Errors:    []domain.ErrorEntry{},
			Stage:     domain.StageStarted,
		},
		checked:    domain.SourceSet{},
		successful: domain.SourceSet{},
		generated:  map[domain.Family]bool{},
		started:    now,
	}
	logger := o.logger.With("run_id", runID)
	logger.Info("run started", "name", name)
	progress(domain.StageStarted)

	stages := []stage{
		{domain.StageStrategyGenerated, o.generateStrategy},
		{domain.StageCollected, o.collect},
		{domain.StageAnalyzed, o.analyze},
		{domain.StageSynthesized, o.synthesize},
		{domain.StageRiskAssessed, o.assessRisk},
	}
	for _, st := range stages {
		st.run(ctx, s)
		s.intel.Stage = st.reached
		logger.Debug("stage reached", "stage", st.reached, "errors", len(s.intel.Errors))
		progress(st.reached)
	}

	intel := o.finalize(s)
	progress(domain.StageFinalized)
	logger.Info("run finished",
		"risk", intel.RiskLevel,
		"confidence", intel.ConfidenceScore,
		"errors", len(intel.Errors),
		"duration", intel.DurationSeconds)

	o.publish(ctx, intel, logger)
	return intel
}

func (o *Orchestrator) generate(ctx context.Context, prompt ports.PromptID, vars map[string]string) Outcome[string] {
	if o.deps.Generator == nil {
		return Fail[string](&domain.CollaboratorError{Prompt: string(prompt), Err: errNoGenerator})
	}
	return From(o.deps.Generator.Generate(ctx, prompt, vars))
}

func (o *Orchestrator) entry(step, source string, err error) domain.ErrorEntry {
	return domain.NewErrorEntry(step, source, err, o.deps.Clock())
}

func (o *Orchestrator) generateStrategy(ctx context.Context, s *runState) {
	name := s.intel.Name
	parsed := Then(o.generate(ctx, ports.PromptStrategy, map[string]string{ports.VarName: name}),
		func(text string) (domain.SearchStrategy, error) { return parseStrategy(text, name) })

	s.intel.Strategy = parsed.OrElse(func(err error) domain.SearchStrategy {
		s.record(o.entry(StepStrategy, "", err))
		return domain.DefaultStrategy(name)
	})
}

func (o *Orchestrator) collect(ctx context.Context, s *runState) {
	var (
		g        errgroup.Group
		social   collector.Outcome[domain.SocialProfile]
		registry collector.Outcome[domain.RegistryRecord]
		news     collector.Outcome[domain.NewsArticle]
	)
	name := s.intel.Name
	if o.deps.Social != nil {
		g.Go(func() error { social = o.deps.Social.Collect(ctx, name); return nil })
	}
	if o.deps.Registry != nil {
		g.Go(func() error { registry = o.deps.Registry.Collect(ctx, name); return nil })
	}
	if o.deps.News != nil {
		g.Go(func() error { news = o.deps.News.Collect(ctx, name); return nil })
	}
	_ = g.Wait()

	s.intel.Records = domain.RecordSet{
		Social:   nonNil(social.Records),
		Registry: nonNil(registry.Records),
		News:     nonNil(news.Records),
	}
	mergeOutcome(s, social)
	mergeOutcome(s, registry)
	mergeOutcome(s, news)
}

func mergeOutcome[R domain.SourceRecord](s *runState, out collector.Outcome[R]) {
	s.checked.Add(out.Checked...)
	s.successful.Add(out.Successful...)
	s.record(out.Errors...)
}

type analysisSlot struct {
	text      string
	generated bool
	entry     *domain.ErrorEntry
}

func (o *Orchestrator) analyze(ctx context.Context, s *runState) {
	families := domain.Families()
	slots := make([]analysisSlot, len(families))

	var g errgroup.Group
	for i, family := range families {
		i, family := i, family
		g.Go(func() error {
			slots[i] = o.analyzeFamily(ctx, s.intel.Name, s.intel.Records, family)
			return nil
		})
	}
	_ = g.Wait()

	for i, family := range families {
		s.intel.Analyses[family] = slots[i].text
		s.generated[family] = slots[i].generated
		if slots[i].entry != nil {
			s.record(*slots[i].entry)
		}
	}
}

func (o *Orchestrator) analyzeFamily(ctx context.Context, name string, records domain.RecordSet, family domain.Family) analysisSlot {
	step := "analysis:" + string(family)
	count := records.Count(family)
	if count == 0 {
		e := o.entry(step, "", fmt.Errorf("%s analysis skipped: %w", family, domain.ErrNoFindings))
		return analysisSlot{text: noFindings[family], entry: &e}
	}

	out := o.generate(ctx, ports.AnalysisPrompt(family), map[string]string{
		ports.VarName:    name,
		ports.VarRecords: brief(records, family),
	})
	var slot analysisSlot
	slot.text = out.OrElse(func(err error) string {
		e := o.entry(step, "", err)
		slot.entry = &e
		return unavailableAnalysis(family, count)
	})
	slot.generated = !out.Failed()
	return slot
}

func (o *Orchestrator) analysisVars(s *runState) map[string]string {
	return map[string]string{
		ports.VarName:     s.intel.Name,
		ports.VarSocial:   s.intel.Analyses[domain.FamilySocial],
		ports.VarRegistry: s.intel.Analyses[domain.FamilyRegistry],
		ports.VarNews:     s.intel.Analyses[domain.FamilyNews],
	}
}

func (o *Orchestrator) synthesize(ctx context.Context, s *runState) {
	s.intel.Summary = o.generate(ctx, ports.PromptSummary, o.analysisVars(s)).OrElse(func(err error) string {
		s.record(o.entry(StepSynthesis, "", err))
		return fallbackSummary(s.intel.Name, s.intel.Analyses, s.generated)
	})
}

func (o *Orchestrator) assessRisk(ctx context.Context, s *runState) {
	var verdict Outcome[Verdict]
	if s.intel.Records.Empty() {
		verdict = Fail[Verdict](fmt.Errorf("risk not assessed: %w", domain.ErrNoFindings))
	} else {
		verdict = Then(o.generate(ctx, ports.PromptRisk, o.analysisVars(s)), parseVerdict)
	}

	v := verdict.OrElse(func(err error) Verdict {
		s.record(o.entry(StepRisk, "", err))
		return unknownVerdict
	})
	s.intel.RiskLevel = v.Level
	s.intel.ConfidenceScore = v.Confidence
	s.intel.RiskJustification = v.Justification
}

func (o *Orchestrator) finalize(s *runState) domain.Intelligence {
	intel := s.intel
	intel.SourcesChecked = s.checked.Sorted()
	intel.SourcesSuccessful = s.successful.Sorted()
	intel.Stage = domain.StageFinalized
	elapsed := o.deps.Clock().Sub(s.started)
	intel.DurationSeconds = elapsed.Seconds()
	o.deps.Metrics.ObserveWorkflow(string(intel.RiskLevel), elapsed)
	return intel
}

// publish hands the finished record to the configured sinks. Sink failures
// are logged; the record is already final.
func (o *Orchestrator) publish(ctx context.Context, intel domain.Intelligence, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	if o.deps.Repository != nil {
		if err := o.deps.Repository.Save(ctx, intel); err != nil {
			logger.Warn("persist report failed", "step", StepPersist, "error", err)
		}
	}
	if o.deps.Notifier != nil && o.deps.AlertLevel != "" && intel.RiskLevel != domain.RiskUnknown &&
		intel.RiskLevel.AtLeast(o.deps.AlertLevel) {
		if err := o.deps.Notifier.PublishAlert(ctx, intel); err != nil {
			logger.Warn("risk alert failed", "step", StepNotify, "error", err)
		}
	}
}

func nonNil[R any](records []R) []R {
	if records == nil {
		return []R{}
	}
	return records
}
