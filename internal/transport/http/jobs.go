package httptransport

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"PersonIntel/internal/domain"
)

// Job statuses reported by the API.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ErrJobNotFound is returned for unknown request ids.
var ErrJobNotFound = errors.New("search task not found")

// Runner executes one workflow and reports reached stages.
type Runner interface {
	RunTracked(ctx context.Context, runID, name string, progress func(domain.Stage)) domain.Intelligence
}

// stageCompletion maps workflow milestones to a rough completion fraction.
var stageCompletion = map[domain.Stage]float64{
	domain.StageStarted:           0.05,
	domain.StageStrategyGenerated: 0.15,
	domain.StageCollected:         0.6,
	domain.StageAnalyzed:          0.8,
	domain.StageSynthesized:       0.9,
	domain.StageRiskAssessed:      0.95,
	domain.StageFinalized:         1,
}

// Job is a snapshot of one asynchronous search.
type Job struct {
	ID         string
	Name       string
	Status     string
	Stage      domain.Stage
	Completion float64
	Submitted  time.Time
	Started    time.Time
	Finished   time.Time
	Result     *domain.Intelligence
	Failure    string
}

// EstimatedRemaining extrapolates from elapsed time and completion. It is nil
// unless the job is running.
func (j Job) EstimatedRemaining(now time.Time) *int {
	if j.Status != StatusRunning || j.Completion <= 0 || j.Started.IsZero() {
		return nil
	}
	elapsed := now.Sub(j.Started).Seconds()
	seconds := int(elapsed / j.Completion * (1 - j.Completion))
	return &seconds
}

// JobStoreOptions tune a JobStore.
type JobStoreOptions struct {
	MaxConcurrent int
	Retention     time.Duration
	Clock         func() time.Time
	NewID         func() string
	Logger        *slog.Logger
}

// JobStore runs searches in the background and keeps their results in memory.
type JobStore struct {
	runner    Runner
	slots     chan struct{}
	retention time.Duration
	now       func() time.Time
	newID     func() string
	logger    *slog.Logger

	mu   sync.RWMutex
	jobs map[string]*Job
	wg   sync.WaitGroup
}

// NewJobStore bounds concurrent runs by MaxConcurrent.
func NewJobStore(runner Runner, opts JobStoreOptions) *JobStore {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}
	if opts.Retention <= 0 {
		opts.Retention = time.Hour
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &JobStore{
		runner:    runner,
		slots:     make(chan struct{}, opts.MaxConcurrent),
		retention: opts.Retention,
		now:       opts.Clock,
		newID:     opts.NewID,
		logger:    opts.Logger.With("component", "jobs"),
		jobs:      map[string]*Job{},
	}
}

// Submit queues a search for name under ctx and returns the pending job.
func (s *JobStore) Submit(ctx context.Context, name string) Job {
	job := &Job{ID: s.newID(), Name: name, Status: StatusPending, Submitted: s.now()}

	s.mu.Lock()
	s.pruneLocked()
	s.jobs[job.ID] = job
	snapshot := *job
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(ctx, job.ID, name)
	return snapshot
}

// Get returns a snapshot of the job.
func (s *JobStore) Get(id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return *job, nil
}

// Wait blocks until every submitted job has finished or ctx ends.
func (s *JobStore) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *JobStore) run(ctx context.Context, id, name string) {
	defer s.wg.Done()

	select {
	case s.slots <- struct{}{}:
		defer func() { <-s.slots }()
	case <-ctx.Done():
		s.update(id, func(j *Job) {
			j.Status = StatusFailed
			j.Failure = ctx.Err().Error()
			j.Finished = s.now()
		})
		return
	}

	s.update(id, func(j *Job) {
		j.Status = StatusRunning
		j.Started = s.now()
	})

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("search panicked", "request_id", id, "panic", r)
			s.update(id, func(j *Job) {
				j.Status = StatusFailed
				j.Failure = "internal error"
				j.Finished = s.now()
			})
		}
	}()

	intel := s.runner.RunTracked(ctx, id, name, func(stage domain.Stage) {
		s.update(id, func(j *Job) {
			j.Stage = stage
			j.Completion = stageCompletion[stage]
		})
	})

	s.update(id, func(j *Job) {
		j.Status = StatusCompleted
		j.Stage = domain.StageFinalized
		j.Completion = 1
		j.Result = &intel
		j.Finished = s.now()
	})
}

func (s *JobStore) update(id string, fn func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		fn(job)
	}
}

// pruneLocked drops finished jobs older than the retention window.
func (s *JobStore) pruneLocked() {
	cutoff := s.now().Add(-s.retention)
	for id, job := range s.jobs {
		if !job.Finished.IsZero() && job.Finished.Before(cutoff) {
			delete(s.jobs, id)
		}
	}
}
