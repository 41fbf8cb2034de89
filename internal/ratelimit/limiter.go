// Package ratelimit admits requests per source using a sliding window.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultPollInterval is the fixed delay between admission attempts in Wait.
const DefaultPollInterval = time.Second

// Options tune a Limiter.
type Options struct {
	RequestsPerPeriod int
	Period            time.Duration
	PollInterval      time.Duration
	Clock             func() time.Time
	Sleep             func(ctx context.Context, d time.Duration) error
}

// Limiter tracks one sliding window per source key. Windows are updated under
// their own mutex so sources never contend with each other.
type Limiter struct {
	limit  int
	period time.Duration
	poll   time.Duration
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error

	mu      sync.RWMutex
	windows map[string]*window
}

type window struct {
	mu         sync.Mutex
	timestamps []time.Time
}

// New builds a limiter. Zero PollInterval, Clock or Sleep use real-time defaults.
func New(opts Options) *Limiter {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	return &Limiter{
		limit:   opts.RequestsPerPeriod,
		period:  opts.Period,
		poll:    opts.PollInterval,
		now:     opts.Clock,
		sleep:   opts.Sleep,
		windows: map[string]*window{},
	}
}

// Admit prunes timestamps older than the period and records a new request if
// fewer than the limit remain.
func (l *Limiter) Admit(source string) bool {
	w := l.window(source)

	w.mu.Lock()
	defer w.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.period)
	i := 0
	for ; i < len(w.timestamps); i++ {
		if !w.timestamps[i].Before(cutoff) {
			break
		}
	}
	w.timestamps = w.timestamps[i:]

	if len(w.timestamps) >= l.limit {
		return false
	}
	w.timestamps = append(w.timestamps, now)
	return true
}

// Wait polls Admit at the fixed interval until the source is admitted or ctx ends.
func (l *Limiter) Wait(ctx context.Context, source string) error {
	for {
		if l.Admit(source) {
			return nil
		}
		if err := l.sleep(ctx, l.poll); err != nil {
			return err
		}
	}
}

// InWindow reports how many requests the source currently holds, for diagnostics.
func (l *Limiter) InWindow(source string) int {
	w := l.window(source)
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.timestamps)
}

func (l *Limiter) window(source string) *window {
	l.mu.RLock()
	w := l.windows[source]
	l.mu.RUnlock()
	if w != nil {
		return w
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if w = l.windows[source]; w == nil {
		w = &window{}
		l.windows[source] = w
	}
	return w
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
