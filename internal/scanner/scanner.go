package scanner

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Request carries all parameters required to query one source.
type Request struct {
	Query              string
	Source             string
	Endpoint           string
	SearchURLTemplate  string
	ProfileURLTemplate string
	APIKey             string
	Since              time.Time
	Until              time.Time
	Limit              int
	Timeout            time.Duration
	Options            map[string]string
}

// Option returns an option value or fallback when unset.
func (r Request) Option(key, fallback string) string {
	if v, ok := r.Options[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Scanner captures a single fetch+parse strategy producing records of type R.
type Scanner[R any] interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]R, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry[R any] struct {
	scanners map[string]Scanner[R]
}

// NewRegistry builds an empty registry.
func NewRegistry[R any]() *Registry[R] {
	return &Registry[R]{scanners: map[string]Scanner[R]{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry[R]) Register(scanner Scanner[R]) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner[R]{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry[R]) Resolve(name string) (Scanner[R], error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}

// Names lists registered scanners in lexical order.
func (r *Registry[R]) Names() []string {
	names := make([]string, 0, len(r.scanners))
	for name := range r.scanners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Func adapts a function into a Scanner.
type Func[R any] struct {
	ID string
	Fn func(ctx context.Context, req Request) ([]R, error)
}

func (f Func[R]) Name() string { return f.ID }

func (f Func[R]) Scan(ctx context.Context, req Request) ([]R, error) {
	return f.Fn(ctx, req)
}
