package domain

import (
	"context"
	"errors"
	"fmt"
)

// Error kinds recorded on ErrorEntry.
const (
	KindTransientFetch = "transient_fetch"
	KindRetryExhausted = "retry_exhausted"
	KindCollaborator   = "collaborator"
	KindParse          = "parse"
	KindConfiguration  = "configuration"
	KindNoFindings     = "no_findings"
	KindTimeout        = "timeout"
	KindInternal       = "internal"
)

// kinded is satisfied by errors that know their own category.
type kinded interface {
	Kind() string
}

// Classify returns the category of the outermost categorised error in the chain.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTimeout
	}
	return KindInternal
}

// FetchError is a network or HTTP failure talking to a source.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
func (e *FetchError) Kind() string  { return KindTransientFetch }

// CollaboratorError is a failed text generation call.
type CollaboratorError struct {
	Prompt string
	Err    error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("generate %s: %v", e.Prompt, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }
func (e *CollaboratorError) Kind() string  { return KindCollaborator }

// ParseError means generated text could not be turned into structured fields.
type ParseError struct {
	What   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.What, e.Reason)
}

func (e *ParseError) Kind() string { return KindParse }

// ConfigurationError marks an enabled source that cannot run as configured.
type ConfigurationError struct {
	Source string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("source %s misconfigured: %s", e.Source, e.Reason)
}

func (e *ConfigurationError) Kind() string { return KindConfiguration }

// ErrNoFindings is recorded when a family produced nothing to analyse.
var ErrNoFindings = noFindings{}

type noFindings struct{}

func (noFindings) Error() string { return "no records collected" }
func (noFindings) Kind() string  { return KindNoFindings }
