// Package errs defines the categorized failure kinds that flow through the
// analysis pipeline, the progress hub, and the terminal events emitted to
// subscribers.
package errs

import (
	"errors"
	"fmt"
)

// Kind categorizes a pipeline failure so that callers (the orchestrator, the
// progress hub, and any retry logic) can react without string matching.
type Kind string

const (
	// KindValidation marks malformed input or an unsupported file type.
	KindValidation Kind = "validation_error"
	// KindParseFailed marks an extractor reporting corrupt input.
	KindParseFailed Kind = "parse_failed"
	// KindTransient marks an LLM timeout, rate-limit, or network error that
	// is safe to retry per the owning component's retry policy.
	KindTransient Kind = "transient_failure"
	// KindLLMSchema marks an LLM response that failed schema validation
	// after the single allotted re-prompt.
	KindLLMSchema Kind = "llm_schema_failure"
	// KindStageTimeout marks a stage exceeding its configured time budget.
	KindStageTimeout Kind = "stage_timeout"
	// KindCancelled marks an explicit user cancellation.
	KindCancelled Kind = "cancelled"
	// KindInternal marks an unexpected, uncategorized failure.
	KindInternal Kind = "internal_error"
)

// Retryable reports whether a failure of this kind should be retried by the
// component that owns the retry budget (chunk analysis, LLM calls).
func (k Kind) Retryable() bool {
	return k == KindTransient
}

// Terminal reports whether a failure of this kind always halts the
// enclosing stage rather than being recovered silently.
func (k Kind) Terminal() bool {
	switch k {
	case KindTransient:
		return false
	default:
		return true
	}
}

// Error is a categorized pipeline error. It wraps an underlying cause while
// attaching the Kind needed for orchestrator decisions and for the error
// field persisted on a StageState.
type Error struct {
	Kind  Kind
	Stage string
	Err   error
}

func New(kind Kind, stage string, err error) *Error {
	return &Error{Kind: kind, Stage: stage, Err: err}
}

func (e *Error) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the Kind from err, defaulting to KindInternal when err
// does not wrap an *Error.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Validation wraps err as a validation_error.
func Validation(stage string, err error) *Error { return New(KindValidation, stage, err) }

// ParseFailed wraps err as a parse_failed error.
func ParseFailed(stage string, err error) *Error { return New(KindParseFailed, stage, err) }

// Transient wraps err as a transient_failure.
func Transient(stage string, err error) *Error { return New(KindTransient, stage, err) }

// LLMSchema wraps err as an llm_schema_failure.
func LLMSchema(stage string, err error) *Error { return New(KindLLMSchema, stage, err) }

// StageTimeout wraps err as a stage_timeout.
func StageTimeout(stage string, err error) *Error { return New(KindStageTimeout, stage, err) }

// Cancelled wraps err as a cancelled error.
func Cancelled(stage string) *Error {
	return New(KindCancelled, stage, errors.New("cancelled"))
}

// Internal wraps err as an internal_error.
func Internal(stage string, err error) *Error { return New(KindInternal, stage, err) }
