package sentience

import (
	"errors"
	"fmt"
)

// ErrUpstreamUnavailable marks a collaborator (executor or cortex) that is
// not reachable. Errors wrapping it mean no pipeline work was attempted.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// Collaborator sentinels. Both wrap ErrUpstreamUnavailable.
var (
	ErrNoCortex   = fmt.Errorf("no cortex configured: %w", ErrUpstreamUnavailable)
	ErrNoExecutor = fmt.Errorf("no executor configured: %w", ErrUpstreamUnavailable)
)

// EvaluationError is fatal to the current step: the run surfaces it to the
// caller with no partial result. Retry policy, if any, belongs to the
// caller.
type EvaluationError struct {
	Err error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation failed: %v", e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// CommitError records a per-token persistence failure. Commit failures are
// partial: they are recorded against the token id and do not abort the
// remaining accepted tokens.
type CommitError struct {
	TokenID string
	Err     error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit failed for token %s: %v", e.TokenID, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// UpstreamError wraps a failure from the DSL executor or the cortex that
// prevented the step from running.
type UpstreamError struct {
	Component string
	Err       error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Component, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Is reports ErrUpstreamUnavailable for errors.Is matching.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamUnavailable
}
