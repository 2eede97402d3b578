package workers

import (
	"context"
	"errors"
	"fmt"

	"github.com/aescanero/dropship/pkg/domain"
)

// Kind classifies a failure inside a workflow loop
type Kind string

const (
	// KindItem is one item's action failing. Siblings keep going.
	KindItem Kind = "item"
	// KindTick is a failure outside the item loop, such as the fetch
	// call. The runner sleeps the penalty duration afterwards.
	KindTick Kind = "tick"
	// KindCancelled is the expected termination signal, not a failure.
	KindCancelled Kind = "cancelled"
)

// TickError is returned by a pipeline when a tick could not complete
type TickError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *TickError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *TickError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind carried by err. Errors that are not a
// TickError are tick-level, except context cancellation.
func KindOf(err error) Kind {
	var te *TickError
	if errors.As(err, &te) {
		return te.Kind
	}
	if errors.Is(err, context.Canceled) {
		return KindCancelled
	}
	return KindTick
}

// classify turns a pipeline error into a TickError. Only the runner's
// own ctx decides cancellation: a collaborator returning a wrapped
// context.Canceled while ctx is live is a tick-level failure.
func classify(ctx context.Context, op string, err error) *TickError {
	cancelled := ctx.Err() != nil

	var te *TickError
	if errors.As(err, &te) {
		switch {
		case cancelled:
			te.Kind = KindCancelled
		case te.Kind == KindCancelled:
			te.Kind = KindTick
		}
		return te
	}
	if cancelled {
		return &TickError{Kind: KindCancelled, Op: op, Err: err}
	}
	return &TickError{Kind: KindTick, Op: op, Err: err}
}

// ItemResult is the outcome of acting on one item
type ItemResult struct {
	Key     string
	Outcome domain.Outcome
	Detail  string
	Err     error
}

// Failed reports whether the item counts as a failure
func (r ItemResult) Failed() bool {
	return r.Outcome == domain.OutcomeError
}

// Success builds a successful item result
func Success(detail string) ItemResult {
	return ItemResult{Outcome: domain.OutcomeSuccess, Detail: detail}
}

// Failure builds a failed item result
func Failure(err error) ItemResult {
	return ItemResult{Outcome: domain.OutcomeError, Err: err}
}

// Report summarizes a completed tick
type Report struct {
	TickID   string
	Fetched  int
	Selected int
	Items    []ItemResult
}

// Counts returns how many items succeeded and failed
func (r *Report) Counts() (succeeded, failed int) {
	for _, item := range r.Items {
		switch {
		case item.Outcome.Succeeded():
			succeeded++
		case item.Failed():
			failed++
		}
	}
	return succeeded, failed
}

// Outcome folds the item outcomes into one tick outcome. Items skipped
// by policy do not count either way; a tick whose items were all skipped
// is disabled.
func (r *Report) Outcome() domain.Outcome {
	succeeded, failed := r.Counts()
	considered := 0
	for _, item := range r.Items {
		if item.Outcome != domain.OutcomeDisabled {
			considered++
		}
	}

	switch {
	case len(r.Items) > 0 && considered == 0:
		return domain.OutcomeDisabled
	case succeeded == considered:
		return domain.OutcomeSuccess
	case failed == considered:
		return domain.OutcomeError
	default:
		return domain.OutcomePartial
	}
}
