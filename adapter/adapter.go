// Package adapter defines the extraction contract shared by the format
// adapters and the primary/secondary fallback combinator behind it.
//
// Each of the four operations is described by a Chain: a primary backend, an
// optional secondary backend, and a probe that inspects raw content. Run
// executes a chain:
//
//   - the primary runs first; an error or panic moves on to the secondary
//   - an empty primary result moves on to the secondary only when the probe
//     reports raw content the operation should have produced records for
//   - a failing secondary yields an empty result and an ExtractionError
//
// Records are numbered with model.Number before they are returned, so every
// result is in document order with per-location ordinals.
package adapter

import (
	"errors"
	"fmt"

	"github.com/tsawler/docex/model"
)

// Op is one backend's implementation of an extraction operation.
type Op[T any] func() ([]T, error)

// Chain is a primary backend, a secondary backend, and the probe that
// decides whether an empty primary result is trustworthy.
type Chain[T any] struct {
	Primary   Op[T]
	Secondary Op[T]
	// Probe reports whether the raw content suggests records should exist.
	// A nil probe never triggers fallback on an empty result.
	Probe func() bool
}

// Result is the outcome of running a chain.
type Result[T any] struct {
	Records []T
	Outcome model.Outcome
	// Err is set when the primary failed or the operation failed outright.
	// It is always an *ExtractionError.
	Err error
}

// ErrNoBackend is reported when a chain needs a backend that is not
// configured.
var ErrNoBackend = errors.New("no backend configured")

// ErrEmpty is the cause recorded when the primary returned no records while
// the probe found raw content.
var ErrEmpty = errors.New("primary returned no records for non-empty content")

// ExtractionError describes a failed backend call for one operation.
type ExtractionError struct {
	Kind    model.Kind
	Backend string // "primary" or "secondary"
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s %s backend: %v", e.Kind, e.Backend, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Run executes a chain for the given record kind.
func Run[T any, P model.Located[T]](kind model.Kind, c Chain[T]) Result[T] {
	recs, err := call(c.Primary)
	if err == nil && (len(recs) > 0 || c.Probe == nil || !probe(c.Probe)) {
		return Result[T]{Records: model.Number[T, P](recs), Outcome: model.OutcomePrimary}
	}
	if err == nil {
		err = ErrEmpty
	}
	primaryErr := &ExtractionError{Kind: kind, Backend: "primary", Err: err}

	if c.Secondary == nil {
		return Result[T]{Outcome: model.OutcomeFailed, Err: primaryErr}
	}

	recs, err = call(c.Secondary)
	if err != nil {
		return Result[T]{
			Outcome: model.OutcomeFailed,
			Err: &ExtractionError{
				Kind:    kind,
				Backend: "secondary",
				Err:     fmt.Errorf("%w (after primary: %v)", err, primaryErr.Err),
			},
		}
	}
	return Result[T]{Records: model.Number[T, P](recs), Outcome: model.OutcomeFallback, Err: primaryErr}
}

// call invokes op, converting a panic into an error. Some backends panic on
// malformed input rather than returning an error.
func call[T any](op Op[T]) (recs []T, err error) {
	if op == nil {
		return nil, ErrNoBackend
	}
	defer func() {
		if r := recover(); r != nil {
			recs, err = nil, fmt.Errorf("backend panic: %v", r)
		}
	}()
	return op()
}

// probe runs a probe function; a panicking probe reports no content.
func probe(fn func() bool) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return fn()
}
