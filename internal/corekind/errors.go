// Package corekind defines the sentinel error kinds shared across the
// reduction core. Every fallible operation in internal/sourcefile,
// internal/passctl, and internal/driver wraps one of these with
// fmt.Errorf("...: %w", ...) so callers can classify failures with
// errors.Is/errors.As without depending on package-internal types.
package corekind

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. See spec.md §7 for the taxonomy these realize.
var (
	// ErrIOError wraps a file read/write failure.
	ErrIOError = errors.New("io error")

	// ErrParseError wraps a failure to parse source text into a tree.
	ErrParseError = errors.New("parse error")

	// ErrFormatError wraps a failure to serialize a tree back to text.
	ErrFormatError = errors.New("format error")

	// ErrVerifierError wraps a failure of the verifier to run at all,
	// as distinct from the verifier running and reporting non-reproduction.
	ErrVerifierError = errors.New("verifier error")

	// ErrDoesNotReproduce is returned when the untouched project does not
	// reproduce the target issue before any reduction has been attempted.
	ErrDoesNotReproduce = errors.New("initial project does not reproduce issue")

	// ErrInvariantViolation marks a programmer error: a broken invariant
	// that should never happen given correct callers. Treated as fatal.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrCancelled is returned when an external cancellation signal was
	// observed at a round boundary or between verifier calls.
	ErrCancelled = errors.New("cancelled")
)

// Invariant panics with an ErrInvariantViolation-wrapped message if cond is
// false. Used for states spec.md marks "illegal"/"unreachable" — e.g.
// PassController.CanProcess called after reaching Success — which are
// programmer errors by construction, not recoverable runtime conditions
// (spec.md §7: InvariantViolation is "Fatal; panic-equivalent").
func Invariant(cond bool, msg string) {
	if !cond {
		panic(fmt.Errorf("%w: %s", ErrInvariantViolation, msg))
	}
}
