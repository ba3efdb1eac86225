// Package errors defines the typed error kinds shared by every core
// component, in the same style as the indexing tool this CLI is
// descended from: a small closed set of `Kind` values, a struct
// carrying operation context, and Unwrap support for errors.Is/As.
package errors

import (
	"fmt"
)

// Kind identifies one of the error categories a core operation can
// fail with.
type Kind string

const (
	// KindInputMissing means a required file was absent. Fatal.
	KindInputMissing Kind = "input_missing"
	// KindMalformed means a file was present but not valid JSON, or a
	// required field was missing/mistyped. Fatal.
	KindMalformed Kind = "malformed"
	// KindPathEscape means a rootDir/testDir pair or a test file
	// resolved outside the root. Fatal at assign; quietly dropped at
	// extract (see internal/extract).
	KindPathEscape Kind = "path_escape"
	// KindInconsistent means shard count < 1, alpha out of range,
	// negative penalty, or a duplicate TestID within a shard. Fatal.
	KindInconsistent Kind = "inconsistent"
	// KindDeadlineExceeded means CKK did not prove optimality before
	// its deadline. Not fatal — surfaced as AssignResult.IsOptimal=false.
	KindDeadlineExceeded Kind = "deadline_exceeded"
	// KindTransientIO means a write failed before the atomic rename
	// that publishes it. Fatal; the target file is left untouched.
	KindTransientIO Kind = "transient_io"
)

// Error is the single error type returned by core operations. It
// carries enough context for a CLI layer to print a structured,
// single-line message, per spec.md's "single, structured message"
// policy.
type Error struct {
	Kind       Kind
	Op         string // the operation that failed, e.g. "assign", "timing.Load"
	Path       string // file path involved, if any
	Underlying error
}

// New creates an Error of the given kind for the given operation.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Underlying: err}
}

// WithPath attaches a file path to the error for display.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s failed for %s: %v", e.Kind, e.Op, e.Path, e.Underlying)
	}
	return fmt.Sprintf("%s: %s failed: %v", e.Kind, e.Op, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Underlying
}

// Fatal reports whether this error kind should produce a non-zero
// exit from the CLI. KindDeadlineExceeded is the sole non-fatal kind:
// it degrades the scheduler to its LPT-seeded incumbent rather than
// aborting the run.
func (e *Error) Fatal() bool {
	return e.Kind != KindDeadlineExceeded
}
