// Package errs defines the error taxonomy shared by every pipeline stage.
// All stage failures are fatal for the run: callers log one record naming
// the stage and condition and exit non-zero.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a stage failure.
type Kind int

const (
	// KindConfig marks invalid or empty generation ranges, enum sets or
	// stage settings, detected before any record is produced.
	KindConfig Kind = iota + 1
	// KindNotFound marks a layer directory with no matching input file.
	KindNotFound
	// KindParse marks a filename whose embedded timestamp cannot be parsed.
	KindParse
	// KindDataQuality marks a failed type coercion or a violated
	// cross-field invariant.
	KindDataQuality
	// KindIO marks directory creation or file write/read failures.
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "configuration"
	case KindNotFound:
		return "not_found"
	case KindParse:
		return "parse"
	case KindDataQuality:
		return "data_quality"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// Error carries the failing operation and stage alongside the kind.
type Error struct {
	Kind    Kind
	Stage   string // bronze, silver, gold; empty for stage-agnostic errors
	Op      string // operation name, e.g. "Clean", "LatestFile"
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s error: %s", e.Op, e.Kind, e.Message)
	if e.Stage != "" {
		msg = e.Stage + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches on kind so callers can use errors.Is with a bare-kind target.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.Op == "" || t.Op == e.Op)
}

// New creates an Error with the given kind and operation.
func New(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error whose cause is err.
func Wrap(kind Kind, op string, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...), Cause: err}
}

// WithStage returns a copy annotated with the stage name.
func WithStage(err error, stage string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		cp := *e
		cp.Stage = stage
		return &cp
	}
	return &Error{Kind: KindIO, Stage: stage, Op: stage, Message: "stage failed", Cause: err}
}

// IsKind reports whether any error in the chain has the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
