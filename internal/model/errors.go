package model

import (
	"errors"
	"fmt"
)

// ErrInputNotFound is returned when a capture file or input directory does
// not exist. It is fatal for ad-hoc comparison and recoverable per site in
// batch mode.
var ErrInputNotFound = errors.New("input not found")

// ErrAmbiguousPair is wrapped in a ParseError when a capture file has more
// than one possible counterpart of the other protocol.
var ErrAmbiguousPair = errors.New("ambiguous capture pairing")

// ParseError reports a capture that is malformed or missing required
// fields. The affected site is skipped and excluded from the summary.
type ParseError struct {
	Path   string
	Reason string
	Err    error
}

// Error implements error.
func (e *ParseError) Error() string {
	switch {
	case e.Reason != "" && e.Err != nil:
		return fmt.Sprintf("parse %s: %s: %v", e.Path, e.Reason, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
	default:
		return fmt.Sprintf("parse %s: %s", e.Path, e.Reason)
	}
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// PersistenceError reports a failure to write an output document or
// directory. It is fatal for the run.
type PersistenceError struct {
	Path string
	Err  error
}

// Error implements error.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err must abort the whole run rather than just
// the current site.
func IsFatal(err error) bool {
	var perr *PersistenceError
	return errors.As(err, &perr)
}

// FailureKind returns a stable label for err, used as a log attribute.
func FailureKind(err error) string {
	var parseErr *ParseError
	var persistErr *PersistenceError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &persistErr):
		return "persistence"
	case errors.As(err, &parseErr):
		return "parse"
	case errors.Is(err, ErrInputNotFound):
		return "input-not-found"
	default:
		return "other"
	}
}
