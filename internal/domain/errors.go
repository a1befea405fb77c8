package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPattern signals a pattern that failed to compile.
	ErrInvalidPattern = errors.New("invalid pattern")
	// ErrInvalidQuery signals a structurally invalid query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrIncompatibleGroup signals queries that cannot share a compiled group.
	ErrIncompatibleGroup = errors.New("incompatible query group")
	// ErrScanAborted signals a scan cancelled before the input drained.
	ErrScanAborted = errors.New("scan aborted")
)

// PatternError wraps ErrInvalidPattern with the location of the offending
// pattern. TriggerID is empty for scope patterns.
type PatternError struct {
	QueryID   string
	TriggerID string
	Cause     error
}

func (e *PatternError) Error() string {
	where := "scope"
	if e.TriggerID != "" {
		where = fmt.Sprintf("trigger %q", e.TriggerID)
	}
	if e.QueryID != "" {
		where = fmt.Sprintf("query %q, %s", e.QueryID, where)
	}
	return fmt.Sprintf("%s (%s): %v", ErrInvalidPattern.Error(), where, e.Cause)
}

func (e *PatternError) Unwrap() error { return ErrInvalidPattern }

// NewPatternError creates a pattern error for the given location.
func NewPatternError(queryID, triggerID string, cause error) error {
	return &PatternError{QueryID: queryID, TriggerID: triggerID, Cause: cause}
}

// QueryError wraps ErrInvalidQuery with a structural reason.
type QueryError struct {
	QueryID string
	Reason  string
}

func (e *QueryError) Error() string {
	if e.QueryID == "" {
		return fmt.Sprintf("%s: %s", ErrInvalidQuery.Error(), e.Reason)
	}
	return fmt.Sprintf("%s (query %q): %s", ErrInvalidQuery.Error(), e.QueryID, e.Reason)
}

func (e *QueryError) Unwrap() error { return ErrInvalidQuery }

// NewQueryError creates a query error with the given reason.
func NewQueryError(queryID, format string, args ...any) error {
	return &QueryError{QueryID: queryID, Reason: fmt.Sprintf(format, args...)}
}
