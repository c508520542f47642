package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// InsufficientHistoryError reports a price series shorter than the longest
// indicator window.
type InsufficientHistoryError struct {
	Bars     int
	Required int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("insufficient history: %d bars, need at least %d", e.Bars, e.Required)
}

// InvalidSeriesError reports a bar violating the series invariants.
type InvalidSeriesError struct {
	Index  int
	Reason string
}

func (e *InvalidSeriesError) Error() string {
	return fmt.Sprintf("invalid series at bar %d: %s", e.Index, e.Reason)
}

// NoDataFoundError reports a symbol/period with no price history.
type NoDataFoundError struct {
	Symbol string
	Period Period
}

func (e *NoDataFoundError) Error() string {
	return fmt.Sprintf("no price data found for %s (%s)", e.Symbol, e.Period)
}

// SchemaError reports missing required campaign columns.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// NegativeValueError reports a negative value where only non-negative input
// is meaningful.
type NegativeValueError struct {
	Row    int
	Column string
	Value  float64
}

func (e *NegativeValueError) Error() string {
	return fmt.Sprintf("row %d: %s is negative (%g)", e.Row, e.Column, e.Value)
}

// DivisionUndefinedError marks a single record's ratio whose divisor is
// zero. It is reported per record and never aborts the batch.
type DivisionUndefinedError struct {
	Row     int
	Metric  string
	Divisor string
}

func (e *DivisionUndefinedError) Error() string {
	return fmt.Sprintf("%s undefined: %s is zero", e.Metric, e.Divisor)
}

// ParseError reports a malformed cell in an uploaded file.
type ParseError struct {
	Row    int
	Column string
	Cause  error
}

func (e *ParseError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column %s: %v", e.Row, e.Column, e.Cause)
	}
	return fmt.Sprintf("row %d: %v", e.Row, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// FormatError reports a failed document render or export. Fatal to that
// export only.
type FormatError struct {
	Stage string
	Cause error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format %s: %v", e.Stage, e.Cause)
}

func (e *FormatError) Unwrap() error { return e.Cause }

// NotFoundError reports a missing stored object.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// IsNotFound reports whether err is a storage miss.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// InsightUnavailableError wraps a failed text-completion call. Non-fatal:
// callers convert it into an InsightFailure marker and render everything
// else.
type InsightUnavailableError struct {
	Reason string
	Cause  error
}

func (e *InsightUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("insight unavailable: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("insight unavailable: %s", e.Reason)
}

func (e *InsightUnavailableError) Unwrap() error { return e.Cause }

// Failure converts the error into the marker attached to an AnalysisBundle.
func (e *InsightUnavailableError) Failure() *InsightFailure {
	f := &InsightFailure{Reason: e.Reason, OccurredAt: time.Now()}
	if e.Cause != nil {
		f.Detail = e.Cause.Error()
	}
	return f
}
