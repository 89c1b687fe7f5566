package finsim

import (
	"errors"
	"fmt"

	"github.com/etnz/finsim/date"
)

// ErrValidation matches every ValidationError with errors.Is.
var ErrValidation = errors.New("invalid input")

// ValidationError names an offending input field. Validation reports all of
// them at once, joined with errors.Join, before any simulation work starts.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Reason) }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// validationErrors accumulates field errors.
type validationErrors []error

func (v *validationErrors) add(field, format string, args ...any) {
	*v = append(*v, &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)})
}

func (v validationErrors) err() error { return errors.Join(v...) }

// IssueKind classifies a DataQualityIssue.
type IssueKind string

const (
	// MissingPrice is a month without a close for a ticker, its last known price was used.
	MissingPrice IssueKind = "missing_price"
	// NoPrice is a month without any known price for a ticker, it could not be traded.
	NoPrice IssueKind = "no_price"
	// MissingBenchmark is a benchmark without levels over the run window.
	MissingBenchmark IssueKind = "missing_benchmark"
)

// DataQualityIssue is a non fatal gap in the market data met during a run.
type DataQualityIssue struct {
	Month  int       `json:"month"`
	Date   date.Date `json:"date"`
	Ticker string    `json:"ticker"`
	Kind   IssueKind `json:"kind"`
	Detail string    `json:"detail,omitempty"`
}

func (i DataQualityIssue) String() string {
	return fmt.Sprintf("%s month %d %s: %s %s", i.Date, i.Month, i.Ticker, i.Kind, i.Detail)
}

// AlertKind classifies an Alert.
type AlertKind string

// NegativeCash is raised when the cash balance of a month ends below zero.
const NegativeCash AlertKind = "negative_cash"

// Alert is a condition reported to the portfolio tracking side, never fixed by the engine.
type Alert struct {
	Month  int       `json:"month"`
	Date   date.Date `json:"date"`
	Kind   AlertKind `json:"kind"`
	Amount Money     `json:"amount"`
}
