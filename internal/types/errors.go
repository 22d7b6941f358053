package types

import (
	"errors"
	"fmt"
)

// FetchError is a transient failure while talking to an external source.
// It is retried by the retry executor up to the stage budget.
type FetchError struct {
	Source string
	URL    string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch from %s failed: %v (url: %s)", e.Source, e.Err, e.URL)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func NewFetchError(source, url string, err error) *FetchError {
	return &FetchError{Source: source, URL: url, Err: err}
}

func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// ValidationError is a failed validation gate. Retried by re-fetching, up to
// the stage budget.
type ValidationError struct {
	Stage  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed at %s: %s", e.Stage, e.Reason)
}

func NewValidationError(stage, reason string) *ValidationError {
	return &ValidationError{Stage: stage, Reason: reason}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// SchemaMismatchError means an append target's header differs from the
// incoming table's header. Fatal immediately: re-fetching cannot fix schema
// drift, so it is never retried.
type SchemaMismatchError struct {
	Dataset string
	Want    []string
	Got     []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("dataset %s header mismatch: existing %v, incoming %v", e.Dataset, e.Want, e.Got)
}

func IsSchemaMismatch(err error) bool {
	var se *SchemaMismatchError
	return errors.As(err, &se)
}

// NotFoundError means a dataset has never been written.
type NotFoundError struct {
	Dataset string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("dataset %s not found", e.Dataset)
}

func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}

// EmptyFilterError is the soft signal that a historical filter matched no
// rows for one or both target dates. The run continues; the analyzer is told
// there is no comparison data instead of being handed empty-looking tables.
type EmptyFilterError struct {
	Dataset      string
	PresentEmpty bool
	EarlierEmpty bool
}

func (e *EmptyFilterError) Error() string {
	switch {
	case e.PresentEmpty && e.EarlierEmpty:
		return fmt.Sprintf("dataset %s has no rows for either target date", e.Dataset)
	case e.PresentEmpty:
		return fmt.Sprintf("dataset %s has no rows for the present target date", e.Dataset)
	default:
		return fmt.Sprintf("dataset %s has no rows for the earlier target date", e.Dataset)
	}
}

func IsEmptyFilter(err error) bool {
	var ee *EmptyFilterError
	return errors.As(err, &ee)
}

// PipelineError is terminal: the run produced no result. It names the stage
// that exhausted its budget or failed fatally, and wraps the last error.
type PipelineError struct {
	Stage  string
	Reason string
	Err    error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pipeline failed at %s: %s: %v", e.Stage, e.Reason, e.Err)
	}
	return fmt.Sprintf("pipeline failed at %s: %s", e.Stage, e.Reason)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

func NewPipelineError(stage, reason string, err error) *PipelineError {
	return &PipelineError{Stage: stage, Reason: reason, Err: err}
}

func IsPipelineError(err error) bool {
	var pe *PipelineError
	return errors.As(err, &pe)
}
