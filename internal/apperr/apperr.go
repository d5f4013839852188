// Package apperr defines the error categories shared across poisonbench.
//
// Error taxonomy
//
//	ValidationError       – invalid input to a pipeline stage (unknown poisoning
//	                        strategy, fraction outside [0,1], malformed CSV).
//	                        Aborts that invocation only.
//	ErrDatasetNotFound    – the input dataset path does not resolve.
//	ErrExperimentNotFound – the tracking store has no experiment by that name.
//	                        Fatal for aggregation; nothing is rendered.
//	ErrExperimentExists   – another writer already created an experiment with
//	                        that name.
//	ErrStratify           – the label distribution cannot be split stratified.
//	ErrNoResults          – nothing left to render after aggregation.
//	ErrSchemaMismatch     – an inference request does not match the model schema.
//
// Everything else is a plain Go error propagated with
// fmt.Errorf("failed to ...: %w", err) wrapping.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownStrategy    = errors.New("unknown poisoning strategy")
	ErrDatasetNotFound    = errors.New("dataset not found")
	ErrExperimentNotFound = errors.New("experiment not found")
	ErrExperimentExists   = errors.New("experiment already exists")
	ErrStratify           = errors.New("cannot stratify split")
	ErrNoResults          = errors.New("no results to render")
	ErrSchemaMismatch     = errors.New("feature schema mismatch")
)

// ValidationError represents invalid input to one of the pipeline stages.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Validation creates a ValidationError wrapping err, which may be nil.
func Validation(err error, format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...), Err: err}
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
