// Package errors declares the typed error variants of the inference core.
package errors

import (
	stderrors "errors"
)

// InvalidModelInputError is raised by validation hooks or by schema-driven
// decoding. It is the only error kind that crosses the handler boundary
// unwrapped: every transport surface maps it to a 400-class response with
// the original message intact.
type InvalidModelInputError struct {
	ErrorMsg string
}

func (e *InvalidModelInputError) Error() string {
	return e.ErrorMsg
}

// PredictionError wraps any failure of the dispatch or post-process step
// that is not an InvalidModelInputError.
type PredictionError struct {
	Cause error
}

func (e *PredictionError) Error() string {
	return "unable to make a prediction"
}

func (e *PredictionError) Unwrap() error {
	return e.Cause
}

// NotImplementedError marks a declared but unimplemented capability, such as
// the Kinesis Data Firehose event family or an unhandled content type.
type NotImplementedError struct {
	ErrorMsg string
}

func (e *NotImplementedError) Error() string {
	return e.ErrorMsg
}

// ConfigurationError reports a missing precondition detected before any
// inference attempt (absent endpoint, missing schema, malformed event).
type ConfigurationError struct {
	ErrorMsg string
}

func (e *ConfigurationError) Error() string {
	return e.ErrorMsg
}

// AsInvalidInput reports whether any error in the chain is an
// InvalidModelInputError and returns it.
func AsInvalidInput(err error) (*InvalidModelInputError, bool) {
	var invalid *InvalidModelInputError
	if stderrors.As(err, &invalid) {
		return invalid, true
	}
	return nil, false
}
