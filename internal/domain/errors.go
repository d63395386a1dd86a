// Package domain defines core types, interfaces, and errors for the
// dataset reduction engine.
package domain

import "fmt"

// DatasetNotFoundError indicates a dataset id did not resolve to a stored file.
type DatasetNotFoundError struct {
	Message string
}

func (e *DatasetNotFoundError) Error() string { return e.Message }

// SchemaUnavailableError indicates the engine could not derive a schema
// from the dataset file.
type SchemaUnavailableError struct {
	Message string
}

func (e *SchemaUnavailableError) Error() string { return e.Message }

// UnknownColumnError indicates a filter rule referenced a column that is
// not part of the dataset schema.
type UnknownColumnError struct {
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column %q", e.Column)
}

// UnsupportedOperatorError indicates a filter rule used an operator outside
// the supported grammar.
type UnsupportedOperatorError struct {
	Operator string
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("unsupported operator %q", e.Operator)
}

// MalformedOperandError indicates a filter value whose shape does not match
// its operator (e.g. BETWEEN without exactly two values).
type MalformedOperandError struct {
	Message string
}

func (e *MalformedOperandError) Error() string { return e.Message }

// ExecutionFailedError wraps an engine-level failure that occurred after
// compilation succeeded. The message is sanitized for untrusted callers;
// the underlying error is retained for logs via Unwrap.
type ExecutionFailedError struct {
	Message string
	Err     error
}

func (e *ExecutionFailedError) Error() string { return e.Message }

func (e *ExecutionFailedError) Unwrap() error { return e.Err }

// ValidationError indicates invalid request input outside the filter grammar
// (bad export format, unsupported file type, out-of-range limit).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// MetricBlockedError indicates a requested analysis uses a metric that a
// block-severity blacklist finding forbids at the dataset's detected grain.
type MetricBlockedError struct {
	Metric string
	Reason string
}

func (e *MetricBlockedError) Error() string {
	return fmt.Sprintf("metric %q is blocked: %s", e.Metric, e.Reason)
}

// ErrDatasetNotFound creates a DatasetNotFoundError with a formatted message.
func ErrDatasetNotFound(format string, args ...interface{}) *DatasetNotFoundError {
	return &DatasetNotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrSchemaUnavailable creates a SchemaUnavailableError with a formatted message.
func ErrSchemaUnavailable(format string, args ...interface{}) *SchemaUnavailableError {
	return &SchemaUnavailableError{Message: fmt.Sprintf(format, args...)}
}

// ErrMalformedOperand creates a MalformedOperandError with a formatted message.
func ErrMalformedOperand(format string, args ...interface{}) *MalformedOperandError {
	return &MalformedOperandError{Message: fmt.Sprintf(format, args...)}
}

// ErrExecutionFailed creates an ExecutionFailedError with a sanitized message
// wrapping the underlying engine error.
func ErrExecutionFailed(err error, format string, args ...interface{}) *ExecutionFailedError {
	return &ExecutionFailedError{Message: fmt.Sprintf(format, args...), Err: err}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
