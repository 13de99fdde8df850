// Package pipeline orchestrates a forecasting run: load the dataset
// artifact, fit the model menu per partition through the worker pool,
// turn fitted models into forecast tables, and persist the results.
package pipeline

// Stage error codes. They identify which contract a run broke, not how.
const (
	CodeSetupFailure      = "SETUP_FAILURE"
	CodeBadDataset        = "BAD_DATASET"
	CodeFitFailure        = "FIT_FAILURE"
	CodeIOFailure         = "IO_FAILURE"
	CodeMissingDependency = "MISSING_DEPENDENCY"
)

// Error represents a pipeline stage error
type Error struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap exposes the cause so callers can match sentinels with errors.Is
func (e *Error) Unwrap() error {
	return e.cause
}

// NewError creates a new Error
func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// NewErrorWithDetails creates a new Error with details
func NewErrorWithDetails(code, message string, details map[string]interface{}) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Wrap creates a new Error around a cause
func Wrap(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}
