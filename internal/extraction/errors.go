package extraction

import "fmt"

// ErrorKind identifies the pipeline stage that failed.
type ErrorKind string

const (
	KindSourceUnavailable ErrorKind = "source-unavailable"
	KindProviderError     ErrorKind = "provider-error"
	KindMalformedResponse ErrorKind = "malformed-response"
	KindValidationError   ErrorKind = "validation-error"
	KindPersistenceError  ErrorKind = "persistence-error"
)

// ExtractionError is a structured error for pipeline failures.
type ExtractionError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

func pipelineError(kind ErrorKind, message string, cause error) *ExtractionError {
	return &ExtractionError{Kind: kind, Message: message, Cause: cause}
}

// ErrAlreadyClaimed is returned by Start when the report could not be claimed,
// i.e. it is already processing or completed.
var ErrAlreadyClaimed = fmt.Errorf("report is not claimable (already processing or completed)")
