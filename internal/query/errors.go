package query

import "fmt"

// ValidationError reports a query the caller built incorrectly: selector
// grammar violations, unparsable operand values, or a malformed structured
// document. Handlers map it to a rejected-request response; every other
// error from this package indicates an internal failure (corrupt log or
// store, missing reference id, I/O).
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
