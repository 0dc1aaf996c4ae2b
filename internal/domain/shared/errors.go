package shared

import "fmt"

// DomainError is an error with a stable code that the HTTP layer maps to a
// status. Errors built with WithDetail still match their sentinel under
// errors.Is.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	base    *DomainError
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is the sentinel e was derived from
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && e.base != nil && e.base == t
}

// WithDetail returns a copy of e whose message carries a formatted detail
func (e *DomainError) WithDetail(format string, args ...any) *DomainError {
	root := e
	if e.base != nil {
		root = e.base
	}
	return &DomainError{
		Code:    e.Code,
		Message: e.Message + ": " + fmt.Sprintf(format, args...),
		base:    root,
	}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

var (
	ErrNotFound     = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput = NewDomainError("INVALID_INPUT", "Invalid input provided")
)
