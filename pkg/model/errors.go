package model

import "fmt"

// ErrorCode represents a structured API error code.
type ErrorCode string

const (
	ErrValidation ErrorCode = "VALIDATION_ERROR"
	ErrNotFound   ErrorCode = "NOT_FOUND"
	ErrInternal   ErrorCode = "INTERNAL_ERROR"
)

// APIError is a structured error returned by the simulation API.
type APIError struct {
	Code    ErrorCode    `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FieldError describes a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	switch {
	case e.Line > 0 && e.Field != "":
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Field, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	case e.Field != "":
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// NewValidationError creates an APIError with validation details.
func NewValidationError(msg string, details ...FieldError) *APIError {
	return &APIError{Code: ErrValidation, Message: msg, Details: details}
}

// NewNotFoundError creates a NOT_FOUND APIError.
func NewNotFoundError(resource, id string) *APIError {
	return &APIError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s '%s' not found", resource, id),
	}
}

// ConfigError reports a bad invocation or an unusable process description.
// It is never retried.
type ConfigError struct {
	Source  string
	Details []FieldError
	Err     error
}

func (e *ConfigError) Error() string {
	msg := "invalid configuration"
	if e.Source != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Source)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Details) > 0 {
		msg = fmt.Sprintf("%s: %v", msg, e.Details[0])
		if len(e.Details) > 1 {
			msg = fmt.Sprintf("%s (and %d more)", msg, len(e.Details)-1)
		}
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ConsistencyError reports a broken scheduling invariant, for example an
// interrupt naming a process that is not blocked.
type ConsistencyError struct {
	Time      int
	ProcessID int
	Reason    string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("consistency fault at time %d (process %d): %s", e.Time, e.ProcessID, e.Reason)
}

// InvalidTransitionError is returned when a state transition is invalid.
type InvalidTransitionError struct {
	ProcessID int
	From      ProcessState
	To        ProcessState
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid process state transition: %s → %s (process %d)", e.From, e.To, e.ProcessID)
}
