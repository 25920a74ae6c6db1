package ai

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse is the cause of a MODEL error when the provider answered
// with no text.
var ErrEmptyResponse = errors.New("empty response")

type ErrorType string

const (
	ErrTypeConfig     ErrorType = "CONFIG"
	ErrTypeProvider   ErrorType = "PROVIDER"
	ErrTypeModel      ErrorType = "MODEL"
	ErrTypeValidation ErrorType = "VALIDATION"
)

type AIError struct {
	Type      ErrorType
	Message   string
	Model     string
	Operation string
	Cause     error
}

func (e *AIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("AI %s error in %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("AI %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *AIError) Unwrap() error {
	return e.Cause
}

func NewConfigError(msg string) *AIError {
	return &AIError{Type: ErrTypeConfig, Message: msg, Operation: "config"}
}

func NewProviderError(operation, model, msg string, cause error) *AIError {
	return &AIError{Type: ErrTypeProvider, Operation: operation, Model: model, Message: msg, Cause: cause}
}
