package tutor

import (
	"errors"
	"fmt"
)

type ErrorType string

const (
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeState      ErrorType = "STATE"
	ErrTypeStore      ErrorType = "STORE"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
)

// ErrBusy is returned for any change requested while a reply is pending.
var ErrBusy = errors.New("session is awaiting a response")

type TutorError struct {
	Type      ErrorType
	Operation string
	Message   string
	ChatID    string
	Cause     error
}

func (e *TutorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("Tutor %s error in %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("Tutor %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *TutorError) Unwrap() error {
	return e.Cause
}

func NewValidationError(operation, msg string) *TutorError {
	return &TutorError{Type: ErrTypeValidation, Operation: operation, Message: msg}
}

func NewStateError(operation string, state State) *TutorError {
	e := &TutorError{Type: ErrTypeState, Operation: operation, Message: "session is " + state.String()}
	if state == StateAwaitingResponse {
		e.Cause = ErrBusy
	}
	return e
}

func NewStoreError(operation, chatID string, cause error) *TutorError {
	return &TutorError{Type: ErrTypeStore, Operation: operation, Message: "conversation store failed", ChatID: chatID, Cause: cause}
}

func NewNotFoundError(operation, chatID string) *TutorError {
	return &TutorError{Type: ErrTypeNotFound, Operation: operation, Message: "conversation not found", ChatID: chatID}
}

// IsType reports whether err is a TutorError of type t.
func IsType(err error, t ErrorType) bool {
	var te *TutorError
	return errors.As(err, &te) && te.Type == t
}
