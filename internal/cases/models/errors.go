package models

import (
	"errors"
	"fmt"

	"caseprocessor/pkg/platform/sentinel"
)

// ErrInvalidEventType marks an event type routed to a topic that does not accept it.
var ErrInvalidEventType = errors.New("invalid event type for topic")

// InvalidEventTypeError is returned by topic routers for types outside their allow-list.
type InvalidEventTypeError struct {
	Type EventType
}

func (e *InvalidEventTypeError) Error() string {
	return fmt.Sprintf("Event Type '%s' is invalid on this topic", e.Type)
}

func (e *InvalidEventTypeError) Is(target error) bool {
	return target == ErrInvalidEventType
}

// ValidationError reports a payload that can never be processed successfully.
// It unwraps to sentinel.ErrInvalidState.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return sentinel.ErrInvalidState
}
