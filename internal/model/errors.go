package model

import "fmt"

// ValidationError reports malformed input rejected before any classification
// work begins.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// NotFoundError reports a reference to a record unknown to the persistence
// collaborator.
type NotFoundError struct {
	Kind string // "message", "summary", "task"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}
