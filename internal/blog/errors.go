package blog

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for a missing post or comment, and for drafts on public pages.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when a user changes content they do not own.
	ErrForbidden = errors.New("you are not allowed to do that")
)

// ValidationError describes a rejected form field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
