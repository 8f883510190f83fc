package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidTaskStatus is returned when a task status is not valid.
	ErrInvalidTaskStatus = errors.New("invalid task status")

	// ErrInvalidResultType is returned when an expected result type is not valid.
	ErrInvalidResultType = errors.New("invalid result type")

	// ErrInvalidResultContent is returned when result content fails validation.
	ErrInvalidResultContent = errors.New("invalid result content")
)
