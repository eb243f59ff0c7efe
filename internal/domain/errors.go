package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidPriority is returned when a priority is not one of Low, Medium, High.
	ErrInvalidPriority = errors.New("invalid task priority")

	// ErrInvalidStatus is returned when a status is not one of todo, in_progress, completed.
	ErrInvalidStatus = errors.New("invalid task status")

	// ErrEmptyTitle is returned when a task has no title.
	ErrEmptyTitle = errors.New("task title cannot be empty")
)
