package service

import (
	"errors"
	"fmt"
)

// Service errors callers may check with errors.Is. Missing or foreign tasks
// are reported as store.ErrTaskNotFound.
var (
	// ErrNothingToUpdate is returned when an update names no fields.
	ErrNothingToUpdate = errors.New("no fields to update")

	// ErrConflictingDueDate is returned when an update both sets and clears the due date.
	ErrConflictingDueDate = errors.New("due date cannot be set and cleared in the same update")
)

// TaskServiceError wraps unexpected failures with the operation that hit them.
type TaskServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for TaskServiceError.
func (e *TaskServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TaskServiceError) Unwrap() error {
	return e.Err
}

// NewTaskServiceError creates a new TaskServiceError.
func NewTaskServiceError(operation, message string, err error) *TaskServiceError {
	return &TaskServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
