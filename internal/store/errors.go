package store

import (
	"errors"
	"fmt"
)

// Sentinels shared by the postgres and firestore backends. Entity-specific
// errors wrap the generic ones, so errors.Is works at either level.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrDuplicate     = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrUpdateFailed means a conditional write matched nothing.
	ErrUpdateFailed = errors.New("update failed")

	// ErrTransactionFailed is returned when a commit fails.
	ErrTransactionFailed = errors.New("transaction failed")

	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)

	// ErrTaskNotFound also covers tasks owned by someone other than the caller.
	ErrTaskNotFound = fmt.Errorf("%w: task", ErrNotFound)

	ErrEmailExists = fmt.Errorf("%w: email", ErrDuplicate)

	// ErrReminderRearmed means the task's due date moved after it was selected
	// for a reminder, so the sent marker was not written.
	ErrReminderRearmed = fmt.Errorf("%w: due date changed", ErrUpdateFailed)
)

// IsNotFoundError reports whether err is any not-found sentinel.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError reports whether err is any uniqueness sentinel.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// StoreError tags a backend failure with the entity and operation.
type StoreError struct {
	Entity    string
	Operation string
	Message   string
	Err       error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
	}
	return fmt.Sprintf("%s operation on %s failed: %s: %v", e.Operation, e.Entity, e.Message, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError builds a StoreError.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{Entity: entity, Operation: operation, Message: message, Err: err}
}
