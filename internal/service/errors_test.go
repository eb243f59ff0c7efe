package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/taskflow-app/taskflow-api/internal/store"
)

func TestTaskServiceError(t *testing.T) {
	t.Run("with wrapped error", func(t *testing.T) {
		err := NewTaskServiceError("update", "failed to update task", store.ErrTaskNotFound)

		assert.Equal(t, "task service update failed: failed to update task: entity not found: task", err.Error())
		assert.ErrorIs(t, err, store.ErrTaskNotFound)

		var svcErr *TaskServiceError
		assert.True(t, errors.As(err, &svcErr))
		assert.Equal(t, "update", svcErr.Operation)
	})

	t.Run("without wrapped error", func(t *testing.T) {
		err := NewTaskServiceError("list", "store unavailable", nil)

		assert.Equal(t, "task service list failed: store unavailable", err.Error())
		assert.Nil(t, errors.Unwrap(err))
	})
}
