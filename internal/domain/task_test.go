package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTask(t *testing.T) {
	t.Parallel()

	t.Run("valid task", func(t *testing.T) {
		t.Parallel()

		refID := uuid.New()
		task, err := NewTask("gemini", "a cat on a roof", ResultTypeImage, []uuid.UUID{refID})
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, task.ID)
		assert.Equal(t, "gemini", task.Tool)
		assert.Equal(t, ResultTypeImage, task.ResultType)
		assert.Equal(t, TaskStatusPending, task.Status)
		assert.Equal(t, []uuid.UUID{refID}, task.ReferenceImageIDs)
		assert.False(t, task.CreatedAt.IsZero())
	})

	t.Run("validation failures", func(t *testing.T) {
		t.Parallel()

		testCases := []struct {
			name       string
			tool       string
			prompt     string
			resultType ResultType
			wantErr    error
		}{
			{"empty tool", "", "prompt", ResultTypeText, ErrEmptyTaskTool},
			{"empty prompt", "chatgpt", "", ResultTypeText, ErrEmptyTaskPrompt},
			{"bad result type", "chatgpt", "prompt", ResultType("audio"), ErrInvalidResultType},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := NewTask(tc.tool, tc.prompt, tc.resultType, nil)
				assert.ErrorIs(t, err, tc.wantErr)
			})
		}
	})
}

func TestTask_UpdateStatus(t *testing.T) {
	t.Parallel()

	task, err := NewTask("chatgpt", "hello", ResultTypeText, nil)
	require.NoError(t, err)

	before := task.UpdatedAt
	require.NoError(t, task.UpdateStatus(TaskStatusInProgress))
	assert.Equal(t, TaskStatusInProgress, task.Status)
	assert.False(t, task.UpdatedAt.Before(before))

	err = task.UpdateStatus(TaskStatus("bogus"))
	assert.ErrorIs(t, err, ErrInvalidTaskStatus)
	assert.Equal(t, TaskStatusInProgress, task.Status, "status must be unchanged after invalid update")
}

func TestTask_Snapshot(t *testing.T) {
	t.Parallel()

	task, err := NewTask("jimeng", "storm clouds", ResultTypeVideo, []uuid.UUID{uuid.New()})
	require.NoError(t, err)

	result, err := NewTaskResult(task.ID, TextContent("done"))
	require.NoError(t, err)
	task.Results = append(task.Results, *result)

	snap := task.Snapshot()
	assert.Equal(t, task.ID, snap.ID)
	assert.Nil(t, snap.Results, "snapshot must not carry result history")

	// Mutating the snapshot's reference IDs must not alias the original.
	snap.ReferenceImageIDs[0] = uuid.Nil
	assert.NotEqual(t, uuid.Nil, task.ReferenceImageIDs[0])
}
