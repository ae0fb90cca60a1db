package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobStartsPending(t *testing.T) {
	job := NewJob("user-1", "user-1/lecture.mp4", 1024, 3)

	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, 0, job.Attempt)
	assert.Equal(t, 3, job.MaxAttempts)
	assert.True(t, job.CanRetry())
	assert.Nil(t, job.CompletedAt)
}

func TestJobLifecycle(t *testing.T) {
	job := NewJob("user-1", "user-1/lecture.mp4", 1024, 3)

	job.MarkProcessing()
	assert.Equal(t, JobStatusProcessing, job.Status)
	assert.Equal(t, 1, job.Attempt)

	job.MarkCompleted("user-1/slides_abc.zip", 12, 3, 1800.5)
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.Equal(t, "user-1/slides_abc.zip", job.ResultKey)
	assert.Equal(t, 12, job.SlideCount)
	assert.Equal(t, 3, job.DuplicateCount)
	assert.Equal(t, 1800.5, job.VideoDuration)
	require.NotNil(t, job.CompletedAt)
}

func TestJobRetryExhaustion(t *testing.T) {
	job := NewJob("user-1", "user-1/lecture.mp4", 1024, 2)

	job.MarkProcessing()
	job.MarkFailed("ffprobe exited 1")
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.True(t, job.CanRetry())

	job.MarkProcessing()
	job.MarkFailed("ffprobe exited 1")
	assert.False(t, job.CanRetry())
	assert.Equal(t, "ffprobe exited 1", job.ErrorMessage)
}
